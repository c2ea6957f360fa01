// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render generates the output documents for a converted note.
//
// Both renderers take the note together with its per-attachment pipeline
// results, already gathered in attachment order. Failed extractions and
// corrections arrive as empty strings or visible sentinels and are
// rendered as-is; rendering never drops an attachment.
package render

import (
	"fmt"
	"strings"

	"github.com/pdiddy/keepconv/internal/keep"
	"github.com/pdiddy/keepconv/pkg/types"
)

// displayTitle returns the note title as shown in documents.
func displayTitle(note *types.Note) string {
	if t := strings.TrimSpace(note.Title); t != "" {
		return t
	}
	return "Untitled"
}

// Markdown renders the Markdown document for a note. The corrected text
// for an attachment appears only when correction ran and actually changed
// something; identical output would just duplicate the raw block.
func Markdown(note *types.Note, results []types.AttachmentResult, correctionEnabled bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", displayTitle(note))
	fmt.Fprintf(&b, "**Created:** %s  \n", keep.FormatTimestamp(note.CreatedTimestampUsec))
	fmt.Fprintf(&b, "**Last Edited:** %s  \n", keep.FormatTimestamp(note.UserEditedTimestampUsec))
	fmt.Fprintf(&b, "**Labels:** %s  \n\n", strings.Join(note.LabelNames(), ", "))
	b.WriteString("---\n\n")

	text := strings.TrimSpace(note.TextContent)
	html := strings.TrimSpace(note.TextContentHTML)
	switch {
	case html != "":
		fmt.Fprintf(&b, "## Note Content (HTML)\n\n%s\n\n", text)
		b.WriteString("*This note carries rich formatting; see the HTML version for the full rendering.*\n\n")
	case text != "":
		fmt.Fprintf(&b, "## Note Content\n\n%s\n\n", text)
	case len(note.ListContent) > 0:
		b.WriteString("## Note Content\n\n")
		for _, item := range note.ListContent {
			mark := " "
			if item.IsChecked {
				mark = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s\n", mark, item.Text)
		}
		b.WriteString("\n")
	}

	if len(results) > 0 {
		b.WriteString("## Attachments\n\n")
		for i, r := range results {
			fmt.Fprintf(&b, "### Attachment %d\n\n", i+1)
			fmt.Fprintf(&b, "#### Raw OCR Output:\n```\n%s\n```\n\n", r.Raw)
			if correctionEnabled && r.Formatted != r.Raw {
				fmt.Fprintf(&b, "#### Corrected Text:\n%s\n\n", r.Formatted)
			}
		}
	}

	return strings.TrimSpace(b.String()) + "\n"
}
