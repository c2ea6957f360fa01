// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the keepconv pipeline.
package types

// ConversionStatus indicates the state of note-to-document conversion.
type ConversionStatus string

const (
	ConversionDone    ConversionStatus = "converted"
	ConversionSkipped ConversionStatus = "skipped"
	ConversionFailed  ConversionStatus = "failed"
)

// Attachment is a single file reference inside an exported note. The path
// is relative to the export's attachments directory.
type Attachment struct {
	// FilePath is the attachment filename as written by the exporter
	// (e.g. "17c8a4b2e01.8873891471.png").
	FilePath string `json:"filePath"`

	// Mimetype is the attachment content type (e.g. "image/png").
	Mimetype string `json:"mimetype"`
}

// Label is a user-assigned tag on a note.
type Label struct {
	Name string `json:"name"`
}

// ListItem is one entry of a checklist note.
type ListItem struct {
	Text      string `json:"text"`
	IsChecked bool   `json:"isChecked"`
}

// Note is a single exported note record as produced by Google Takeout.
// Timestamps are microseconds since the Unix epoch, matching the export
// format.
type Note struct {
	// Title is the note title; may be empty.
	Title string `json:"title"`

	// TextContent is the plain-text body of the note.
	TextContent string `json:"textContent"`

	// TextContentHTML is the HTML body when the note carries rich text.
	TextContentHTML string `json:"textContentHtml"`

	// ListContent holds checklist entries for list notes. List notes
	// usually have an empty TextContent.
	ListContent []ListItem `json:"listContent"`

	// CreatedTimestampUsec is the creation time in microseconds.
	CreatedTimestampUsec int64 `json:"createdTimestampUsec"`

	// UserEditedTimestampUsec is the last-edit time in microseconds.
	UserEditedTimestampUsec int64 `json:"userEditedTimestampUsec"`

	// Labels lists the note's tags in export order.
	Labels []Label `json:"labels"`

	// Attachments lists the note's file references in export order.
	Attachments []Attachment `json:"attachments"`

	// Color is the note color name from the export (e.g. "DEFAULT").
	Color string `json:"color"`

	IsPinned   bool `json:"isPinned"`
	IsArchived bool `json:"isArchived"`
	IsTrashed  bool `json:"isTrashed"`
}

// HasContent reports whether the note carries any convertible body:
// text, rich text, a checklist, or at least one attachment.
func (n *Note) HasContent() bool {
	return n.TextContent != "" || n.TextContentHTML != "" ||
		len(n.ListContent) > 0 || len(n.Attachments) > 0
}

// LabelNames returns the note's label names in export order.
func (n *Note) LabelNames() []string {
	names := make([]string, 0, len(n.Labels))
	for _, l := range n.Labels {
		names = append(names, l.Name)
	}
	return names
}

// AttachmentResult pairs the OCR output of one attachment with its
// corrected form. Formatted equals Raw whenever correction is disabled
// or was skipped because Raw is empty.
type AttachmentResult struct {
	// Raw is the text extracted from the image.
	Raw string

	// Formatted is the corrected text, or Raw when no correction ran,
	// or a failure sentinel when correction failed.
	Formatted string
}
