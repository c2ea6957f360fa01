// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/keepconv/internal/keep"
	"github.com/pdiddy/keepconv/pkg/types"
)

// mdRenderer converts corrected attachment text into HTML fragments.
var mdRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

type htmlNote struct {
	Title     string
	Created   string
	Edited    string
	Labels    string
	BodyHTML  template.HTML
	BodyText  string
	ListItems []types.ListItem
	Rows      []htmlRow
}

type htmlRow struct {
	Index        int
	HasImage     bool
	ImageSrc     template.URL
	Raw          string
	HasCorrected bool
	Corrected    template.HTML
}

// HTML renders the panel-view HTML document for a note: a metadata panel,
// the note body, and one row per attachment with the embedded image, the
// raw OCR text, and the corrected text side by side in collapsible
// sections. Images are embedded base64 so the document is self-contained.
func HTML(note *types.Note, attachmentPaths []string, results []types.AttachmentResult, correctionEnabled bool) (string, error) {
	data := htmlNote{
		Title:   displayTitle(note),
		Created: keep.FormatTimestamp(note.CreatedTimestampUsec),
		Edited:  keep.FormatTimestamp(note.UserEditedTimestampUsec),
		Labels:  strings.Join(note.LabelNames(), ", "),
	}

	text := strings.TrimSpace(note.TextContent)
	html := strings.TrimSpace(note.TextContentHTML)
	switch {
	case html != "":
		// The export's own HTML body; trusted as-is.
		data.BodyHTML = template.HTML(html)
	case text != "":
		data.BodyText = text
	case len(note.ListContent) > 0:
		data.ListItems = note.ListContent
	}

	for i, path := range attachmentPaths {
		row := htmlRow{Index: i + 1}

		if src, err := embedImage(path); err == nil {
			row.HasImage = true
			row.ImageSrc = src
		}

		var r types.AttachmentResult
		if i < len(results) {
			r = results[i]
		}
		row.Raw = r.Raw
		if correctionEnabled && r.Formatted != r.Raw {
			fragment, err := renderMarkdownFragment(r.Formatted)
			if err != nil {
				return "", fmt.Errorf("rendering corrected text for %s: %w", path, err)
			}
			row.HasCorrected = true
			row.Corrected = fragment
		}

		data.Rows = append(data.Rows, row)
	}

	var buf bytes.Buffer
	if err := noteTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering HTML document: %w", err)
	}
	return buf.String(), nil
}

// embedImage reads the attachment and returns it as a data URI.
func embedImage(path string) (template.URL, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	uri := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(raw)
	return template.URL(uri), nil
}

func renderMarkdownFragment(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

var noteTemplate = template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/github-markdown-css/5.2.0/github-markdown.min.css">
<style>
body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
    line-height: 1.6;
    max-width: 1200px;
    margin: auto;
    padding: 20px;
    color: #333;
}
.meta-info {
    margin-bottom: 20px;
    background-color: #f9f9f9;
    padding: 15px;
    border-radius: 5px;
    border-left: 4px solid #007bff;
}
.content-section {
    margin: 20px 0;
    padding: 15px;
    background-color: #f9f9f9;
    border-radius: 5px;
}
.note-content-html, .markdown-content {
    padding: 15px;
    background: white;
    border-radius: 5px;
    box-shadow: 0 2px 4px rgba(0,0,0,0.1);
}
.checklist {
    list-style: none;
    padding-left: 0;
}
.attachment-row {
    display: flex;
    gap: 20px;
    margin-bottom: 20px;
    flex-wrap: wrap;
}
.attachment-column {
    flex: 1;
    min-width: 300px;
    background-color: #f9f9f9;
    padding: 15px;
    border-radius: 5px;
    margin-bottom: 15px;
}
details {
    margin-bottom: 15px;
}
summary {
    cursor: pointer;
    font-size: 1.1em;
    font-weight: bold;
    color: #007bff;
    padding: 8px 0;
}
summary:hover {
    text-decoration: underline;
}
pre {
    background: white;
    padding: 10px;
    border-radius: 5px;
    overflow-x: auto;
    white-space: pre-wrap;
    word-wrap: break-word;
    box-shadow: 0 1px 3px rgba(0,0,0,0.1);
}
hr {
    border: 0;
    height: 1px;
    background-color: #ddd;
    margin: 30px 0;
}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta-info">
<p><strong>Created:</strong> {{.Created}}</p>
<p><strong>Last Edited:</strong> {{.Edited}}</p>
<p><strong>Labels:</strong> {{.Labels}}</p>
</div>
{{if or .BodyHTML .BodyText .ListItems}}<div class="content-section">
<h2>Note Content</h2>
{{if .BodyHTML}}<div class="note-content-html">{{.BodyHTML}}</div>
{{else if .BodyText}}<div class="note-content-text"><pre>{{.BodyText}}</pre></div>
{{else}}<ul class="checklist">
{{range .ListItems}}<li><input type="checkbox" disabled{{if .IsChecked}} checked{{end}}> {{.Text}}</li>
{{end}}</ul>
{{end}}</div>
<hr>
{{end}}{{if .Rows}}<h2>Attachments</h2>
{{range .Rows}}<div class="attachment-row">
<div class="attachment-column">
<details open>
<summary>Image {{.Index}}</summary>
{{if .HasImage}}<img src="{{.ImageSrc}}" alt="Embedded Image {{.Index}}" style="max-width:100%;">
{{else}}<p>(attachment could not be embedded)</p>
{{end}}</details>
</div>
<div class="attachment-column">
<details open>
<summary>OCR Output {{.Index}}</summary>
<pre>{{.Raw}}</pre>
</details>
</div>
{{if .HasCorrected}}<div class="attachment-column">
<details open>
<summary>Corrected Text {{.Index}}</summary>
<div class="markdown-content">{{.Corrected}}</div>
</details>
</div>
{{end}}</div>
{{end}}{{end}}</body>
</html>
`))
