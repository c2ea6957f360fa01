// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/keepconv/pkg/types"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHTMLFullNote(t *testing.T) {
	imgPath := writePNG(t, t.TempDir(), "scan.png")
	note := &types.Note{
		Title:                   "Receipts",
		TextContent:             "march expenses",
		CreatedTimestampUsec:    usec(2023, 3, 1, 10, 0, 0),
		UserEditedTimestampUsec: usec(2023, 3, 2, 11, 30, 0),
		Labels:                  []types.Label{{Name: "Finance"}},
	}
	results := []types.AttachmentResult{
		{Raw: "TOTAL 12.50", Formatted: "**TOTAL** 12.50"},
	}

	got, err := HTML(note, []string{imgPath}, results, true)
	if err != nil {
		t.Fatalf("HTML() error: %v", err)
	}

	for _, want := range []string{
		"<title>Receipts</title>",
		"<h1>Receipts</h1>",
		"<strong>Created:</strong> 2023-03-01 10:00:00",
		"<strong>Last Edited:</strong> 2023-03-02 11:30:00",
		"<strong>Labels:</strong> Finance",
		"<pre>march expenses</pre>",
		"<h2>Attachments</h2>",
		`src="data:image/png;base64,`,
		"<summary>OCR Output 1</summary>",
		"<pre>TOTAL 12.50</pre>",
		"<summary>Corrected Text 1</summary>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("document missing %q", want)
		}
	}

	// Corrected text is rendered from Markdown, not shown verbatim.
	if !strings.Contains(got, "<strong>TOTAL</strong>") {
		t.Errorf("corrected Markdown should be rendered to HTML:\n%s", got)
	}
}

func TestHTMLEscapesPlainText(t *testing.T) {
	note := &types.Note{Title: "t", TextContent: "1 < 2 & 3 > 2"}
	results := []types.AttachmentResult{{Raw: "<script>alert(1)</script>"}}
	imgPath := writePNG(t, t.TempDir(), "a.png")

	got, err := HTML(note, []string{imgPath}, results, false)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "<script>alert(1)</script>") {
		t.Error("raw OCR text must be escaped")
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Error("escaped OCR text missing")
	}
}

func TestHTMLNativeBodyPassesThrough(t *testing.T) {
	note := &types.Note{Title: "t", TextContentHTML: "<b>bold body</b>"}

	got, err := HTML(note, nil, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "<b>bold body</b>") {
		t.Errorf("native HTML body should be embedded unescaped:\n%s", got)
	}
}

func TestHTMLChecklist(t *testing.T) {
	note := &types.Note{
		Title: "t",
		ListContent: []types.ListItem{
			{Text: "milk", IsChecked: true},
			{Text: "eggs"},
		},
	}

	got, err := HTML(note, nil, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `<input type="checkbox" disabled checked> milk`) {
		t.Errorf("checked item missing:\n%s", got)
	}
	if !strings.Contains(got, `<input type="checkbox" disabled> eggs`) {
		t.Errorf("unchecked item missing:\n%s", got)
	}
}

func TestHTMLMissingImageDegrades(t *testing.T) {
	note := &types.Note{Title: "t"}
	results := []types.AttachmentResult{{Raw: "text survived"}}

	got, err := HTML(note, []string{"/nonexistent/gone.png"}, results, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "(attachment could not be embedded)") {
		t.Errorf("missing image placeholder absent:\n%s", got)
	}
	if !strings.Contains(got, "text survived") {
		t.Errorf("OCR text should survive a missing image:\n%s", got)
	}
}

func TestHTMLCorrectedColumnOmittedWhenDisabled(t *testing.T) {
	imgPath := writePNG(t, t.TempDir(), "b.png")
	note := &types.Note{Title: "t"}
	results := []types.AttachmentResult{{Raw: "raw", Formatted: "different"}}

	got, err := HTML(note, []string{imgPath}, results, false)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "Corrected Text") {
		t.Errorf("corrected column should be absent when correction is disabled:\n%s", got)
	}
}

func TestHTMLNoContentNoSection(t *testing.T) {
	got, err := HTML(&types.Note{Title: "t"}, nil, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "Note Content") {
		t.Errorf("empty note should have no content section:\n%s", got)
	}
	if strings.Contains(got, "<h2>Attachments</h2>") {
		t.Errorf("empty note should have no attachments section:\n%s", got)
	}
}
