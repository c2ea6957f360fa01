// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/keepconv/pkg/types"
)

const sampleNote = `{
	"title": "Trip packing",
	"textContent": "passport\ncharger",
	"createdTimestampUsec": 1388552400000000,
	"userEditedTimestampUsec": 1388638800000000,
	"labels": [{"name": "Travel"}],
	"attachments": [
		{"filePath": "photo.1.png", "mimetype": "image/png"}
	],
	"color": "DEFAULT",
	"isArchived": true
}`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.json")
	if err := os.WriteFile(path, []byte(sampleNote), 0o644); err != nil {
		t.Fatal(err)
	}

	note, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if note.Title != "Trip packing" {
		t.Errorf("Title = %q, want %q", note.Title, "Trip packing")
	}
	if note.TextContent != "passport\ncharger" {
		t.Errorf("TextContent = %q", note.TextContent)
	}
	if note.CreatedTimestampUsec != 1388552400000000 {
		t.Errorf("CreatedTimestampUsec = %d", note.CreatedTimestampUsec)
	}
	if len(note.Labels) != 1 || note.Labels[0].Name != "Travel" {
		t.Errorf("Labels = %v", note.Labels)
	}
	if len(note.Attachments) != 1 || note.Attachments[0].FilePath != "photo.1.png" {
		t.Errorf("Attachments = %v", note.Attachments)
	}
	if note.Attachments[0].Mimetype != "image/png" {
		t.Errorf("Mimetype = %q", note.Attachments[0].Mimetype)
	}
	if !note.IsArchived {
		t.Error("IsArchived = false, want true")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Load() of missing file: want error")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load() of malformed JSON: want error")
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	want := []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")}
	if len(files) != len(want) {
		t.Fatalf("Discover() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Discover() of missing dir: want error")
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "here.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	note := &types.Note{Attachments: []types.Attachment{
		{FilePath: "here.png", Mimetype: "image/png"},
		{FilePath: "gone.png", Mimetype: "image/png"},
		{FilePath: ""},
	}}

	existing, missing := Resolve(dir, note)
	if len(existing) != 1 || existing[0] != filepath.Join(dir, "here.png") {
		t.Errorf("existing = %v", existing)
	}
	if len(missing) != 1 || missing[0] != "gone.png" {
		t.Errorf("missing = %v", missing)
	}
}
