// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keep

import (
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/keepconv/pkg/types"
)

// maxNameRunes bounds sanitized names to fit common filesystem limits.
const maxNameRunes = 255

// timeLayout is the human-readable form used in generated documents.
const timeLayout = "2006-01-02 15:04:05"

// unsafeChars matches characters that are reserved on at least one of the
// filesystems the output may land on (NTFS is the strictest).
var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFileName replaces reserved characters with underscores, trims
// surrounding whitespace and underscores, and bounds the result to 255
// runes. The result may be empty; callers choose their own fallback.
func SanitizeFileName(name string) string {
	s := unsafeChars.ReplaceAllString(name, "_")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "_")
	if r := []rune(s); len(r) > maxNameRunes {
		s = string(r[:maxNameRunes])
	}
	return s
}

// DocumentStem returns the output filename stem for a note: the sanitized
// title, or "Untitled" when the title sanitizes to nothing.
func DocumentStem(note *types.Note) string {
	if s := SanitizeFileName(note.Title); s != "" {
		return s
	}
	return "Untitled"
}

// LabelFolder returns the output subfolder for a note, joining its label
// names with underscores. Unlabeled notes share a single folder.
func LabelFolder(note *types.Note) string {
	names := note.LabelNames()
	if folder := SanitizeFileName(strings.Join(names, "_")); folder != "" {
		return folder
	}
	return "Unlabeled"
}

// FormatTimestamp renders a Takeout microsecond timestamp in local time.
func FormatTimestamp(usec int64) string {
	return time.UnixMicro(usec).Format(timeLayout)
}
