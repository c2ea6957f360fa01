// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preview serves the generated HTML documents for local browsing.
package preview

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// listing is one folder of generated documents on the index page.
type listing struct {
	Folder string
	Notes  []noteLink
}

type noteLink struct {
	Name string
	Href string
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>keepconv preview</title></head>
<body>
<h1>Converted notes</h1>
{{if not .}}<p>No documents found. Run a conversion first.</p>{{end}}
{{range .}}
<h2>{{.Folder}}</h2>
<ul>
{{range .Notes}}<li><a href="{{.Href}}">{{.Name}}</a></li>
{{end}}</ul>
{{end}}
</body>
</html>
`))

// NewHandler builds the preview router over the generated HTML tree:
// an index listing at / and the documents themselves under /notes/.
func NewHandler(htmlDir string) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		listings, err := collectListings(htmlDir)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		indexTmpl.Execute(w, listings)
	})
	r.Handle("/notes/*", http.StripPrefix("/notes/", http.FileServer(http.Dir(htmlDir))))
	return r
}

// collectListings walks the HTML output tree and groups documents by
// their label folder.
func collectListings(htmlDir string) ([]listing, error) {
	byFolder := make(map[string][]noteLink)
	err := filepath.WalkDir(htmlDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		rel, err := filepath.Rel(htmlDir, path)
		if err != nil {
			return err
		}
		folder := filepath.Dir(rel)
		if folder == "." {
			folder = "/"
		}
		byFolder[folder] = append(byFolder[folder], noteLink{
			Name: strings.TrimSuffix(d.Name(), ".html"),
			Href: "/notes/" + filepath.ToSlash(rel),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("walking %s: %w", htmlDir, err)
	}

	folders := make([]string, 0, len(byFolder))
	for f := range byFolder {
		folders = append(folders, f)
	}
	sort.Strings(folders)

	listings := make([]listing, 0, len(folders))
	for _, f := range folders {
		notes := byFolder[f]
		sort.Slice(notes, func(i, j int) bool { return notes[i].Name < notes[j].Name })
		listings = append(listings, listing{Folder: f, Notes: notes})
	}
	return listings, nil
}

// Serve runs the preview server on addr until ctx is canceled, then
// shuts down gracefully.
func Serve(ctx context.Context, addr, htmlDir string, w io.Writer) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: NewHandler(htmlDir),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(w, "preview: serving %s on http://%s\n", htmlDir, addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("preview server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutting down preview server: %w", err)
	}
	fmt.Fprintln(w, "preview: stopped")
	return nil
}
