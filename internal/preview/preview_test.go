// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preview

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHTMLTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"Unlabeled/Shopping.html":   "<html><body>milk and eggs</body></html>",
		"recipes/Pasta.html":        "<html><body>garlic</body></html>",
		"recipes/notes-backup.json": `{"ignored": true}`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestIndexListsDocumentsByFolder(t *testing.T) {
	ts := httptest.NewServer(NewHandler(writeHTMLTree(t)))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	page := string(body)
	assert.Contains(t, page, "Unlabeled")
	assert.Contains(t, page, "recipes")
	assert.Contains(t, page, `href="/notes/Unlabeled/Shopping.html"`)
	assert.Contains(t, page, `href="/notes/recipes/Pasta.html"`)
	assert.NotContains(t, page, "notes-backup")
}

func TestServesDocument(t *testing.T) {
	ts := httptest.NewServer(NewHandler(writeHTMLTree(t)))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/notes/recipes/Pasta.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "garlic")
}

func TestIndexOnEmptyTree(t *testing.T) {
	ts := httptest.NewServer(NewHandler(filepath.Join(t.TempDir(), "does-not-exist")))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "No documents found")
}

func TestMissingDocument404(t *testing.T) {
	ts := httptest.NewServer(NewHandler(writeHTMLTree(t)))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/notes/recipes/Ghost.html")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
