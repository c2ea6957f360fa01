// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/keepconv/internal/preview"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Serve the generated HTML documents for local browsing",
	Long: `Preview starts a local HTTP server over the HTML output tree, with an
index page listing every converted note grouped by label folder. Stop it
with Ctrl-C.`,
	RunE: runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	htmlDir := stringSetting(cmd, "html-dir", "convert.html_dir")
	addr := stringSetting(cmd, "addr", "preview.addr")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return preview.Serve(ctx, addr, htmlDir, os.Stdout)
}

func init() {
	previewCmd.Flags().String("html-dir", "output_html", "root of the generated HTML documents")
	previewCmd.Flags().String("addr", "127.0.0.1:8675", "listen address")

	rootCmd.AddCommand(previewCmd)
}
