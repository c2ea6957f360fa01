// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/keepconv/internal/cache"
	"github.com/pdiddy/keepconv/internal/format"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the OCR and formatting result caches",
	Long: `Cache manages the on-disk result caches. Entries are permanent until
cleared: correction failures in particular are cached so a failing
upstream is not hammered on every run. Clearing them (or everything in a
namespace) forces recomputation on the next conversion.`,
}

// cacheNamespaces are the cache directories under the cache root.
var cacheNamespaces = []string{"ocr", "formatting"}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry and failure counts per cache namespace",
	RunE:  runCacheStats,
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cacheDir := stringSetting(cmd, "cache-dir", "convert.cache_dir")

	for _, ns := range cacheNamespaces {
		c, err := cache.New(filepath.Join(cacheDir, ns))
		if err != nil {
			return err
		}
		prefix := ""
		if ns == "formatting" {
			prefix = format.FailureMarker
		}
		entries, failures, err := c.Stats(prefix)
		if err != nil {
			return err
		}
		if prefix == "" {
			fmt.Printf("%-12s %d entries\n", ns+":", entries)
		} else {
			fmt.Printf("%-12s %d entries (%d cached failures)\n", ns+":", entries, failures)
		}
	}
	return nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached results",
	Long: `Clear removes entries from one or both cache namespaces. With
--failures-only, only persisted correction-failure sentinels are removed,
so the affected attachments are retried on the next run while successful
results stay cached.`,
	RunE: runCacheClear,
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cacheDir := stringSetting(cmd, "cache-dir", "convert.cache_dir")
	namespace, _ := cmd.Flags().GetString("namespace")
	failuresOnly, _ := cmd.Flags().GetBool("failures-only")

	namespaces := cacheNamespaces
	if namespace != "" {
		switch namespace {
		case "ocr", "formatting":
			namespaces = []string{namespace}
		default:
			return fmt.Errorf("unknown namespace %q: use ocr or formatting", namespace)
		}
	}
	if failuresOnly && namespace == "ocr" {
		return fmt.Errorf("the ocr cache holds no failure sentinels; --failures-only applies to formatting")
	}

	for _, ns := range namespaces {
		if failuresOnly && ns == "ocr" {
			continue
		}
		c, err := cache.New(filepath.Join(cacheDir, ns))
		if err != nil {
			return err
		}
		removed, err := c.Clear(failuresOnly, format.FailureMarker)
		if err != nil {
			return err
		}
		fmt.Printf("%-12s removed %d entries\n", ns+":", removed)
	}
	return nil
}

func init() {
	cacheCmd.PersistentFlags().String("cache-dir", "cache", "root for the OCR and formatting caches")

	cacheClearCmd.Flags().String("namespace", "", "clear only one namespace: ocr or formatting")
	cacheClearCmd.Flags().Bool("failures-only", false, "remove only cached correction failures")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
