package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/cache"
	"github.com/Kush-Singh-26/inkwell/builder/config"
)

// cacheCommand processes cache-related subcommands
func cacheCommand(args []string) error {
	cfg, rest, err := config.Parse(args, nil)
	if err != nil {
		return err
	}
	if len(rest) < 1 || rest[0] != "stats" {
		fmt.Println("Usage: inkwell cache stats")
		return nil
	}

	memo, err := cache.OpenMemo(cfg.CacheDir, 0)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = memo.Close() }()

	stats, err := memo.Stats()
	if err != nil {
		return fmt.Errorf("read cache stats: %w", err)
	}
	store, err := cache.NewFSStore(afero.NewOsFs(), filepath.Join(cfg.CacheDir, "store"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	size, err := store.Size()
	if err != nil {
		return err
	}

	fmt.Println("📊 Cache Statistics")
	fmt.Println("════════════════════════════════════════")
	fmt.Printf("Schema Version:  %d\n", stats.SchemaVersion)
	fmt.Printf("Tracked Files:   %d\n", stats.LastModPaths)
	fmt.Printf("Cover Images:    %d\n", stats.Covers)
	fmt.Printf("Store Size:      %.2f MB\n", float64(size)/(1024*1024))
	fmt.Printf("Build Count:     %d\n", stats.BuildCount)
	return nil
}
