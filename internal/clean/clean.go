// Package clean removes build output and, optionally, the build caches.
package clean

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/config"
)

// Targets lists the directories Run removes.
func Targets(cfg *config.Config, cleanCache bool) []string {
	dirs := []string{cfg.PublicDir, cfg.GeneratedDir}
	if cleanCache {
		dirs = append(dirs, cfg.CacheDir)
	}
	return dirs
}

// Run removes the output directories. Each one is renamed out of the way
// first and deleted in the background, so a following build starts at once.
func Run(fsys afero.Fs, cfg *config.Config, cleanCache bool) error {
	start := time.Now()
	for _, dir := range Targets(cfg, cleanCache) {
		if err := removeAsync(fsys, dir); err != nil {
			return err
		}
	}
	fmt.Printf("🧹 Clean initiated in %v (backgrounding deletion).\n", time.Since(start))
	return nil
}

func removeAsync(fsys afero.Fs, dir string) error {
	if ok, _ := afero.DirExists(fsys, dir); !ok {
		return nil
	}

	tempPath := filepath.Join(filepath.Dir(dir), fmt.Sprintf("%s_deleting_%d", filepath.Base(dir), time.Now().UnixNano()))
	fmt.Printf("🧹 Moving '%s' to trash...\n", dir)
	if err := fsys.Rename(dir, tempPath); err != nil {
		fmt.Printf("⚠️ Rename failed (%v), deleting synchronously...\n", err)
		if err := fsys.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
		return nil
	}

	go func() {
		_ = fsys.RemoveAll(tempPath)
	}()
	return nil
}
