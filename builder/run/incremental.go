package run

import (
	"path/filepath"
	"strings"

	"github.com/Kush-Singh-26/inkwell/builder/config"
)

// Relevant reports whether a change at path should trigger a rebuild.
// Output, cache and hidden paths are ignored, as are editor temp files.
func Relevant(cfg *config.Config, path string) bool {
	clean := filepath.Clean(path)
	for _, dir := range []string{cfg.PublicDir, cfg.GeneratedDir, cfg.CacheDir} {
		if within(clean, filepath.Clean(dir)) {
			return false
		}
	}
	for _, part := range strings.Split(filepath.ToSlash(clean), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return false
		}
	}
	base := filepath.Base(clean)
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	if cfg.ConfigFile != "" && clean == filepath.Clean(cfg.ConfigFile) {
		return true
	}
	return within(clean, filepath.Clean(cfg.ContentDir))
}

func within(path, dir string) bool {
	if dir == "." || dir == "" {
		return false
	}
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}
