package clean

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/config"
	"github.com/Kush-Singh-26/inkwell/builder/testutil"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		cleanCache bool
		cacheKept  bool
	}{
		{"output only", false, true},
		{"with cache", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			fs := afero.NewMemMapFs()
			for _, p := range []string{
				"public/rss.xml",
				".generated/Post/withoutbody.json",
				".inkwell-cache/meta.db",
				"content/posts/a/index.md",
			} {
				_ = afero.WriteFile(fs, p, []byte("x"), 0644)
			}

			if err := Run(fs, cfg, tt.cleanCache); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			testutil.AssertFileNotExists(t, fs, "public/rss.xml")
			testutil.AssertFileNotExists(t, fs, ".generated/Post/withoutbody.json")
			testutil.AssertFileExists(t, fs, "content/posts/a/index.md")
			if ok, _ := afero.Exists(fs, ".inkwell-cache/meta.db"); ok != tt.cacheKept {
				t.Errorf("cache kept = %v, want %v", ok, tt.cacheKept)
			}
		})
	}
}

func TestRun_MissingDirs(t *testing.T) {
	if err := Run(afero.NewMemMapFs(), config.Default(), true); err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
