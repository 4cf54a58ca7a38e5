package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestWriteFileAtomic(t *testing.T) {
	fsys := afero.NewMemMapFs()
	path := "public/posts/a/cover.png"

	if err := WriteFileAtomic(fsys, path, []byte("one")); err != nil {
		t.Fatalf("WriteFileAtomic() failed: %v", err)
	}
	if err := WriteFileAtomic(fsys, path, []byte("two")); err != nil {
		t.Fatalf("WriteFileAtomic() overwrite failed: %v", err)
	}

	got, _ := afero.ReadFile(fsys, path)
	if string(got) != "two" {
		t.Errorf("content = %q, want %q", got, "two")
	}
	entries, _ := afero.ReadDir(fsys, "public/posts/a")
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want 1", len(entries))
	}
}

func TestFileSHA256(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if sum, err := FileSHA256(fsys, "missing"); err != nil || sum != "" {
		t.Errorf("FileSHA256(missing) = %q, %v; want empty, nil", sum, err)
	}

	_ = afero.WriteFile(fsys, "f", []byte("abc"), 0644)
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if sum, _ := FileSHA256(fsys, "f"); sum != want {
		t.Errorf("FileSHA256() = %s, want %s", sum, want)
	}
	if BytesSHA256([]byte("abc")) != want {
		t.Error("BytesSHA256 disagrees with FileSHA256")
	}
}

func TestCopyIfChanged(t *testing.T) {
	fsys := afero.NewMemMapFs()

	tests := []struct {
		name  string
		data  string
		wrote bool
	}{
		{"first copy", "v1", true},
		{"unchanged", "v1", false},
		{"changed", "v2", true},
		{"unchanged again", "v2", false},
	}
	for _, tt := range tests {
		wrote, err := CopyIfChanged(fsys, "out/x.png", []byte(tt.data))
		if err != nil {
			t.Fatalf("%s: CopyIfChanged() failed: %v", tt.name, err)
		}
		if wrote != tt.wrote {
			t.Errorf("%s: wrote = %v, want %v", tt.name, wrote, tt.wrote)
		}
	}
}

func TestAcquireBuildLock(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireBuildLock(dir)
	if err != nil {
		t.Fatalf("AcquireBuildLock() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); err != nil {
		t.Errorf("lock file missing: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("Release() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); !os.IsNotExist(err) {
		t.Error("lock file should be removed after Release")
	}
}

func TestMinifyBytes(t *testing.T) {
	in := []byte("<p>\n   hello    world\n</p>")
	out := MinifyBytes("text/html", in)
	if len(out) >= len(in) {
		t.Errorf("MinifyBytes() = %q, want shorter output", out)
	}
	if got := MinifyBytes("application/x-unknown", in); string(got) != string(in) {
		t.Errorf("unknown mediatype should return input unchanged, got %q", got)
	}
}
