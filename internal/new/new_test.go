package new

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/services"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title, want string
	}{
		{"Hello World", "hello-world"},
		{"  Go 1.22: what's new?  ", "go-122-whats-new"},
		{"a -- b", "a-b"},
		{"***", ""},
		{strings.Repeat("x", 120), strings.Repeat("x", 100)},
	}
	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCreate(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)

	path, err := Create(fs, "content/posts", "My First Post", now)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if path != "content/posts/my-first-post/index.md" {
		t.Errorf("path = %q", path)
	}

	// The scaffold must load as a valid post.
	l := &services.Loader{Fs: fs, Root: "content/posts"}
	doc, err := l.LoadFile("my-first-post", path)
	if err != nil {
		t.Fatalf("scaffold does not load: %v", err)
	}
	if doc.Title != "My First Post" || !doc.Date.Equal(now) {
		t.Errorf("doc = %+v", doc)
	}

	if _, err := Create(fs, "content/posts", "My First Post", now); !errors.Is(err, ErrExists) {
		t.Errorf("second Create() error = %v, want ErrExists", err)
	}
	if _, err := Create(fs, "content/posts", "???", now); err == nil {
		t.Error("empty slug accepted")
	}
}
