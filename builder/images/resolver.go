package images

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/models"
	"github.com/Kush-Singh-26/inkwell/builder/utils"
)

// InlineImage is the annotation attached to an image node in a compiled body.
type InlineImage struct {
	Width       int
	Height      int
	Src         string
	BlurDataURL string
}

// Resolver copies images referenced by posts into the public tree and
// rewrites their references to public URLs.
type Resolver struct {
	SourceFs     afero.Fs
	DestFs       afero.Fs
	SourceRoot   string // e.g. content/posts
	PublicRoot   string // e.g. public/posts
	ResourcePath string // e.g. /posts
	Blur         *Blur
	Logger       *slog.Logger

	// Fetch downloads external images. When nil, external covers get no placeholder.
	Fetch func(ctx context.Context, url string) ([]byte, error)

	copies atomic.Int64
}

// Copies returns how many files the resolver has written so far.
func (r *Resolver) Copies() int64 {
	return r.copies.Load()
}

// IsExternal reports whether ref points at another host.
func IsExternal(ref string) bool {
	return strings.Contains(ref, "://")
}

// publicURL joins the resource path with slash-separated segments.
func (r *Resolver) publicURL(parts ...string) string {
	segs := make([]string, 0, len(parts)+1)
	segs = append(segs, r.ResourcePath)
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		segs = append(segs, filepath.ToSlash(p))
	}
	return path.Join(segs...)
}

// copyAsset reads sourceRoot/rel and mirrors it to publicRoot/rel when the
// checksum differs. It returns the source bytes.
func (r *Resolver) copyAsset(rel string) ([]byte, error) {
	src := filepath.Join(r.SourceRoot, rel)
	data, err := afero.ReadFile(r.SourceFs, src)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", src, err)
	}

	if err := r.mirror(rel, data); err != nil {
		return nil, err
	}
	return data, nil
}

// mirror writes data to publicRoot/rel unless the target already matches.
func (r *Resolver) mirror(rel string, data []byte) error {
	dst := filepath.Join(r.PublicRoot, rel)
	wrote, err := utils.CopyIfChanged(r.DestFs, dst, data)
	if err != nil {
		return fmt.Errorf("copy image %s: %w", rel, err)
	}
	if wrote {
		r.copies.Add(1)
	}
	return nil
}

// ResolveCoverImage returns the public URL of a post's cover image, copying it
// into the public tree when needed. External references are returned unchanged.
func (r *Resolver) ResolveCoverImage(directory, ref string) (string, error) {
	url, _, err := r.resolveCover(directory, ref)
	return url, err
}

func (r *Resolver) resolveCover(directory, ref string) (string, []byte, error) {
	if IsExternal(ref) {
		return ref, nil, nil
	}
	data, err := r.copyAsset(filepath.Join(directory, ref))
	if err != nil {
		return "", nil, err
	}
	return r.publicURL(directory, ref), data, nil
}

// ResolveCover resolves the cover image and its blur placeholder. A missing
// placeholder is not an error: BlurDataURL stays nil.
func (r *Resolver) ResolveCover(ctx context.Context, directory, ref string) (models.ResolvedImage, error) {
	if IsExternal(ref) {
		return r.resolveRemoteCover(ctx, ref), nil
	}
	url, data, err := r.resolveCover(directory, ref)
	if err != nil {
		return models.ResolvedImage{}, err
	}
	img := models.ResolvedImage{URL: url}
	if data == nil {
		return img, nil
	}
	blur, err := r.Blur.DataURL(data)
	if err != nil {
		r.logger().Warn("cover placeholder failed", "directory", directory, "image", ref, "error", err)
		return img, nil
	}
	img.BlurDataURL = &blur
	return img, nil
}

// resolveRemoteCover keeps the external URL and derives the placeholder from
// the downloaded bytes. Download or decode failures leave BlurDataURL nil.
func (r *Resolver) resolveRemoteCover(ctx context.Context, ref string) models.ResolvedImage {
	img := models.ResolvedImage{URL: ref}
	if r.Fetch == nil {
		return img
	}
	blur, err := r.Blur.RemoteDataURL(ref, func() ([]byte, error) {
		return r.Fetch(ctx, ref)
	})
	if err != nil {
		r.logger().Warn("remote cover placeholder failed", "image", ref, "error", err)
		return img
	}
	img.BlurDataURL = &blur
	return img
}

// ResolveInlineImage copies an image referenced from a post body and returns
// its dimensions, public src and placeholder. ErrInvalidImage means the node
// should be left as written.
func (r *Resolver) ResolveInlineImage(directory, src string) (*InlineImage, error) {
	rel := filepath.Join(directory, filepath.FromSlash(src))
	data, err := afero.ReadFile(r.SourceFs, filepath.Join(r.SourceRoot, rel))
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", rel, err)
	}

	width, height, err := Dimensions(data)
	if err != nil {
		return nil, err
	}
	blur, err := r.Blur.DataURL(data)
	if err != nil {
		return nil, err
	}
	if err := r.mirror(rel, data); err != nil {
		return nil, err
	}

	return &InlineImage{
		Width:       width,
		Height:      height,
		Src:         r.publicURL(directory, src),
		BlurDataURL: blur,
	}, nil
}

// IsLocalRef reports whether an inline image src should be resolved from the post directory.
func IsLocalRef(src string) bool {
	if src == "" || IsExternal(src) {
		return false
	}
	return !strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "data:") && !strings.HasPrefix(src, "//")
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
