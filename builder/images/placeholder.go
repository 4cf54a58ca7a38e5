// Package images generates blur placeholders and copies referenced images into the public tree.
package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"

	_ "github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/Kush-Singh-26/inkwell/builder/cache"
)

// PlaceholderWidth is the pixel width of every blur placeholder.
const PlaceholderWidth = 8

// ErrInvalidImage is returned when the decoder cannot determine an image's dimensions.
var ErrInvalidImage = errors.New("images: cannot determine image dimensions")

// Dimensions returns the width and height declared by the image header.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, ErrInvalidImage
	}
	return cfg.Width, cfg.Height, nil
}

// PlaceholderHeight keeps the aspect ratio of a width x height image at PlaceholderWidth.
func PlaceholderHeight(width, height int) int {
	ratio := float64(width) / float64(height)
	h := int(math.Round(PlaceholderWidth / ratio))
	if h < 1 {
		h = 1
	}
	return h
}

// Placeholder downsamples the image to an 8px wide PNG and returns it as a data URL.
func Placeholder(data []byte) (string, error) {
	width, height, err := Dimensions(data)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	small := imaging.Resize(img, PlaceholderWidth, PlaceholderHeight(width, height), imaging.Box)

	var buf bytes.Buffer
	if err := png.Encode(&buf, small); err != nil {
		return "", fmt.Errorf("encode placeholder: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Blur memoizes placeholders in a checksum store keyed by the SHA-256 of the image bytes.
type Blur struct {
	store cache.Store
}

func NewBlur(store cache.Store) *Blur {
	return &Blur{store: store}
}

// DataURL returns the placeholder for data, computing it only on a cache miss.
func (b *Blur) DataURL(data []byte) (string, error) {
	if b == nil || b.store == nil {
		return Placeholder(data)
	}
	v, _, err := cache.MemoizeString(b.store, cache.Key(data), func() (string, error) {
		return Placeholder(data)
	})
	if err != nil && v == "" {
		return "", err
	}
	// A failed cache write still yields a usable placeholder.
	return v, nil
}

// RemoteDataURL returns the placeholder for an image that must be downloaded
// first. Results are cached by ref, so fetch runs once per URL.
func (b *Blur) RemoteDataURL(ref string, fetch func() ([]byte, error)) (string, error) {
	compute := func() (string, error) {
		data, err := fetch()
		if err != nil {
			return "", err
		}
		return Placeholder(data)
	}
	if b == nil || b.store == nil {
		return compute()
	}
	v, _, err := cache.MemoizeString(b.store, cache.KeyString("remote-cover", ref), compute)
	if err != nil && v == "" {
		return "", err
	}
	return v, nil
}
