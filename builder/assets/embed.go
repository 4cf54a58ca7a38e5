// Package assets exposes the fonts bundled into the binary.
package assets

import (
	"fmt"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
)

// Font names accepted by GetFont.
const (
	FontBold    = "Go-Bold.ttf"
	FontMedium  = "Go-Medium.ttf"
	FontRegular = "Go-Regular.ttf"
)

var fonts = map[string][]byte{
	FontBold:    gobold.TTF,
	FontMedium:  gomedium.TTF,
	FontRegular: goregular.TTF,
}

// GetFont returns the TrueType bytes of a bundled font.
func GetFont(filename string) ([]byte, error) {
	data, ok := fonts[filename]
	if !ok {
		return nil, fmt.Errorf("font %s is not bundled", filename)
	}
	return data, nil
}
