package generators

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/assets"
	"github.com/Kush-Singh-26/inkwell/builder/models"
	"github.com/Kush-Singh-26/inkwell/builder/utils"
)

const (
	socialCardWidth  = 1200
	socialCardHeight = 630

	cardInset      = 16.0
	coverWidth     = 375
	coverHeight    = 562
	textX          = cardInset*2 + coverWidth + 32
	titleStartY    = 90.0
	titleFontSize  = 64.0
	longTitleSize  = 52.0
	descFontSize   = 36.0
	footerFontSize = 22.0
	brandFontSize  = 34.0
)

// Gradient stops of the card background.
var cardGradient = []string{"#0891B2", "#164E63"}

var (
	fontCache = make(map[string]*truetype.Font)
	fontMu    sync.RWMutex
)

// CardOptions carries the site-wide parts of a social card.
type CardOptions struct {
	SiteTitle string
	// Cover is drawn on the left when set.
	Cover image.Image
}

func loadFont(name string) (*truetype.Font, error) {
	fontMu.RLock()
	if f, ok := fontCache[name]; ok {
		fontMu.RUnlock()
		return f, nil
	}
	fontMu.RUnlock()

	fontMu.Lock()
	defer fontMu.Unlock()

	if f, ok := fontCache[name]; ok {
		return f, nil
	}

	data, err := assets.GetFont(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load font %s: %w", name, err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, err
	}
	fontCache[name] = f
	return f, nil
}

func setFontFace(dc *gg.Context, name string, points float64) error {
	f, err := loadFont(name)
	if err != nil {
		return err
	}
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: points, DPI: 72}))
	return nil
}

// hexToRGBA converts a hex color string to color.RGBA
func hexToRGBA(hex string) color.RGBA {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.RGBA{0, 0, 0, 255}
	}

	r, _ := strconv.ParseUint(hex[0:2], 16, 8)
	g, _ := strconv.ParseUint(hex[2:4], 16, 8)
	b, _ := strconv.ParseUint(hex[4:6], 16, 8)

	return color.RGBA{uint8(r), uint8(g), uint8(b), 255}
}

// drawGradient fills the context left to right across colors.
func drawGradient(dc *gg.Context, w, h int, colors []string) {
	if len(colors) < 2 {
		dc.SetColor(hexToRGBA(colors[0]))
		dc.Clear()
		return
	}

	parsed := make([]color.RGBA, len(colors))
	for i, c := range colors {
		parsed[i] = hexToRGBA(c)
	}

	for i := 0; i < w; i++ {
		t := float64(i) / float64(w-1)
		pos := t * float64(len(parsed)-1)
		idx1 := int(pos)
		idx2 := idx1 + 1
		if idx2 >= len(parsed) {
			idx2 = len(parsed) - 1
		}
		localT := pos - float64(idx1)
		c1, c2 := parsed[idx1], parsed[idx2]

		r := float64(c1.R)*(1-localT) + float64(c2.R)*localT
		g := float64(c1.G)*(1-localT) + float64(c2.G)*localT
		b := float64(c1.B)*(1-localT) + float64(c2.B)*localT
		dc.SetRGBA(r/255, g/255, b/255, 1)
		dc.DrawRectangle(float64(i), 0, 1, float64(h))
		dc.Fill()
	}
}

// SocialCard draws the 1200x630 preview image of a post.
func SocialCard(meta models.DocumentMeta, opts CardOptions) (image.Image, error) {
	dc := gg.NewContext(socialCardWidth, socialCardHeight)
	drawGradient(dc, socialCardWidth, socialCardHeight, cardGradient)

	// Panel
	dc.SetRGB255(41, 37, 36)
	dc.DrawRoundedRectangle(cardInset, cardInset, socialCardWidth-2*cardInset, socialCardHeight-2*cardInset, 18)
	dc.Fill()

	if opts.Cover != nil {
		cover := imaging.Fill(opts.Cover, coverWidth, coverHeight, imaging.Center, imaging.Lanczos)
		dc.Push()
		dc.DrawRoundedRectangle(cardInset*2, cardInset*2, coverWidth, coverHeight, 14)
		dc.Clip()
		dc.DrawImage(cover, int(cardInset*2), int(cardInset*2))
		dc.ResetClip()
		dc.Pop()
	}

	x := textX
	if opts.Cover == nil {
		x = cardInset*2 + 48
	}
	maxWidth := float64(socialCardWidth) - x - cardInset*2 - 32

	size := titleFontSize
	if len(meta.Title) >= 40 {
		size = longTitleSize
	}
	if err := setFontFace(dc, assets.FontBold, size); err != nil {
		return nil, fmt.Errorf("failed to load bold font: %w", err)
	}
	dc.SetRGB255(250, 250, 249)
	dc.DrawStringWrapped(meta.Title, x, titleStartY, 0, 0, maxWidth, 1.1, gg.AlignLeft)
	titleHeight := float64(len(dc.WordWrap(meta.Title, maxWidth))) * size * 1.1

	if err := setFontFace(dc, assets.FontRegular, descFontSize); err == nil {
		dc.SetRGB255(214, 211, 209)
		dc.DrawStringWrapped(meta.Summary, x, titleStartY+titleHeight+24, 0, 0, maxWidth, 1.3, gg.AlignLeft)
	}

	footerY := float64(socialCardHeight) - cardInset*2 - 28
	if err := setFontFace(dc, assets.FontMedium, footerFontSize); err == nil {
		dc.SetRGB255(168, 162, 158)
		dc.DrawString(meta.ReadingTime, x, footerY)
		date := meta.Date.UTC().Format("2006-01-02")
		w, _ := dc.MeasureString(date)
		dc.DrawString(date, float64(socialCardWidth)-cardInset*2-32-w, footerY)
	}
	if err := setFontFace(dc, assets.FontBold, brandFontSize); err == nil && opts.SiteTitle != "" {
		dc.SetRGB255(251, 146, 60)
		dc.DrawStringAnchored(opts.SiteTitle, x+maxWidth/2, footerY, 0.5, 0)
	}

	return dc.Image(), nil
}

// EncodePNG writes the card as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// EncodeWebP writes the card as lossy WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: 85})
}

// LoadCover decodes a locally hosted cover from the public tree. External or
// unreadable covers return nil.
func LoadCover(publicFs afero.Fs, publicRoot, resourcePath, url string) image.Image {
	if url == "" || strings.Contains(url, "://") || !strings.HasPrefix(url, resourcePath+"/") {
		return nil
	}
	rel := filepath.FromSlash(strings.TrimPrefix(url, resourcePath+"/"))
	data, err := afero.ReadFile(publicFs, filepath.Join(publicRoot, rel))
	if err != nil {
		return nil
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		if img, err = webp.Decode(bytes.NewReader(data)); err != nil {
			return nil
		}
	}
	return img
}

// WriteSocialCard renders meta and stores it as destDir/<slug>.webp, leaving
// an identical existing file untouched.
func WriteSocialCard(destFs afero.Fs, destDir string, meta models.DocumentMeta, opts CardOptions) (bool, error) {
	img, err := SocialCard(meta, opts)
	if err != nil {
		return false, err
	}
	var buf bytes.Buffer
	if err := EncodeWebP(&buf, img); err != nil {
		return false, fmt.Errorf("encode card %s: %w", meta.Slug, err)
	}
	return utils.CopyIfChanged(destFs, filepath.Join(destDir, meta.Slug+".webp"), buf.Bytes())
}
