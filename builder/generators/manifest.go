package generators

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/config"
	"github.com/Kush-Singh-26/inkwell/builder/utils"
)

// IconSizes are the square icon sizes derived from the favicon.
var IconSizes = []int{192, 512}

// ManifestIcon is one entry of the manifest icons list.
type ManifestIcon struct {
	Src     string `json:"src"`
	Sizes   string `json:"sizes"`
	Type    string `json:"type"`
	Purpose string `json:"purpose"`
}

type webManifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description"`
	StartURL        string         `json:"start_url"`
	Scope           string         `json:"scope"`
	ID              string         `json:"id"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []ManifestIcon `json:"icons"`
}

// Manifest renders site.webmanifest.
func Manifest(cfg *config.Config, icons []ManifestIcon) ([]byte, error) {
	if icons == nil {
		icons = []ManifestIcon{}
	}
	data, err := json.MarshalIndent(webManifest{
		Name:            cfg.Title,
		ShortName:       cfg.Title,
		Description:     cfg.Description,
		StartURL:        "/",
		Scope:           "/",
		ID:              "/",
		Display:         "standalone",
		BackgroundColor: cfg.ThemeColor,
		ThemeColor:      cfg.ThemeColor,
		Icons:           icons,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

// PWAIcons resizes the favicon at srcPath into destDir/icon-<size>.png and
// returns their manifest entries. A missing favicon yields no icons.
func PWAIcons(srcFs afero.Fs, srcPath string, destFs afero.Fs, destDir, urlPrefix string) ([]ManifestIcon, error) {
	data, err := afero.ReadFile(srcFs, srcPath)
	if err != nil {
		return nil, nil
	}
	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode favicon %s: %w", srcPath, err)
	}

	var icons []ManifestIcon
	for _, size := range IconSizes {
		name := fmt.Sprintf("icon-%d.png", size)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, imaging.Resize(src, size, size, imaging.Lanczos), imaging.PNG); err != nil {
			return nil, err
		}
		if _, err := utils.CopyIfChanged(destFs, filepath.Join(destDir, name), buf.Bytes()); err != nil {
			return nil, err
		}
		for _, purpose := range []string{"any", "maskable"} {
			icons = append(icons, ManifestIcon{
				Src:     urlPrefix + "/" + name,
				Sizes:   fmt.Sprintf("%dx%d", size, size),
				Type:    "image/png",
				Purpose: purpose,
			})
		}
	}
	return icons, nil
}
