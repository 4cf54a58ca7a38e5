// Package scaffold initializes a new site in the working directory.
package scaffold

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/config"
	newpost "github.com/Kush-Singh-26/inkwell/internal/new"
)

// ConfigFile is the name of the generated site configuration.
const ConfigFile = "inkwell.yaml"

const defaultConfig = `# Site Configuration
title: "My Inkwell Site"
description: "A new site built with Inkwell"
baseURL: "http://localhost:2604"
language: "en"

author:
  name: "Author Name"
  url: "https://example.com"

postsPerPage: 10
minify: true

search:
  maxResults: 5
  fuzzy: true
  maxEditDistance: 1

embeds:
  githubPolicy: degrade
  microblogPolicy: fail
`

// Run creates the content tree, inkwell.yaml and a first post. Existing
// files are left untouched.
func Run(fsys afero.Fs, now time.Time) error {
	fmt.Println("🌱 Initializing new Inkwell project...")
	cfg := config.Default()

	for _, dir := range []string{cfg.PostsDir, cfg.TweetsDir, cfg.PublicDir} {
		if err := fsys.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		fmt.Printf("   📁 Created '%s/'\n", dir)
	}

	if ok, _ := afero.Exists(fsys, ConfigFile); !ok {
		if err := afero.WriteFile(fsys, ConfigFile, []byte(defaultConfig), 0644); err != nil {
			return fmt.Errorf("create %s: %w", ConfigFile, err)
		}
		fmt.Printf("   📄 Created '%s'\n", ConfigFile)
	} else {
		fmt.Printf("   ⚠️ '%s' already exists, skipping.\n", ConfigFile)
	}

	if ok, _ := afero.Exists(fsys, filepath.Join(cfg.PostsDir, "hello-world")); !ok {
		path, err := newpost.Create(fsys, cfg.PostsDir, "Hello World", now)
		if err != nil {
			return err
		}
		fmt.Printf("   📝 Created '%s'\n", path)
	}

	fmt.Println("\n✅ Project initialized successfully!")
	return nil
}
