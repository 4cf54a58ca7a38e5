// Package config loads site and build settings from inkwell.yaml and CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// FetchPolicy decides what happens when a rich-link provider cannot reach its API.
type FetchPolicy string

const (
	// PolicyFail aborts the compile of the document that referenced the link.
	PolicyFail FetchPolicy = "fail"
	// PolicyDegrade logs the failure and keeps the plain link.
	PolicyDegrade FetchPolicy = "degrade"
)

type Author struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Generators struct {
	RSS      bool `yaml:"rss"`
	Sitemap  bool `yaml:"sitemap"`
	Search   bool `yaml:"search"`
	Snapshot bool `yaml:"snapshot"`
	Social   bool `yaml:"social"`
	Robots   bool `yaml:"robots"`
	Manifest bool `yaml:"manifest"`
	Bundles  bool `yaml:"bundles"`
}

type Features struct {
	Generators Generators `yaml:"generators"`
}

type SearchConfig struct {
	MaxResults      int  `yaml:"maxResults"`
	Fuzzy           bool `yaml:"fuzzy"`
	MaxEditDistance int  `yaml:"maxEditDistance"`
}

type EmbedConfig struct {
	GitHubAPI        string      `yaml:"githubAPI"`
	GitHubToken      string      `yaml:"-"`
	GitHubPolicy     FetchPolicy `yaml:"githubPolicy"`
	MicroblogBaseURL string      `yaml:"microblogBaseURL"`
	SyndicationURL   string      `yaml:"syndicationURL"`
	MicroblogPolicy  FetchPolicy `yaml:"microblogPolicy"`
}

type Config struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	BaseURL     string `yaml:"baseURL"`
	Language    string `yaml:"language"`
	ThemeColor  string `yaml:"themeColor"`
	Author      Author `yaml:"author"`

	ContentDir     string `yaml:"contentDir"`
	PostsDir       string `yaml:"postsDir"`
	TweetsDir      string `yaml:"tweetsDir"`
	PublicDir      string `yaml:"publicDir"`
	PostsPublicDir string `yaml:"postsPublicDir"`
	ResourcePath   string `yaml:"resourcePath"`
	GeneratedDir   string `yaml:"generatedDir"`
	CacheDir       string `yaml:"cacheDir"`

	PostsPerPage int           `yaml:"postsPerPage"`
	Workers      int           `yaml:"workers"`
	HTTPTimeout  time.Duration `yaml:"httpTimeout"`
	Minify       bool          `yaml:"minify"`
	Verbose      bool          `yaml:"verbose"`

	Search   SearchConfig `yaml:"search"`
	Embeds   EmbedConfig  `yaml:"embeds"`
	Features Features     `yaml:"features"`

	// Set once per process; used as the last-modification fallback.
	BuildTime  time.Time `yaml:"-"`
	ConfigFile string    `yaml:"-"`
}

// Default returns the configuration used when no file or flag overrides it.
func Default() *Config {
	return &Config{
		Title:          "Inkwell",
		Description:    "Notes on software",
		BaseURL:        "http://localhost:2604",
		Language:       "en",
		ThemeColor:     "#2e3440",
		ContentDir:     "content",
		PostsDir:       filepath.Join("content", "posts"),
		TweetsDir:      filepath.Join("content", "tweets"),
		PublicDir:      "public",
		PostsPublicDir: filepath.Join("public", "posts"),
		ResourcePath:   "/posts",
		GeneratedDir:   ".generated",
		CacheDir:       ".inkwell-cache",
		PostsPerPage:   10,
		Workers:        0,
		HTTPTimeout:    10 * time.Second,
		Minify:         true,
		Search: SearchConfig{
			MaxResults:      5,
			MaxEditDistance: 1,
		},
		Embeds: EmbedConfig{
			GitHubAPI:        "https://api.github.com/graphql",
			GitHubPolicy:     PolicyDegrade,
			MicroblogBaseURL: "https://twitter.com",
			SyndicationURL:   "https://cdn.syndication.twimg.com",
			MicroblogPolicy:  PolicyFail,
		},
		Features: Features{
			Generators: Generators{
				RSS:      true,
				Sitemap:  true,
				Search:   true,
				Snapshot: true,
				Social:   true,
				Robots:   true,
				Manifest: true,
				Bundles:  true,
			},
		},
	}
}

// Load builds the config from defaults, inkwell.yaml (or config.yaml), flags and env.
func Load(args []string) (*Config, error) {
	cfg, _, err := Parse(args, nil)
	return cfg, err
}

// Parse is Load for commands with their own flags: extra registers them on
// the shared flag set, and the positional arguments are returned.
func Parse(args []string, extra func(fs *pflag.FlagSet)) (*Config, []string, error) {
	cfg := Default()

	fs := pflag.NewFlagSet("inkwell", pflag.ContinueOnError)
	configFile := fs.String("config", "", "Path to config file (default inkwell.yaml)")
	baseURL := fs.String("baseurl", "", "Override the site base URL")
	contentDir := fs.String("content", "", "Content root directory")
	publicDir := fs.String("public", "", "Public output directory")
	workers := fs.Int("workers", -1, "Number of document workers (0 = NumCPU)")
	timeout := fs.Duration("timeout", 0, "HTTP timeout for rich-link providers")
	maxResults := fs.Int("max-results", 0, "Maximum number of search results")
	noMinify := fs.Bool("no-minify", false, "Disable HTML and artifact minification")
	verbose := fs.BoolP("verbose", "v", false, "Enable debug logging")
	githubPolicy := fs.String("github-policy", "", "GitHub fetch failure policy: fail or degrade")
	microblogPolicy := fs.String("microblog-policy", "", "Microblog fetch failure policy: fail or degrade")
	if extra != nil {
		extra(fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parse flags: %w", err)
	}

	path := *configFile
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				fmt.Printf("⚠️  Invalid %s, using defaults: %v\n", path, err)
				cfg = Default()
			} else {
				cfg.ConfigFile = path
			}
		} else if *configFile != "" {
			return nil, nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *contentDir != "" {
		cfg.ContentDir = *contentDir
		cfg.PostsDir = filepath.Join(*contentDir, "posts")
		cfg.TweetsDir = filepath.Join(*contentDir, "tweets")
	}
	if *publicDir != "" {
		cfg.PublicDir = *publicDir
		cfg.PostsPublicDir = filepath.Join(*publicDir, "posts")
	}
	if *workers >= 0 {
		cfg.Workers = *workers
	}
	if *timeout > 0 {
		cfg.HTTPTimeout = *timeout
	}
	if *maxResults > 0 {
		cfg.Search.MaxResults = *maxResults
	}
	if *noMinify {
		cfg.Minify = false
	}
	if *verbose {
		cfg.Verbose = true
	}
	if *githubPolicy != "" {
		cfg.Embeds.GitHubPolicy = FetchPolicy(*githubPolicy)
	}
	if *microblogPolicy != "" {
		cfg.Embeds.MicroblogPolicy = FetchPolicy(*microblogPolicy)
	}

	cfg.Embeds.GitHubToken = os.Getenv("GITHUB_TOKEN")
	cfg.BuildTime = time.Now().UTC()
	cfg.validate()

	return cfg, fs.Args(), nil
}

func findConfigFile() string {
	for _, name := range []string{"inkwell.yaml", "config.yaml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// validate clamps values into workable ranges.
func (c *Config) validate() {
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if !strings.HasPrefix(c.ResourcePath, "/") {
		c.ResourcePath = "/" + c.ResourcePath
	}
	c.ResourcePath = strings.TrimSuffix(c.ResourcePath, "/")

	if c.PostsPerPage < 1 {
		c.PostsPerPage = 1
	}
	if c.Workers < 0 {
		c.Workers = 0
	}
	if c.Workers > 64 {
		c.Workers = 64
	}
	if c.HTTPTimeout < time.Second {
		c.HTTPTimeout = time.Second
	}
	if c.HTTPTimeout > 2*time.Minute {
		c.HTTPTimeout = 2 * time.Minute
	}

	if c.Search.MaxResults < 1 {
		c.Search.MaxResults = 1
	}
	if c.Search.MaxResults > 100 {
		c.Search.MaxResults = 100
	}
	if c.Search.MaxEditDistance < 0 {
		c.Search.MaxEditDistance = 0
	}
	if c.Search.MaxEditDistance > 2 {
		c.Search.MaxEditDistance = 2
	}

	c.Embeds.GitHubPolicy = normalizePolicy(c.Embeds.GitHubPolicy, PolicyDegrade)
	c.Embeds.MicroblogPolicy = normalizePolicy(c.Embeds.MicroblogPolicy, PolicyFail)
	c.Embeds.MicroblogBaseURL = strings.TrimSuffix(c.Embeds.MicroblogBaseURL, "/")
	c.Embeds.SyndicationURL = strings.TrimSuffix(c.Embeds.SyndicationURL, "/")
}

func normalizePolicy(p FetchPolicy, fallback FetchPolicy) FetchPolicy {
	switch FetchPolicy(strings.ToLower(string(p))) {
	case PolicyFail:
		return PolicyFail
	case PolicyDegrade:
		return PolicyDegrade
	default:
		return fallback
	}
}

// SnapshotPath is where the body-less metadata artifact is written.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.GeneratedDir, "Post", "withoutbody.json")
}

// SearchIndexPath is where the serialized search index is written.
func (c *Config) SearchIndexPath() string {
	return filepath.Join(c.GeneratedDir, "Post", "search-index.json")
}
