package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/Kush-Singh-26/inkwell/builder/config"
	"github.com/Kush-Singh-26/inkwell/builder/logx"
	"github.com/Kush-Singh-26/inkwell/builder/run"
	"github.com/Kush-Singh-26/inkwell/builder/search"
	"github.com/Kush-Singh-26/inkwell/internal/clean"
	newpost "github.com/Kush-Singh-26/inkwell/internal/new"
	"github.com/Kush-Singh-26/inkwell/internal/scaffold"
	"github.com/Kush-Singh-26/inkwell/internal/server"
	"github.com/Kush-Singh-26/inkwell/internal/watch"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "build":
		err = run.Run(ctx, args)
	case "serve":
		err = serveCommand(ctx, args)
	case "watch":
		err = watchCommand(ctx, args, nil)
	case "clean":
		err = cleanCommand(args)
	case "new":
		err = newCommand(args)
	case "init":
		err = scaffold.Run(afero.NewOsFs(), time.Now())
	case "search":
		err = searchCommand(args)
	case "cache":
		err = cacheCommand(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: inkwell <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  init           Create inkwell.yaml and a first post")
	fmt.Println("  new <title>    Create a new blog post")
	fmt.Println("  build          Build the site artifacts")
	fmt.Println("  watch          Rebuild when content changes")
	fmt.Println("  serve          Start the preview server (--watch to rebuild)")
	fmt.Println("  search <query> Query the built search index")
	fmt.Println("  clean          Remove build output (--cache also drops caches)")
	fmt.Println("  cache stats    Show cache statistics")
	fmt.Println("  help           Show this help message")
	fmt.Println("\nCommon flags:")
	fmt.Println("  --config       Path to config file (default inkwell.yaml)")
	fmt.Println("  --workers      Number of document workers")
	fmt.Println("  --no-minify    Disable minification")
	fmt.Println("  -v, --verbose  Enable debug logging")
}

func serveCommand(ctx context.Context, args []string) error {
	var host, port string
	var rebuild bool
	cfg, _, err := config.Parse(args, func(fs *pflag.FlagSet) {
		fs.StringVar(&host, "host", "localhost", "The host/IP to bind to")
		fs.StringVar(&port, "port", "2604", "The port to listen on")
		fs.BoolVar(&rebuild, "watch", false, "Rebuild and reload on content changes")
	})
	if err != nil {
		return err
	}
	logger := logx.Init(cfg.Verbose, "")
	srv := server.New(cfg, afero.NewOsFs(), logger)

	if rebuild {
		go func() {
			if err := watchCommand(ctx, args, srv.Hub.Broadcast); err != nil {
				logger.Error("watch stopped", "error", err)
			}
		}()
	}
	return srv.Run(ctx, host+":"+port)
}

// watchCommand builds once, then rebuilds on every relevant change.
// onBuilt runs after each successful build.
func watchCommand(ctx context.Context, args []string, onBuilt func()) error {
	cfg, _, err := config.Parse(args, func(fs *pflag.FlagSet) {
		fs.String("host", "", "")
		fs.String("port", "", "")
		fs.Bool("watch", false, "")
	})
	if err != nil {
		return err
	}
	logger := logx.Init(cfg.Verbose, "")
	b, err := run.NewBuilder(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()

	build := func(ctx context.Context) {
		cfg.BuildTime = time.Now().UTC()
		if _, err := b.Build(ctx); err != nil {
			fmt.Printf("❌ Build failed: %v\n", err)
			return
		}
		if onBuilt != nil {
			onBuilt()
		}
	}
	build(ctx)

	dirs := []string{cfg.ContentDir}
	w, err := watch.New(dirs, func(ctx context.Context, paths []string) {
		fmt.Printf("🔄 Change detected: %s\n", strings.Join(paths, ", "))
		build(ctx)
	})
	if err != nil {
		return err
	}
	w.Logger = logger
	w.Filter = func(path string) bool { return run.Relevant(cfg, path) }
	return w.Run(ctx)
}

func cleanCommand(args []string) error {
	var cache bool
	cfg, _, err := config.Parse(args, func(fs *pflag.FlagSet) {
		fs.BoolVar(&cache, "cache", false, "Also remove the build caches")
	})
	if err != nil {
		return err
	}
	return clean.Run(afero.NewOsFs(), cfg, cache)
}

func newCommand(args []string) error {
	cfg, rest, err := config.Parse(args, nil)
	if err != nil {
		return err
	}
	if len(rest) < 1 {
		fmt.Println("Usage: inkwell new \"My New Post Title\"")
		return nil
	}
	path, err := newpost.Create(afero.NewOsFs(), cfg.PostsDir, strings.Join(rest, " "), time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("✅ Created: %s\n", path)
	return nil
}

func searchCommand(args []string) error {
	var limit int
	cfg, rest, err := config.Parse(args, func(fs *pflag.FlagSet) {
		fs.IntVarP(&limit, "limit", "n", 0, "Maximum number of results")
	})
	if err != nil {
		return err
	}
	if len(rest) < 1 {
		fmt.Println("Usage: inkwell search <query>")
		return nil
	}
	idx, err := search.Read(afero.NewOsFs(), cfg.SearchIndexPath())
	if err != nil {
		return fmt.Errorf("%w (run `inkwell build` first)", err)
	}

	opts := search.Options{Prefix: true, Limit: cfg.Search.MaxResults}
	if cfg.Search.Fuzzy {
		opts.Fuzzy = cfg.Search.MaxEditDistance
	}
	if limit > 0 {
		opts.Limit = limit
	}

	query := strings.Join(rest, " ")
	results := idx.Search(query, opts)
	if len(results) == 0 {
		fmt.Printf("🔍 No results for %q\n", query)
		return nil
	}
	fmt.Printf("🔍 %d result(s) for %q\n\n", len(results), query)
	for i, r := range results {
		fmt.Printf("%d. %s (%.2f)\n   %s%s\n   %s\n\n", i+1, r.Title, r.Score, cfg.BaseURL, r.URL, r.Snippet)
	}
	return nil
}
