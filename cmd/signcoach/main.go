package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ayusman/signcoach/internal/gesture"
	"github.com/ayusman/signcoach/internal/metrics"
	"github.com/ayusman/signcoach/internal/practice"
	"github.com/ayusman/signcoach/internal/server"
	"github.com/ayusman/signcoach/internal/store"
	"github.com/ayusman/signcoach/internal/templates"
)

const usage = `signcoach - sign language practice engine

Usage:
  signcoach serve    [flags]   run the HTTP and WebSocket server
  signcoach import   [flags]   copy a template library into the database
  signcoach manifest <dir>     write manifest.json for a template directory

Run "signcoach <command> -h" for the flags of a command.
`

func main() {
	log.SetFlags(log.LstdFlags)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(args)
	case "import":
		err = runImport(args)
	case "manifest":
		err = runManifest(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

// sourceFlags selects where templates are read from.
type sourceFlags struct {
	dir      string
	url      string
	maxCount int
}

func (f *sourceFlags) register(fset *flag.FlagSet) {
	fset.StringVar(&f.dir, "templates", "", "template directory laid out as <symbol>/<file>.json")
	fset.StringVar(&f.url, "templates-url", "", "base URL serving <symbol>/<file>.json")
	fset.IntVar(&f.maxCount, "max-templates", 0, "templates loaded per symbol (0: all manifest entries, 3 numbered files)")
}

// open returns the configured source. Without a directory or URL the
// database is used when st is non-nil.
func (f *sourceFlags) open(st *store.Store) (templates.Source, string, error) {
	switch {
	case f.url != "":
		src, err := templates.NewHTTPSource(f.url, nil)
		return src, f.url, err
	case f.dir != "":
		info, err := os.Stat(f.dir)
		if err != nil {
			return nil, "", err
		}
		if !info.IsDir() {
			return nil, "", fmt.Errorf("%s is not a directory", f.dir)
		}
		return templates.NewDirSource(os.DirFS(f.dir)), f.dir, nil
	case st != nil:
		return templates.NewStoreSource(st), st.Path(), nil
	}
	return nil, "", errors.New("no template source: set -templates or -templates-url")
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// newTracerProvider exports spans as JSON lines on stderr.
func newTracerProvider() (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp)), nil
}

func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "signcoach.db"
	}
	return filepath.Join(homeDir, ".signcoach", "signcoach.db")
}

func runServe(args []string) error {
	fset := flag.NewFlagSet("serve", flag.ExitOnError)
	var src sourceFlags
	src.register(fset)
	addr := fset.String("addr", ":8080", "listen address")
	dbPath := fset.String("db", defaultDBPath(), "sqlite database for samples and trained templates")
	configPath := fset.String("config", "", "JSON file overriding matching thresholds")
	jitter := fset.Bool("jitter", false, "add cosmetic noise to scores")
	staticDir := fset.String("static", "", "directory of static web files")
	prefetch := fset.Bool("prefetch", true, "load every symbol's templates at startup")
	logLevel := fset.String("log-level", "info", "log level (debug, info, warn, error)")
	traceSpans := fset.Bool("trace", false, "write template load spans to stderr")
	fset.Parse(args)

	logger, err := newLogger(*logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	repoOpts := []templates.Option{templates.WithLogger(logger)}
	if *traceSpans {
		tp, err := newTracerProvider()
		if err != nil {
			return err
		}
		defer tp.Shutdown(context.Background())
		repoOpts = append(repoOpts, templates.WithTracerProvider(tp))
	}

	cfg := gesture.DefaultConfig()
	if *configPath != "" {
		if cfg, err = gesture.LoadConfig(*configPath); err != nil {
			return err
		}
		log.Printf("Loaded matching config from %s", *configPath)
	}

	st, err := store.New(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	source, from, err := src.open(st)
	if err != nil {
		return err
	}
	log.Printf("Reading templates from %s", from)

	m := metrics.New(prometheus.NewRegistry())

	repo := templates.New(source, append(repoOpts,
		templates.WithMaxCount(src.maxCount),
		templates.WithRecorder(m),
	)...)

	opts := []gesture.Option{gesture.WithLogger(logger), gesture.WithRecorder(m)}
	if *jitter {
		opts = append(opts, gesture.WithJitter(gesture.RandomJitter(nil)))
	}
	matcher, err := gesture.NewMatcher(cfg, opts...)
	if err != nil {
		return err
	}

	coord := practice.NewCoordinator(repo, matcher, practice.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *prefetch {
		go func() {
			if err := coord.Prefetch(ctx); err != nil {
				logger.Warn("template prefetch failed", "error", err)
				return
			}
			logger.Info("templates prefetched", "templates", repo.Snapshot().Count())
		}()
	}

	if *staticDir == "" {
		*staticDir = findWebDir()
	}
	if *staticDir != "" {
		log.Printf("Serving static files from: %s", *staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: *staticDir,
		Templates: repo,
		Practice:  coord,
		Store:     st,
		Trainer:   gesture.NewTrainer(cfg),
		Metrics:   m,
		Logger:    logger,
	})

	log.Printf("Starting server on %s", *addr)
	err = srv.Run(ctx, *addr)
	coord.Wait()
	return err
}

func runImport(args []string) error {
	fset := flag.NewFlagSet("import", flag.ExitOnError)
	var src sourceFlags
	src.register(fset)
	dbPath := fset.String("db", defaultDBPath(), "sqlite database to import into")
	logLevel := fset.String("log-level", "info", "log level (debug, info, warn, error)")
	fset.Parse(args)

	logger, err := newLogger(*logLevel)
	if err != nil {
		return err
	}

	// The database is the destination, never the source.
	source, from, err := src.open(nil)
	if err != nil {
		return err
	}

	st, err := store.New(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := templates.Import(ctx, source, st, templates.DefaultVocabulary(), src.maxCount, logger)
	if err != nil {
		return err
	}

	log.Printf("Imported %d templates for %d symbols from %s into %s (%d skipped)",
		report.Imported, report.Symbols, from, st.Path(), report.Skipped)
	return nil
}

func runManifest(args []string) error {
	fset := flag.NewFlagSet("manifest", flag.ExitOnError)
	fset.Parse(args)

	if fset.NArg() != 1 {
		return errors.New("usage: signcoach manifest <dir>")
	}
	dir := fset.Arg(0)

	m, err := templates.WriteManifest(dir)
	if err != nil {
		return err
	}

	var files int
	for _, names := range m {
		files += len(names)
	}
	log.Printf("Wrote %s with %d files for %d symbols", filepath.Join(dir, templates.ManifestFile), files, len(m))
	return nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.signcoach/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if isDir(p) {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".signcoach", "web")
	if isDir(homeWebDir) {
		return homeWebDir
	}
	return ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
