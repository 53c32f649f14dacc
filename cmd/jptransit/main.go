// Command jptransit crawls the source transit site into a station
// directory and searches it across kanji, kana, and romaji.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"

	jptransit "github.com/anhlt/jp-transit-search"
	"github.com/anhlt/jp-transit-search/config"
	"github.com/anhlt/jp-transit-search/crawl"
	"github.com/anhlt/jp-transit-search/csv"
	"github.com/anhlt/jp-transit-search/fs"
	"github.com/anhlt/jp-transit-search/goquery"
	jphttp "github.com/anhlt/jp-transit-search/http"
	"github.com/anhlt/jp-transit-search/kana"
	"github.com/anhlt/jp-transit-search/search"
	jpslog "github.com/anhlt/jp-transit-search/slog"
	"github.com/anhlt/jp-transit-search/sqlite"
)

func main() {
	// Ctrl-C cancels the context; the crawler checkpoints before exiting.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()
	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database, open only when the SQLite store is selected.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("jptransit"),
		kong.Description("Japanese railway station directory: crawl and multi-script search."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'jptransit --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		return err
	}
	if cli.Data != "" {
		cfg.DataDir = cli.Data
	}
	if cli.SQLite {
		cfg.UseSQLite = true
	}
	if cli.Verbose {
		cfg.Verbose = true
	}
	deps.Config = cfg

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %q: %w", cfg.DataDir, err)
	}

	var stations jptransit.StationStore
	if cfg.UseSQLite {
		m.DB = sqlite.NewDB(cfg.DatabasePath())
		if err := m.DB.Open(); err != nil {
			return fmt.Errorf("failed to open database at %q: %w", cfg.DatabasePath(), err)
		}
		defer m.Close()
		stations = sqlite.NewStationService(m.DB)
	} else {
		stations = csv.NewStore(cfg.StationsCSVPath())
	}
	deps.Stations = jpslog.NewLoggingStationStore(stations, deps.Logger)
	deps.States = fs.NewStateStore(cfg.StateFilePath())

	cmd := strings.Fields(kongCtx.Command())[0]
	if cmd == "crawl" {
		fetcher := jpslog.NewLoggingFetcher(
			jphttp.NewFetcher(jphttp.WithTimeout(cfg.Timeout)),
			deps.Logger,
		)
		defer fetcher.Close()

		deps.Crawler = &crawl.Crawler{
			Fetcher:               fetcher,
			Extractor:             goquery.NewExtractor(),
			Converter:             kana.Default(),
			Stations:              deps.Stations,
			States:                deps.States,
			BaseURL:               cfg.BaseURL,
			Throttle:              crawl.NewThrottle(cfg.LineDelay, cfg.DetailDelay),
			BatchSize:             cfg.BatchSize,
			MaxLinesPerPrefecture: cfg.MaxLinesPerPrefecture,
			Logger:                deps.Logger,
		}
		return kongCtx.Run(deps)
	}

	// Read commands work off an index over the stored stations.
	loaded, err := deps.Stations.LoadAll(ctx)
	if err != nil {
		return err
	}
	deps.Index, err = search.NewIndex(ctx, loaded, search.Config{
		Converter:      kana.Default(),
		Scorer:         search.LevenshteinScorer{},
		FuzzyThreshold: cfg.FuzzyThreshold,
	})
	if err != nil {
		return err
	}

	return kongCtx.Run(deps)
}
