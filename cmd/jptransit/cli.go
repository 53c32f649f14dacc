package main

import (
	"context"
	"io"
	"log/slog"

	jptransit "github.com/anhlt/jp-transit-search"
	"github.com/anhlt/jp-transit-search/config"
	"github.com/anhlt/jp-transit-search/crawl"
	"github.com/anhlt/jp-transit-search/search"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Config *config.Config
	Logger *slog.Logger

	Stations jptransit.StationStore
	States   jptransit.StateStore

	// Crawler is wired for the crawl command only.
	Crawler *crawl.Crawler

	// Index is built from the stored stations for the read commands.
	Index *search.Index
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	ConfigPath string `name:"config" short:"c" help:"Path to a YAML config file"`
	Data       string `help:"Data directory override"`
	SQLite     bool   `help:"Store stations in SQLite instead of CSV"`
	Verbose    bool   `short:"v" help:"Enable debug logging"`

	Crawl       CrawlCmd       `cmd:"" help:"Crawl the source site and build the station directory"`
	Search      SearchCmd      `cmd:"" help:"Search stations by name in kanji, kana, or romaji"`
	List        ListCmd        `cmd:"" help:"List stored stations"`
	Prefectures PrefecturesCmd `cmd:"" help:"List prefectures with stored stations"`
	Info        InfoCmd        `cmd:"" help:"Show directory statistics"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Resume   bool `short:"r" help:"Resume from the saved checkpoint"`
	MaxLines int  `help:"Cap lines walked per prefecture (0 = no cap)"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query string `arg:"" help:"Station name in any script"`
	Exact bool   `short:"e" xor:"mode" help:"Literal name matches only"`
	Fuzzy bool   `short:"f" xor:"mode" help:"Force edit-distance matching"`
	Limit int    `short:"n" default:"10" help:"Maximum results"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Prefecture string `short:"p" help:"Filter by prefecture name"`
	Line       string `short:"l" help:"Filter by line name"`
	Limit      int    `short:"n" help:"Maximum rows (0 = all)"`
}

// PrefecturesCmd is the "prefectures" subcommand.
type PrefecturesCmd struct{}

// InfoCmd is the "info" subcommand.
type InfoCmd struct{}
