// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/ipgest"
	"github.com/poiesic/ipgest/config"
	"github.com/poiesic/ipgest/core"
	"github.com/urfave/cli/v2"
)

// Metadata keys holding the log destination between hooks.
const (
	logWriterKey = "log-writer"
	logFileKey   = "log-file"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	defaults := config.DefaultConfig()
	return &cli.App{
		Name:  "ipgest",
		Usage: "Extract patent grants from concatenated XML corpus files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.IntFlag{
				Name:    "verbosity",
				Aliases: []string{"v"},
				Usage:   "Set verbosity 0-3 (error, warning, info, debug); overrides --log-level",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write the log to this file instead of stderr",
			},
		},
		Before: setupLogger,
		After:  closeLogFile,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Ingest every matching corpus file into the store",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "YAML configuration file; flags override its values",
					},
					&cli.StringFlag{
						Name:    "patentroot",
						Aliases: []string{"p"},
						Usage:   "Corpus root directory",
						EnvVars: []string{"PATENTROOT"},
						Value:   defaults.Root,
					},
					&cli.StringSliceFlag{
						Name:    "directory",
						Aliases: []string{"d"},
						Usage:   "Subdirectory of the root to scan (repeatable); default is the root itself",
					},
					&cli.StringFlag{
						Name:    "xmlregex",
						Aliases: []string{"x"},
						Usage:   "Case-insensitive pattern selecting corpus files",
						Value:   defaults.Pattern,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files split concurrently (0 = one per CPU)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of fragments converted per pass",
						Value: defaults.BatchSize,
					},
					&cli.StringFlag{
						Name:  "store",
						Usage: "Store kind (badger, sqlite)",
						Value: defaults.Store.Kind,
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to the database directory (badger) or file (sqlite)",
						Value: defaults.Store.Path,
					},
				},
			},
			{
				Name:   "last-run",
				Usage:  "Show the summary of the most recent run",
				Action: lastRunCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "store",
						Usage: "Store kind (badger, sqlite)",
						Value: defaults.Store.Kind,
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "Path to the database directory (badger) or file (sqlite)",
						Value: defaults.Store.Path,
					},
				},
			},
		},
	}
}

// loadConfig builds the run configuration from the optional file and flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if c.IsSet("patentroot") || c.String("config") == "" {
		cfg.Root = c.String("patentroot")
	}
	if c.IsSet("directory") {
		cfg.Dirs = c.StringSlice("directory")
	}
	if c.IsSet("xmlregex") {
		cfg.Pattern = c.String("xmlregex")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("batch-size") {
		cfg.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("store") {
		cfg.Store.Kind = c.String("store")
	}
	if c.IsSet("db") {
		cfg.Store.Path = c.String("db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if c.String("config") != "" {
		if err := applyLogConfig(c, cfg); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(c.App.ErrWriter, "Corpus root: %s\n", cfg.Root)
	if len(cfg.Dirs) > 0 {
		fmt.Fprintf(c.App.ErrWriter, "Directories: %s\n", strings.Join(cfg.Dirs, ", "))
	}
	fmt.Fprintf(c.App.ErrWriter, "Store: %s (%s)\n", cfg.Store.Kind, cfg.Store.Path)

	// Open corpus
	corpus, err := ipgest.Open(cfg, ipgest.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to open corpus: %w", err)
	}
	defer corpus.Close()

	summary, err := corpus.Run(ctx)
	if summary != nil {
		printSummary(c.App.Writer, summary)
	}
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

func lastRunCommand(c *cli.Context) error {
	sc := config.StoreConfig{
		Kind: strings.ToLower(c.String("store")),
		Path: c.String("db"),
	}
	if sc.InMemory() {
		return errors.New("last-run needs a persistent store")
	}

	store, err := ipgest.OpenStore(sc)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	summary, err := store.LastRun(c.Context)
	if err != nil {
		return err
	}
	if summary == nil {
		fmt.Fprintln(c.App.Writer, "No runs recorded")
		return nil
	}
	printSummary(c.App.Writer, summary)
	return nil
}

func printSummary(w io.Writer, s *core.RunSummary) {
	c := s.Counters
	fmt.Fprintf(w, "Run:          %s\n", s.ID)
	fmt.Fprintf(w, "Started:      %s (%s)\n", s.Started.Format(time.RFC3339), humanize.Time(s.Started))
	fmt.Fprintf(w, "Elapsed:      %s\n", s.Elapsed().Round(time.Millisecond))
	fmt.Fprintf(w, "Files:        %s\n", humanize.Comma(c.Files))
	fmt.Fprintf(w, "Fragments:    %s\n", humanize.Comma(c.Fragments))
	fmt.Fprintf(w, "Split errors: %s\n", humanize.Comma(c.SplitErrors))
	fmt.Fprintf(w, "Built:        %s\n", humanize.Comma(c.Built))
	fmt.Fprintf(w, "Failed:       %s\n", humanize.Comma(c.Failed))
	fmt.Fprintf(w, "Inserted:     %s\n", humanize.Comma(c.Inserted))
}

// verbosityLevels maps --verbosity to a log level.
var verbosityLevels = []string{"error", "warn", "info", "debug"}

func setupLogger(c *cli.Context) error {
	var w io.Writer = c.App.ErrWriter
	if w == nil {
		w = os.Stderr
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[logWriterKey] = w
	if path := c.String("log-file"); path != "" {
		if err := openLogFile(c, path); err != nil {
			return err
		}
	}

	levelStr, err := flagLevel(c)
	if err != nil {
		return err
	}
	return configureLogger(c, levelStr)
}

// flagLevel resolves the log level from --log-level and --verbosity.
func flagLevel(c *cli.Context) (string, error) {
	levelStr := strings.ToLower(c.String("log-level"))
	if c.IsSet("verbosity") {
		v := c.Int("verbosity")
		if v < 0 || v >= len(verbosityLevels) {
			return "", fmt.Errorf("invalid verbosity %d: must be between 0 and %d", v, len(verbosityLevels)-1)
		}
		levelStr = verbosityLevels[v]
	}
	return levelStr, nil
}

// applyLogConfig honors log_level and log_file from a configuration file.
// Flags given on the command line take precedence.
func applyLogConfig(c *cli.Context, cfg *config.Config) error {
	if !c.IsSet("log-file") && cfg.LogFile != "" {
		if err := openLogFile(c, cfg.LogFile); err != nil {
			return err
		}
	}

	levelStr := cfg.LogLevel
	if c.IsSet("log-level") || c.IsSet("verbosity") {
		var err error
		if levelStr, err = flagLevel(c); err != nil {
			return err
		}
	}
	return configureLogger(c, levelStr)
}

func openLogFile(c *cli.Context, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	c.App.Metadata[logFileKey] = f
	c.App.Metadata[logWriterKey] = f
	return nil
}

// configureLogger installs a default logger at levelStr.
func configureLogger(c *cli.Context, levelStr string) error {
	// Map string to slog.Level
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	w, ok := c.App.Metadata[logWriterKey].(io.Writer)
	if !ok {
		w = os.Stderr
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func closeLogFile(c *cli.Context) error {
	if f, ok := c.App.Metadata[logFileKey].(*os.File); ok {
		delete(c.App.Metadata, logFileKey)
		return f.Close()
	}
	return nil
}
