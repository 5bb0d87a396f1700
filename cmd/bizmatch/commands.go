package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/bizmatch"
	"github.com/poiesic/bizmatch/config"
	"github.com/poiesic/bizmatch/core"
	"github.com/poiesic/bizmatch/corpus"
	"github.com/poiesic/bizmatch/search"
	"github.com/poiesic/bizmatch/server"
	"github.com/poiesic/bizmatch/source"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var errNoCorpus = errors.New("no corpus snapshot stored; run 'bizmatch build' or pass --source")

// loadConfig reads the configuration file and environment, then applies
// any flags set on the command line.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("db") {
		cfg.Corpus.DB = c.String("db")
	}
	if c.IsSet("source") {
		cfg.Corpus.Source = c.String("source")
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("batch-size") {
		cfg.Embedding.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("top-n") {
		cfg.Search.TopN = c.Int("top-n")
	}
	if c.IsSet("exclude-threshold") {
		cfg.Search.ExcludeThreshold = c.Float64("exclude-threshold")
	}
	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("watch") {
		cfg.Server.Watch = c.Bool("watch")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openIndex opens the snapshot store. With showProgress set, embedding
// progress is drawn on stderr when it is a terminal.
func openIndex(cfg *config.Config, showProgress bool) (*bizmatch.Index, error) {
	opts, err := bizmatch.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if showProgress && term.IsTerminal(int(os.Stderr.Fd())) {
		opts = append(opts, bizmatch.WithBuilderOptions(corpus.WithProgress(os.Stderr)))
	}

	ix, err := bizmatch.NewIndex(cfg.Corpus.DB, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return ix, nil
}

// prepareIndex installs a snapshot: refreshed from the source when one is
// configured, otherwise loaded from the store.
func prepareIndex(ctx context.Context, ix *bizmatch.Index, cfg *config.Config) error {
	if cfg.Corpus.Source != "" {
		entities, err := source.ReadFile(cfg.Corpus.Source)
		if err != nil {
			return err
		}
		_, err = ix.Refresh(ctx, entities)
		return err
	}

	loaded, err := ix.Open(ctx)
	if err != nil {
		return err
	}
	if !loaded {
		return errNoCorpus
	}
	return nil
}

func buildCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Corpus.Source == "" {
		return fmt.Errorf("source is required: pass --source or set corpus.source")
	}

	entities, err := source.ReadFile(cfg.Corpus.Source)
	if err != nil {
		return err
	}

	ix, err := openIndex(cfg, true)
	if err != nil {
		return err
	}
	defer ix.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Corpus.DB)
	fmt.Fprintf(os.Stderr, "Source: %s (%d companies)\n", cfg.Corpus.Source, len(entities))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(os.Stderr)

	var result *bizmatch.RefreshResult
	if c.Bool("force") {
		result, err = ix.Rebuild(ctx, entities)
	} else {
		result, err = ix.Refresh(ctx, entities)
	}
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printRefresh(os.Stdout, result)
	return nil
}

func queryRequest(c *cli.Context, cfg *config.Config) (search.Request, error) {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return search.Request{}, fmt.Errorf("a query is required: %w", core.ErrEmptyQuery)
	}
	return search.Request{
		Query:            query,
		TopN:             cfg.Search.TopN,
		Exclude:          c.StringSlice("exclude"),
		ExcludeThreshold: cfg.Search.ExcludeThreshold,
	}, nil
}

func runQuery(c *cli.Context) ([]core.RankedResult, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	req, err := queryRequest(c, cfg)
	if err != nil {
		return nil, err
	}

	ix, err := openIndex(cfg, true)
	if err != nil {
		return nil, err
	}
	defer ix.Close()

	if err := prepareIndex(c.Context, ix, cfg); err != nil {
		return nil, err
	}
	return ix.SearchWithRequest(c.Context, req)
}

func searchCommand(c *cli.Context) error {
	format := c.String("format")
	if format != "text" && format != "json" && format != "csv" {
		return fmt.Errorf("invalid format %q: must be one of text, json, csv", format)
	}

	results, err := runQuery(c)
	if err != nil {
		return err
	}
	return writeResults(os.Stdout, format, results)
}

func exportCommand(c *cli.Context) error {
	results, err := runQuery(c)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if err := writeResults(w, "csv", results); err != nil {
		return err
	}
	if c.String("output") != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d results to %s\n", len(results), c.String("output"))
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ix, err := openIndex(cfg, false)
	if err != nil {
		return err
	}
	defer ix.Close()

	loaded, err := ix.Open(c.Context)
	if err != nil {
		return err
	}
	if !loaded {
		fmt.Fprintln(os.Stdout, "No corpus snapshot stored.")
		return nil
	}

	snapshot := ix.Snapshot()
	printSnapshot(os.Stdout, snapshot)
	for _, id := range c.StringSlice("entity") {
		printEntityStatus(os.Stdout, id, snapshot.Status(id))
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ix, err := openIndex(cfg, false)
	if err != nil {
		return err
	}
	defer ix.Close()

	if err := prepareIndex(ctx, ix, cfg); err != nil {
		return err
	}

	srv, err := server.New(ix, server.WithDefaultTopN(cfg.Search.TopN))
	if err != nil {
		return err
	}

	if cfg.Server.Watch {
		go func() {
			if err := ix.WatchSource(ctx, cfg.Corpus.Source, bizmatch.DefaultWatchDebounce); err != nil {
				fmt.Fprintf(os.Stderr, "watch stopped: %v\n", err)
			}
		}()
	}

	return srv.Run(ctx, cfg.Server.Addr)
}
