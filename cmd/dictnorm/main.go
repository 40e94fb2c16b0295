// Command dictnorm converts scraped dictionary tables into normalized entry
// records, and builds and queries the stores and search index made from them.
//
// Configuration comes from config.yaml (or CONFIG_PATH), the environment and
// a .env file; flags override both.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/heartmarshall/dictnorm/internal/adapter/ndjson"
	"github.com/heartmarshall/dictnorm/internal/app"
	"github.com/heartmarshall/dictnorm/internal/app/corpus"
	"github.com/heartmarshall/dictnorm/internal/app/importer"
	"github.com/heartmarshall/dictnorm/internal/config"
	"github.com/heartmarshall/dictnorm/internal/search"
	"github.com/heartmarshall/dictnorm/pkg/ctxutil"
)

// CLI defines the command-line interface.
type CLI struct {
	Config   string `name:"config" short:"c" help:"Path to YAML config file" type:"path" env:"CONFIG_PATH"`
	LogLevel string `name:"log-level" help:"Override log level (debug, info, warn, error)"`

	Convert ConvertCmd `cmd:"" help:"Convert a dictionary table into entry records"`
	Merge   MergeCmd   `cmd:"" help:"Merge per-source ndjson dictionaries into one corpus"`
	Index   IndexCmd   `cmd:"" help:"Build the search index from ndjson corpora"`
	Search  SearchCmd  `cmd:"" help:"Query the search index"`
	Lookup  LookupCmd  `cmd:"" help:"Look a headword up in the configured store"`
	Migrate MigrateCmd `cmd:"" help:"Apply schema migrations to the configured store"`
	Serve   ServeCmd   `cmd:"" help:"Serve lookup and search over GraphQL"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// env is what every command runs with.
type env struct {
	ctx context.Context
	cfg *config.Config
	log *slog.Logger
}

func (c *CLI) env(ctx context.Context) (*env, error) {
	cfg, err := config.LoadFrom(c.Config, c.Config != "")
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	ctx, runID := ctxutil.EnsureRunID(ctx)
	log := app.NewLogger(cfg.Log).With(slog.String("run_id", runID))
	return &env{ctx: ctx, cfg: cfg, log: log}, nil
}

// ConvertCmd runs one table through the import pipeline.
type ConvertCmd struct {
	Input       string `arg:"" help:"Tab-separated table (.xz accepted)" type:"existingfile"`
	Layout      string `help:"Table layout (${layouts})"`
	Source      string `help:"Source tag written to every record"`
	Driver      string `help:"Store driver (ndjson, postgres, sqlite)"`
	Out         string `short:"o" help:"Store path for the ndjson and sqlite drivers" type:"path"`
	Diagnostics string `help:"Diagnostics file, '-' for stderr"`
	BatchSize   int    `help:"Entries per store write"`
	DryRun      bool   `help:"Convert without writing to the store"`
}

func (c *ConvertCmd) Run(e *env) error {
	// CLI flags override config.
	cfg := e.cfg
	setString(&cfg.Import.Layout, c.Layout)
	setString(&cfg.Import.SourceTag, c.Source)
	setString(&cfg.Store.Driver, c.Driver)
	setString(&cfg.Store.Path, c.Out)
	setString(&cfg.Import.DiagnosticsPath, c.Diagnostics)
	if c.BatchSize > 0 {
		cfg.Import.BatchSize = c.BatchSize
	}
	if c.DryRun {
		cfg.Import.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	res, err := app.Convert(e.ctx, cfg, e.log, c.Input)
	if err != nil {
		return err
	}
	fmt.Printf("rows=%d entries=%d inserted=%d skipped=%d diagnostics=%d digest=%s\n",
		res.Rows, len(res.Entries), res.Inserted, res.Skipped, len(res.Diagnostics), res.InputDigest)
	return nil
}

// MergeCmd rewrites a directory of per-source dictionaries as one corpus.
type MergeCmd struct {
	Dir string `arg:"" help:"Directory of <source>.ndjson files" type:"existingdir"`
	Out string `short:"o" help:"Output file (default stdout)" type:"path"`
}

func (c *MergeCmd) Run(e *env) error {
	conv, err := app.NewConverter(e.cfg.Script)
	if err != nil {
		return err
	}

	out := os.Stdout
	if c.Out != "" {
		f, err := os.Create(c.Out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	stats, err := corpus.Merge(e.ctx, c.Dir, out, conv)
	if err != nil {
		return err
	}
	e.log.Info("merge completed", slog.Int("files", stats.Files), slog.Int("entries", stats.Entries))
	return nil
}

// IndexCmd (re)builds the search index.
type IndexCmd struct {
	Inputs    []string `arg:"" help:"ndjson corpus files or directories of them" type:"path"`
	Path      string   `help:"Index directory" type:"path"`
	BatchSize int      `help:"Documents per index batch"`
}

func (c *IndexCmd) Run(e *env) error {
	setString(&e.cfg.Index.Path, c.Path)
	if c.BatchSize > 0 {
		e.cfg.Index.BatchSize = c.BatchSize
	}

	var paths []string
	for _, in := range c.Inputs {
		fi, err := os.Stat(in)
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			paths = append(paths, in)
			continue
		}
		files, err := corpus.Files(in)
		if err != nil {
			return err
		}
		paths = append(paths, files...)
	}

	ix, err := search.Create(e.cfg.Index.Path, e.log, e.cfg.Index.BatchSize)
	if err != nil {
		return err
	}
	defer ix.Close()

	n, err := ix.Build(e.ctx, paths)
	if err != nil {
		return err
	}
	e.log.Info("index completed", slog.String("path", e.cfg.Index.Path), slog.Int("entries", n))
	return nil
}

// SearchCmd queries the index.
type SearchCmd struct {
	Query      []string `arg:"" help:"Words, readings or meanings to search for"`
	Source     string   `help:"Only match this source tag"`
	Limit      int      `default:"25" help:"Maximum number of hits"`
	Offset     int      `help:"Hits to skip"`
	Homophones bool     `help:"Find entries read like the query characters"`
	Path       string   `help:"Index directory" type:"path"`
}

func (c *SearchCmd) Run(e *env) error {
	setString(&e.cfg.Index.Path, c.Path)

	ix, err := search.Open(e.cfg.Index.Path, e.log)
	if err != nil {
		return err
	}
	defer ix.Close()

	q := strings.Join(c.Query, " ")
	find := ix.Search
	if c.Homophones {
		find = ix.Homophones
	}
	res, err := find(q, c.Source, c.Limit, c.Offset)
	if err != nil {
		return err
	}

	fmt.Printf("%d results for %q\n", res.Total, q)
	for _, h := range res.Hits {
		var readings, meanings []string
		for _, d := range h.Entry.Definitions {
			readings = append(readings, d.Readings...)
			meanings = append(meanings, d.Meanings...)
		}
		fmt.Printf("%s\t%s\t%s\n", h.ID, strings.Join(readings, ", "), strings.Join(meanings, "; "))
	}
	return nil
}

// LookupCmd prints the stored records of a headword as ndjson.
type LookupCmd struct {
	Headword string `arg:"" help:"Headword or script variant"`
	Source   string `help:"Only match this source tag"`
}

func (c *LookupCmd) Run(e *env) error {
	store, err := app.OpenStore(e.ctx, e.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Finder.FindByHeadword(e.ctx, c.Headword, c.Source)
	if err != nil {
		return err
	}

	out := ndjson.NewStore(os.Stdout)
	if _, err := out.AppendEntries(e.ctx, entries); err != nil {
		return err
	}
	return out.Close()
}

// MigrateCmd applies pending migrations.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(e *env) error {
	n, err := app.Migrate(e.ctx, e.cfg)
	if err != nil {
		return err
	}
	e.log.Info("migrations applied", slog.String("driver", e.cfg.Store.Driver), slog.Int("count", n))
	return nil
}

// ServeCmd runs the GraphQL query server until interrupted.
type ServeCmd struct {
	Port      int    `help:"Listen port"`
	IndexPath string `name:"index" help:"Index directory" type:"path"`
}

func (c *ServeCmd) Run(e *env) error {
	if c.Port > 0 {
		e.cfg.Server.Port = c.Port
	}
	setString(&e.cfg.Index.Path, c.IndexPath)
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	return app.Serve(e.ctx, e.cfg, e.log)
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println("dictnorm", app.BuildVersion())
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("dictnorm"),
		kong.Description("Dictionary table normalizer"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"layouts": strings.Join(importer.LayoutNames(), ", ")},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if kctx.Command() == "version" {
		err = kctx.Run()
	} else {
		var e *env
		e, err = cli.env(ctx)
		if err == nil {
			err = kctx.Run(e)
		}
	}
	kctx.FatalIfErrorf(err)
}
