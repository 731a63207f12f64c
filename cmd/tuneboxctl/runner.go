package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/1mb-dev/tunebox/internal/config"
	"github.com/1mb-dev/tunebox/internal/inventory"
)

// Store is the catalog storage the commands write to
type Store interface {
	AddCategory(ctx context.Context, name, categoryType string) (int64, error)
	AllCategories(ctx context.Context) ([]inventory.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*inventory.Category, error)
	AddSong(ctx context.Context, s inventory.Song, categoryIDs ...int64) (int64, error)
	GetSongByFilename(ctx context.Context, filename string) (*inventory.Song, error)
}

// Runner holds the dependencies of the catalog commands
type Runner struct {
	store     Store
	songsDir  string
	coversDir string
	output    io.Writer
	closer    io.Closer
}

// RunnerOpts configures a Runner. A nil Store is opened from config when a
// command first runs.
type RunnerOpts struct {
	Store     Store
	SongsDir  string
	CoversDir string
	Output    io.Writer
}

// NewRunner creates a Runner
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{
		store:     opts.Store,
		songsDir:  opts.SongsDir,
		coversDir: opts.CoversDir,
		output:    opts.Output,
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tuneboxctl",
		Usage:   "Manage the tunebox song catalog",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration files, later ones override earlier ones",
				Value:   []string{"config.yaml", "config.local.yaml"},
			},
		},
		Before:   r.open,
		After:    r.close,
		Commands: []*cli.Command{categoryCommand(r), songCommand(r)},
	}
}

// open loads configuration and the repository unless a store was injected
func (r *Runner) open(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.store != nil {
		return ctx, nil
	}

	cfg, err := config.Load(cmd.StringSlice("config")...)
	if err != nil {
		return ctx, fmt.Errorf("failed to load config: %w", err)
	}
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	repo, err := inventory.NewRepository(cfg.Database.Path)
	if err != nil {
		return ctx, fmt.Errorf("failed to open repository: %w", err)
	}
	r.store = repo
	r.closer = repo
	if r.songsDir == "" {
		r.songsDir = cfg.Media.SongsDir
	}
	if r.coversDir == "" {
		r.coversDir = cfg.Media.CoversDir
	}
	log.Debug("catalog opened", "db", cfg.Database.Path, "songs", r.songsDir)
	return ctx, nil
}

func (r *Runner) close(context.Context, *cli.Command) error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *Runner) writePlainln(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format+"\n", args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
