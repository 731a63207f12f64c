package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/1mb-dev/tunebox/internal/audio"
	"github.com/1mb-dev/tunebox/internal/inventory"
)

// catalogSong probes a file in the songs directory and stores it with its
// categories. Explicit title and artist win over tag metadata.
func (r *Runner) catalogSong(ctx context.Context, filename, title, artist, cover string, categories []inventory.Category) (int64, error) {
	md, err := audio.Probe(filepath.Join(r.songsDir, filename))
	if err != nil {
		return 0, err
	}
	if title != "" {
		md.Title = title
	}
	if artist != "" {
		md.Artist = artist
	}

	ids := make([]int64, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	return r.store.AddSong(ctx, inventory.Song{
		Title:         md.Title,
		Artist:        md.Artist,
		Filename:      filename,
		CoverFilename: cover,
		Duration:      md.Duration,
	}, ids...)
}

func (r *Runner) isCatalogued(ctx context.Context, filename string) (bool, error) {
	existing, err := r.store.GetSongByFilename(ctx, filename)
	return existing != nil, err
}

// AddSong catalogues one file that already lives in the songs directory
func (r *Runner) AddSong(ctx context.Context, cmd *cli.Command) error {
	filename := filepath.Base(cmd.String("file"))
	if !audio.IsAudioFile(filename) {
		return fmt.Errorf("%q is not a supported audio file", filename)
	}
	if _, err := os.Stat(filepath.Join(r.songsDir, filename)); err != nil {
		return fmt.Errorf("song must be in %s: %w", r.songsDir, err)
	}

	cover := ""
	if c := cmd.String("cover"); c != "" {
		cover = filepath.Base(c)
		if _, err := os.Stat(filepath.Join(r.coversDir, cover)); err != nil {
			log.Warn("cover not found in covers dir", "cover", cover, "dir", r.coversDir)
		}
	}

	catalogued, err := r.isCatalogued(ctx, filename)
	if err != nil {
		return err
	}
	if catalogued {
		return fmt.Errorf("%q is already catalogued", filename)
	}

	categories, err := r.resolveCategories(ctx, cmd.StringSlice("category"))
	if err != nil {
		return err
	}

	id, err := r.catalogSong(ctx, filename,
		strings.TrimSpace(cmd.String("title")), strings.TrimSpace(cmd.String("artist")), cover, categories)
	if err != nil {
		return err
	}
	return r.writePlainln("✓ Added %s (id %d)", filename, id)
}

// ImportSongs catalogues every audio file in the songs directory, in name
// order, that is not already known. Cover art is not imported. Only
// media.songs_dir is scanned since the server serves songs from there.
func (r *Runner) ImportSongs(ctx context.Context, cmd *cli.Command) error {
	entries, err := os.ReadDir(r.songsDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", r.songsDir, err)
	}

	categories, err := r.resolveCategories(ctx, cmd.StringSlice("category"))
	if err != nil {
		return err
	}

	var added, skipped int
	for _, e := range entries {
		if e.IsDir() || !audio.IsAudioFile(e.Name()) {
			continue
		}
		catalogued, err := r.isCatalogued(ctx, e.Name())
		if err != nil {
			return err
		}
		if catalogued {
			skipped++
			continue
		}

		id, err := r.catalogSong(ctx, e.Name(), "", "", "", categories)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", e.Name(), err)
		}
		log.Info("imported song", "file", e.Name(), "song_id", id)
		added++
	}

	return r.writePlainln("✓ Imported %d songs (%d already catalogued)", added, skipped)
}

func newCategoryFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "category",
		Usage: "Category to tag the song with (repeatable)",
	}
}

func songCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "song",
		Usage: "Catalogue audio files",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Catalogue a file from the songs directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Audio file name", Required: true},
					&cli.StringFlag{Name: "title", Usage: "Title (defaults to tag, then file name)"},
					&cli.StringFlag{Name: "artist", Usage: "Artist (defaults to tag)"},
					&cli.StringFlag{Name: "cover", Usage: "Cover image file name in the covers directory"},
					newCategoryFlag(),
				},
				Action: r.AddSong,
			},
			{
				Name:  "import",
				Usage: "Catalogue every new audio file in media.songs_dir",
				Flags: []cli.Flag{
					newCategoryFlag(),
				},
				Action: r.ImportSongs,
			},
		},
	}
}
