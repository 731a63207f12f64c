package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/1mb-dev/tunebox/internal/inventory"
)

// AddCategory creates a language or genre category
func (r *Runner) AddCategory(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.String("name"))
	categoryType := strings.ToLower(strings.TrimSpace(cmd.String("type")))
	if name == "" {
		return fmt.Errorf("category name is required")
	}
	if !inventory.ValidCategoryType(categoryType) {
		return fmt.Errorf("category type must be %q or %q, got %q", inventory.TypeLanguage, inventory.TypeGenre, categoryType)
	}

	id, err := r.store.AddCategory(ctx, name, categoryType)
	if errors.Is(err, inventory.ErrDuplicate) {
		return fmt.Errorf("category %q already exists", name)
	}
	if err != nil {
		return err
	}
	return r.writePlainln("✓ Added %s %q (id %d)", categoryType, name, id)
}

// ListCategories prints every category grouped by type
func (r *Runner) ListCategories(ctx context.Context, cmd *cli.Command) error {
	categories, err := r.store.AllCategories(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		return r.writePlainln("No categories yet.")
	}
	for _, c := range categories {
		if err := r.writePlainln("%4d  %-8s  %s", c.ID, c.Type, c.Name); err != nil {
			return err
		}
	}
	return nil
}

// resolveCategories maps names to categories, failing on the first unknown name
func (r *Runner) resolveCategories(ctx context.Context, names []string) ([]inventory.Category, error) {
	out := make([]inventory.Category, 0, len(names))
	for _, name := range names {
		c, err := r.store.GetCategoryByName(ctx, strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("unknown category %q (create it with 'category add')", name)
		}
		out = append(out, *c)
	}
	return out, nil
}

func categoryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "category",
		Usage: "Manage language and genre categories",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Create a category",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "Category name", Required: true},
					&cli.StringFlag{Name: "type", Usage: "language or genre", Required: true},
				},
				Action: r.AddCategory,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List categories",
				Action:  r.ListCategories,
			},
		},
	}
}
