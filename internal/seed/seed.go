// Package seed loads category seed lists from YAML and applies them to the
// catalog.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/HerbHall/videocatalog/internal/services"
)

//go:embed categories.yaml
var defaultRawData []byte

// Entry is one category in a seed file.
type Entry struct {
	Name        string  `yaml:"name"`
	Description *string `yaml:"description"`
	IsActive    *bool   `yaml:"is_active"`
}

// seedFile is the top-level structure of a seed YAML document.
type seedFile struct {
	Categories []Entry `yaml:"categories"`
}

// Load parses a seed document. Unknown keys are rejected.
func Load(r io.Reader) ([]Entry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f seedFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("seed: parse yaml: %w", err)
	}
	for i, e := range f.Categories {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("seed: entry %d: name is required", i)
		}
	}
	if f.Categories == nil {
		f.Categories = []Entry{}
	}
	return f.Categories, nil
}

// LoadFile parses the seed document at path.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

var (
	defaultOnce    sync.Once
	defaultEntries []Entry
	defaultErr     error
)

// Default returns a copy of the embedded default seed list.
func Default() ([]Entry, error) {
	defaultOnce.Do(func() {
		defaultEntries, defaultErr = Load(bytes.NewReader(defaultRawData))
	})
	if defaultErr != nil {
		return nil, defaultErr
	}
	cp := make([]Entry, len(defaultEntries))
	copy(cp, defaultEntries)
	return cp, nil
}

// Catalog is the subset of the category service that seeding needs.
type Catalog interface {
	All(ctx context.Context) ([]services.CategoryOutput, error)
	Create(ctx context.Context, in services.CreateCategoryInput) (services.CategoryOutput, error)
}

// Result counts what Apply did.
type Result struct {
	Created int
	Skipped int
}

// Apply creates a category for every entry whose name is not already in the
// catalog. Names compare exactly; repeated names within entries are created
// once. Apply stops at the first failed create.
func Apply(ctx context.Context, catalog Catalog, entries []Entry, logger *zap.Logger) (Result, error) {
	existing, err := catalog.All(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("seed: list categories: %w", err)
	}
	seen := make(map[string]struct{}, len(existing)+len(entries))
	for _, c := range existing {
		seen[c.Name] = struct{}{}
	}

	var res Result
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, ok := seen[e.Name]; ok {
			res.Skipped++
			continue
		}
		out, err := catalog.Create(ctx, services.CreateCategoryInput{
			Name:        e.Name,
			Description: e.Description,
			IsActive:    e.IsActive,
		})
		if err != nil {
			return res, fmt.Errorf("seed: create %q: %w", e.Name, err)
		}
		seen[e.Name] = struct{}{}
		res.Created++
		logger.Debug("seeded category", zap.String("id", out.ID), zap.String("name", out.Name))
	}

	logger.Info("seed applied", zap.Int("created", res.Created), zap.Int("skipped", res.Skipped))
	return res, nil
}
