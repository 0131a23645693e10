package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/HerbHall/videocatalog/internal/backup"
)

func runRestore(args []string, stdout io.Writer) error {
	fs, configPath := newFlagSet("restore")
	input := fs.String("input", "", "backup archive to restore (required)")
	dataDir := fs.String("data-dir", "", "target directory (default: directory of storage.path)")
	force := fs.Bool("force", false, "overwrite existing files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *input == "" {
		fs.Usage()
		return errors.New("-input is required")
	}
	if *dataDir == "" {
		s, err := loadSettings(*configPath)
		if err != nil {
			return err
		}
		*dataDir = filepath.Dir(s.Storage.Path)
	}

	m, err := backup.Restore(context.Background(), *input, *dataDir, *force)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	fmt.Fprintf(stdout, "Restore complete: %d files restored to %s (backup from %s)\n",
		len(m.Files), *dataDir, m.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	return nil
}
