package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/HerbHall/videocatalog/internal/backup"
	"github.com/HerbHall/videocatalog/internal/config"
)

func runBackup(args []string, stdout io.Writer) error {
	fs, configPath := newFlagSet("backup")
	output := fs.String("output", "", "output file path (default: videocatalog-backup-{timestamp}.tar.gz)")
	dbPath := fs.String("db", "", "database file (default: storage.path from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := loadSettings(*configPath)
	if err != nil {
		return err
	}
	if *dbPath == "" {
		if s.Storage.Driver != config.DriverSQLite {
			return fmt.Errorf("backup needs the sqlite storage driver, configured %q", s.Storage.Driver)
		}
		*dbPath = s.Storage.Path
	}
	if *output == "" {
		*output = fmt.Sprintf("videocatalog-backup-%s.tar.gz", time.Now().Format("20060102-150405"))
	}

	m, err := backup.Backup(context.Background(), *dbPath, *configPath, *output)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Fprintf(stdout, "Backup created: %s (%d files)\n", *output, len(m.Files))
	return nil
}
