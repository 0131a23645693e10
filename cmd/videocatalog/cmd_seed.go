package main

import (
	"context"
	"fmt"
	"io"
)

func runSeed(args []string, stdout io.Writer) error {
	fs, configPath := newFlagSet("seed")
	file := fs.String("file", "", "seed YAML file (default: built-in categories)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := loadSettings(*configPath)
	if err != nil {
		return err
	}
	path := *file
	if path == "" {
		path = s.Seed.File
	}

	ctx := context.Background()
	a, err := newApp(ctx, s, nil)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := seedCatalog(ctx, a, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Seed complete: %d created, %d already present\n", res.Created, res.Skipped)
	return nil
}
