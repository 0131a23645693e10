package main

import (
	"fmt"
	"io"

	"github.com/HerbHall/videocatalog/internal/version"
)

func runVersion(_ []string, stdout io.Writer) error {
	fmt.Fprintln(stdout, version.Info())
	return nil
}
