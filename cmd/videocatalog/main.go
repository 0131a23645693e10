// Command videocatalog serves and maintains the video catalog.
//
// Usage:
//
//	videocatalog [serve] [-config path]
//	videocatalog seed [-config path] [-file seed.yaml]
//	videocatalog backup [-config path] [-db path] [-output file]
//	videocatalog restore -input file [-config path] [-data-dir dir] [-force]
//	videocatalog version
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

type command struct {
	name    string
	summary string
	run     func(args []string, stdout io.Writer) error
}

var commands = []command{
	{"serve", "run the HTTP API (default)", runServe},
	{"seed", "create the default or a file's categories", runSeed},
	{"backup", "archive the database and config", runBackup},
	{"restore", "restore a backup archive", runRestore},
	{"version", "print build information", runVersion},
}

func main() {
	if err := dispatch(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "videocatalog: %v\n", err)
		}
		os.Exit(1)
	}
}

// dispatch runs the subcommand named by args[0]. Flags or no arguments at
// all select serve.
func dispatch(args []string, stdout, stderr io.Writer) error {
	name := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		name, args = args[0], args[1:]
	}
	if name == "help" {
		usage(stdout)
		return nil
	}
	for _, c := range commands {
		if c.name == name {
			return c.run(args, stdout)
		}
	}
	usage(stderr)
	return fmt.Errorf("unknown command %q", name)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: videocatalog <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
}

// newFlagSet returns a FlagSet that reports errors instead of exiting, with
// the -config flag every subcommand shares.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file (default: ./videocatalog.yaml if present)")
	return fs, configPath
}
