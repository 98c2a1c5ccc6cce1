// Command countryview downloads country data per continent, merges it into a
// single flat file and lets the user filter, sort and summarize it.
//
// Usage:
//
//	countryview [view|list|stats|ingest|export] [flags]
//
// view (the default) ensures the merged file exists, then opens the terminal
// viewer. list, stats and export are batch versions of the same operations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
)

var exitFunc = os.Exit

var commands = []string{"view", "list", "stats", "ingest", "export"}

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

type options struct {
	configPath  string
	metricsFile string
	logLevel    string
	source      string
	refresh     bool

	group, name    string
	minPopulation  string
	maxPopulation  string
	minArea        string
	maxArea        string
	sortKey, order string
}

func cli(args []string, stdout, stderr io.Writer) int {
	command := "view"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}
	if !isCommand(command) {
		_, _ = fmt.Fprintf(stderr, "unknown command %q (want one of %s)\n", command, strings.Join(commands, ", "))
		return 2
	}
	fs := flag.NewFlagSet("countryview "+command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path at exit")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error")
	fs.StringVar(&opts.source, "source", "csv", "where to load countries from: csv|db")
	fs.BoolVar(&opts.refresh, "refresh", false, "re-download every continent even if the merged file exists")
	fs.StringVar(&opts.group, "group", "", "only this continent (all by default)")
	fs.StringVar(&opts.name, "name", "", "case-insensitive substring of the common name")
	fs.StringVar(&opts.minPopulation, "min-population", "", "minimum population")
	fs.StringVar(&opts.maxPopulation, "max-population", "", "maximum population")
	fs.StringVar(&opts.minArea, "min-area", "", "minimum area in km²")
	fs.StringVar(&opts.maxArea, "max-area", "", "maximum area in km²")
	fs.StringVar(&opts.sortKey, "sort", "", "sort by name|population|area|group")
	fs.StringVar(&opts.order, "order", "asc", "sort direction asc|desc")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}
	if opts.source != "csv" && opts.source != "db" {
		_, _ = fmt.Fprintf(stderr, "invalid -source %q (want csv or db)\n", opts.source)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(command, opts, stdout, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "countryview: %v\n", err)
		return 1
	}
	err = a.run(ctx, command)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			_, _ = fmt.Fprintf(stderr, "countryview: %v\n", err)
			return 2
		}
		_, _ = fmt.Fprintf(stderr, "countryview %s: %v\n", command, err)
		return 1
	}
	return 0
}

func isCommand(s string) bool {
	for _, c := range commands {
		if c == s {
			return true
		}
	}
	return false
}

// usageError marks flag values that only fail once interpreted.
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }
