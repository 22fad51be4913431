// Command tenon composes glTF part files into one binary glTF document per
// mechanical assembly.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/chazu/tenon/pkg/config"
	"github.com/chazu/tenon/pkg/logging"
)

const usageText = `usage: tenon [flags] <command> [args]

commands:
  assemble [names...]    build assemblies from the configured tables
  analyze [projects...]  mesh bounds and world size per part file
  bbox [projects...]     bounds of every primitive
  inspect [projects...]  node translation, rotation and scale
  usage                  disk usage of the base directory
  deploy                 stage the viewer site into the deploy directory
  serve                  serve the base directory and project API
  watch                  assemble, then re-assemble on part changes
  sample [-force] [dir]  write a generated sample project

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tenon", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", config.DefaultFile, "settings file")
	verbose := fs.Bool("v", false, "debug logging")
	noColor := fs.Bool("no-color", false, "disable colored output")
	logFile := fs.String("log", "", "append logs to this file instead of stderr")
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	settings, err := config.Load(*cfgPath, explicit)
	if err != nil {
		fmt.Fprintf(stderr, "tenon: %v\n", err)
		return 1
	}

	logOut := stderr
	if *logFile != "" {
		f, err := logging.OpenFile(*logFile)
		if err != nil {
			fmt.Fprintf(stderr, "tenon: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	logger := logging.New(logOut, *verbose)
	color := !*noColor && os.Getenv("NO_COLOR") == ""
	app := NewApp(settings, logger, stdout, color)

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "assemble":
		_, err = app.Assemble(ctx, rest)
	case "analyze":
		err = app.Analyze(ctx, rest)
	case "bbox":
		err = app.BBox(ctx, rest)
	case "inspect":
		err = app.Inspect(ctx, rest)
	case "usage":
		err = app.Usage()
	case "deploy":
		err = app.Deploy()
	case "serve":
		err = app.Serve(ctx)
	case "watch":
		err = app.Watch(ctx)
	case "sample":
		sfs := flag.NewFlagSet("sample", flag.ContinueOnError)
		sfs.SetOutput(stderr)
		force := sfs.Bool("force", false, "overwrite an existing table")
		if err := sfs.Parse(rest); err != nil {
			return 2
		}
		err = app.Sample(ctx, sfs.Arg(0), *force)
	default:
		fmt.Fprintf(stderr, "tenon: unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFailed):
		return 1
	default:
		fmt.Fprintf(stderr, "tenon: %v\n", err)
		return 1
	}
}
