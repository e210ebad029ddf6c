package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/shipq/cqlc/cli"
	"github.com/shipq/cqlc/internal/watch"
)

// runWatch implements "cqlc watch [flags] <kind> <pipeline.json>".
func runWatch(ctx context.Context, args []string, out cli.Output) int {
	var opts compileOptions
	var debounce time.Duration
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(out.Stderr)
	opts.register(fs)
	fs.DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before recompiling")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() != 2 {
		return out.Errorf("'cqlc watch' requires a statement kind and a pipeline file")
	}
	kind, path := fs.Arg(0), fs.Arg(1)

	stmt, err := opts.statement(kind)
	if err != nil {
		return out.Err("invalid flags", err)
	}

	s, err := newSession(opts, out.Stderr)
	if err != nil {
		return out.Err("failed to load config", err)
	}

	w, err := watch.New(path, debounce, out.Stderr, func() error {
		return s.compileFile(path, stmt, out)
	})
	if err != nil {
		return out.Err("failed to watch "+path, err)
	}

	out.Infof("watching %s (Ctrl-C to stop)", path)
	if err := w.Run(ctx); err != nil {
		return out.Err("watch failed", err)
	}
	return 0
}
