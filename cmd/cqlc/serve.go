package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"time"

	"github.com/shipq/cqlc/cli"
	"github.com/shipq/cqlc/internal/server"
	"github.com/shipq/cqlc/logging"
)

const shutdownTimeout = 5 * time.Second

// runServe implements "cqlc serve [-config dir] [-addr host:port]".
func runServe(ctx context.Context, args []string, out cli.Output) int {
	var configDir, addr string
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(out.Stderr)
	fs.StringVar(&configDir, "config", "", "directory containing cqlc.ini")
	fs.StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() != 0 {
		return out.Errorf("'cqlc serve' takes no arguments")
	}

	cfg, err := loadConfig(configDir)
	if err != nil {
		return out.Err("failed to load config", err)
	}
	logger, err := logging.New(out.Stderr, cfg.Log, false)
	if err != nil {
		return out.Err("failed to load config", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return out.Err("failed to listen", err)
	}

	srv := &http.Server{
		Handler:           server.New(cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	out.Infof("serving %d table(s) on http://%s (Ctrl-C to stop)", len(cfg.Tables), ln.Addr())

	select {
	case err := <-errCh:
		return out.Err("server stopped", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return out.Err("shutdown failed", err)
	}
	return 0
}
