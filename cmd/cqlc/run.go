package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/shipq/cqlc/cli"
)

const version = "0.1.0"

const usage = `cqlc - compile query pipelines to CQL

Usage:
  cqlc <command> [flags] <arguments>

Commands:
  select <pipeline.json>         Compile a SELECT statement
  count <pipeline.json>          Compile a SELECT count(*) statement
  delete <pipeline.json>         Compile a DELETE statement
  update <pipeline.json>         Compile an UPDATE statement
  watch <kind> <pipeline.json>   Recompile whenever the pipeline file changes
  serve                          Serve compile requests over HTTP
  version                        Print the version

Flags:
  -config <dir>      Directory containing cqlc.ini (default: current directory)
  -inline            Encode values as literals instead of ? placeholders
  -ttl <seconds>     USING TTL for update
  -timestamp <t>     USING TIMESTAMP for update and delete (RFC 3339 or unix ms)
  -addr <host:port>  Listen address for serve (default: 127.0.0.1:8080)

Flags go before the pipeline file.
`

// run dispatches commands and returns an exit code.
func run(args []string) int {
	return runWithOutput(args, os.Stdout, os.Stderr)
}

// runWithOutput dispatches commands with custom output writers.
func runWithOutput(args []string, stdout, stderr io.Writer) int {
	out := cli.Output{Stdout: stdout, Stderr: stderr}

	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return 0
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "help", "--help", "-h":
		fmt.Fprint(stdout, usage)
		return 0

	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "cqlc %s\n", version)
		return 0

	case "select", "count", "delete", "update":
		return runCompile(cmd, cmdArgs, out)

	case "watch", "serve":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if cmd == "serve" {
			return runServe(ctx, cmdArgs, out)
		}
		return runWatch(ctx, cmdArgs, out)

	default:
		fmt.Fprintf(stderr, "error: unknown command %q\n\n", cmd)
		fmt.Fprint(stderr, usage)
		return 1
	}
}
