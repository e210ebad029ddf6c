package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shipq/cqlc/cli"
	"github.com/shipq/cqlc/inifile"
	"github.com/shipq/cqlc/internal/config"
	"github.com/shipq/cqlc/logging"
	"github.com/shipq/cqlc/query"
	"github.com/shipq/cqlc/query/compile"
)

// compileOptions holds the flags shared by the compile and watch commands.
type compileOptions struct {
	configDir string
	inline    bool
	ttl       int
	timestamp string
}

func (o *compileOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configDir, "config", "", "directory containing "+config.ConfigFilename)
	fs.BoolVar(&o.inline, "inline", false, "encode values as literals")
	fs.IntVar(&o.ttl, "ttl", -1, "USING TTL in seconds (update only)")
	fs.StringVar(&o.timestamp, "timestamp", "", "USING TIMESTAMP as RFC 3339 or unix milliseconds (update and delete)")
}

// statement builds the statement for kind from the flags.
func (o *compileOptions) statement(kind string) (compile.Statement, error) {
	k, err := compile.ParseKind(kind)
	if err != nil {
		return nil, err
	}

	var opts compile.StatementOptions
	if o.timestamp != "" {
		t, err := parseTimestamp(o.timestamp)
		if err != nil {
			return nil, err
		}
		if k != compile.UpdateKind && k != compile.DeleteKind {
			return nil, fmt.Errorf("-timestamp applies to update and delete only")
		}
		opts.Timestamp = &t
	}
	if o.ttl >= 0 {
		if k != compile.UpdateKind {
			return nil, fmt.Errorf("-ttl applies to update only")
		}
		ttl := o.ttl
		opts.TTL = &ttl
	}
	return compile.NewStatement(k, opts)
}

// parseTimestamp accepts RFC 3339 or a unix timestamp in milliseconds.
func parseTimestamp(s string) (time.Time, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -timestamp %q: want RFC 3339 or unix milliseconds", s)
	}
	return t, nil
}

// session is a loaded config plus the compiler built from it.
type session struct {
	cfg      *config.Config
	compiler *compile.Compiler
	inline   bool
}

func newSession(opts compileOptions, stderr io.Writer) (*session, error) {
	cfg, err := loadConfig(opts.configDir)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(stderr, cfg.Log, true)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:      cfg,
		compiler: compile.NewCompiler(compile.WithLogger(logger)),
		inline:   opts.inline || cfg.Inline(),
	}, nil
}

// loadConfig reads cqlc.ini from dir. Without -config the nearest cqlc.ini
// at or above the current directory is used, and an empty config if there
// is none.
func loadConfig(dir string) (*config.Config, error) {
	if dir != "" {
		return config.Load(dir)
	}
	found, err := config.Find("")
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.FromFile(&inifile.File{})
	}
	if err != nil {
		return nil, err
	}
	return config.Load(found)
}

// compileFile reads a JSON pipeline and prints the compiled statement.
func (s *session) compileFile(path string, stmt compile.Statement, out cli.Output) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	root, err := query.UnmarshalNode(data, s.cfg.Resolve)
	if err != nil {
		if errors.Is(err, query.ErrUnknownTable) && len(s.cfg.Tables) == 0 {
			return fmt.Errorf("%s: %w\n  Hint: no tables are configured; create %s or pass -config",
				path, err, config.ConfigFilename)
		}
		return fmt.Errorf("%s: %w", path, err)
	}

	if s.inline {
		cql, err := s.compiler.CompileInline(root, stmt)
		if err != nil {
			return err
		}
		return out.Statement(cql)
	}

	res, err := s.compiler.Compile(root, stmt)
	if err != nil {
		return err
	}
	return out.Result(res)
}

// runCompile implements "cqlc select|count|delete|update [flags] <pipeline.json>".
func runCompile(kind string, args []string, out cli.Output) int {
	var opts compileOptions
	fs := flag.NewFlagSet(kind, flag.ContinueOnError)
	fs.SetOutput(out.Stderr)
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() != 1 {
		return out.Errorf("'cqlc %s' requires exactly one pipeline file", kind)
	}

	stmt, err := opts.statement(kind)
	if err != nil {
		return out.Err("invalid flags", err)
	}

	s, err := newSession(opts, out.Stderr)
	if err != nil {
		return out.Err("failed to load config", err)
	}

	if err := s.compileFile(fs.Arg(0), stmt, out); err != nil {
		return out.Err("compile failed", err)
	}
	return 0
}
