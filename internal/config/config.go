// Package config loads compiler settings and table definitions from cqlc.ini.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/shipq/cqlc/inifile"
	"github.com/shipq/cqlc/logging"
	"github.com/shipq/cqlc/query"
	"github.com/shipq/cqlc/schema"
)

// ConfigFilename is the name of the config file.
const ConfigFilename = "cqlc.ini"

// EnvFilename is read from the config directory before the environment
// overrides are applied. Variables already set are left alone.
const EnvFilename = ".env"

// Rendering modes.
const (
	ModePositional = "positional"
	ModeInline     = "inline"
)

// ErrConfigNotFound is returned when cqlc.ini is not found.
var ErrConfigNotFound = errors.New("cqlc.ini not found")

// Config holds the complete configuration from cqlc.ini.
type Config struct {
	// ConfigDir is the directory containing cqlc.ini.
	ConfigDir string

	// Keyspace qualifies every table that does not set its own.
	Keyspace string

	// Mode is the default rendering mode: positional or inline.
	Mode string

	// Log is the log mode passed to logging.New.
	Log string

	// Tables is keyed by the suffix of the [table.<key>] section.
	Tables map[string]*schema.Table
}

var (
	cqlcKeys  = []string{"keyspace", "mode", "log"}
	tableKeys = []string{"name", "keyspace", "columns", "allow_filtering"}
)

func defaultConfig() *Config {
	return &Config{
		Mode:   ModePositional,
		Log:    logging.ModeOff,
		Tables: make(map[string]*schema.Table),
	}
}

// Load reads cqlc.ini from the given directory (or CWD if empty).
// CQLC_LOG in the environment overrides the log setting.
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	iniPath := filepath.Join(dir, ConfigFilename)
	if _, err := os.Stat(iniPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w in %s\n"+
			"  Hint: create %s with a [table.<name>] section per table, or pass -config",
			ErrConfigNotFound, dir, ConfigFilename)
	}

	f, err := inifile.ParseFile(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFilename, err)
	}

	cfg, err := FromFile(f)
	if err != nil {
		return nil, err
	}
	cfg.ConfigDir = dir

	if err := loadEnv(dir); err != nil {
		return nil, err
	}
	if v := os.Getenv("CQLC_LOG"); v != "" {
		cfg.Log = v
	}

	return cfg, nil
}

// FromFile builds a Config from an already parsed INI file.
func FromFile(f *inifile.File) (*Config, error) {
	cfg := defaultConfig()

	if s := f.Section("cqlc"); s != nil {
		if err := parseCQLCSection(s, cfg); err != nil {
			return nil, err
		}
	}

	for _, s := range f.SectionsWithPrefix("table.") {
		key := strings.TrimPrefix(s.Name, "table.")
		if _, dup := cfg.Tables[key]; dup {
			return nil, fmt.Errorf("%s: line %d: duplicate section [table.%s]", ConfigFilename, s.Line, key)
		}
		t, err := parseTableSection(&s, key, cfg.Keyspace)
		if err != nil {
			return nil, err
		}
		cfg.Tables[key] = t
	}

	return cfg, nil
}

// parseCQLCSection parses the [cqlc] section.
func parseCQLCSection(s *inifile.Section, cfg *Config) error {
	if err := rejectUnknown(s, cqlcKeys); err != nil {
		return err
	}

	if v := s.Get("keyspace"); v != "" {
		cfg.Keyspace = v
	}

	if v := s.Get("mode"); v != "" {
		mode := strings.ToLower(v)
		if mode != ModePositional && mode != ModeInline {
			return fmt.Errorf("%s: invalid cqlc.mode value %q\n"+
				"  Supported modes: %s, %s",
				ConfigFilename, v, ModePositional, ModeInline)
		}
		cfg.Mode = mode
	}

	if v := s.Get("log"); v != "" {
		if _, err := logging.New(os.Stderr, v, false); err != nil {
			return fmt.Errorf("%s: cqlc.log: %w", ConfigFilename, err)
		}
		cfg.Log = v
	}

	return nil
}

// parseTableSection builds one table from a [table.<key>] section.
func parseTableSection(s *inifile.Section, key, keyspace string) (*schema.Table, error) {
	if err := rejectUnknown(s, tableKeys); err != nil {
		return nil, err
	}

	name := s.Get("name")
	if name == "" {
		name = key
	}

	columns := s.List("columns")
	if len(columns) == 0 {
		return nil, fmt.Errorf("%s: line %d: [table.%s] requires columns\n"+
			"  Example: columns = id, name:user_name, score",
			ConfigFilename, s.Line, key)
	}

	t, err := schema.New(name, columns...)
	if err != nil {
		return nil, fmt.Errorf("%s: [table.%s]: %w", ConfigFilename, key, err)
	}

	if v := s.Get("keyspace"); v != "" {
		keyspace = v
	}
	if keyspace != "" {
		t = t.WithKeyspace(keyspace)
	}

	filtering, err := s.Bool("allow_filtering", false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigFilename, err)
	}
	t.Filtering = filtering

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%s: [table.%s]: %w", ConfigFilename, key, err)
	}
	return t, nil
}

func rejectUnknown(s *inifile.Section, allowed []string) error {
	unknown := s.Unknown(allowed...)
	if len(unknown) == 0 {
		return nil
	}
	kv := unknown[0]
	return fmt.Errorf("%s: line %d: unknown key %q in [%s]\n"+
		"  Valid keys: %s\n"+
		"  Hint: Check for typos",
		ConfigFilename, kv.Line, kv.Key, s.Name, strings.Join(allowed, ", "))
}

// Resolve looks a table up by section key, then by table name.
// It has the signature of query.TableResolver.
func (c *Config) Resolve(name string) (query.Table, bool) {
	if t, ok := c.Tables[strings.ToLower(name)]; ok {
		return t, true
	}
	for _, key := range c.TableKeys() {
		if t := c.Tables[key]; t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// TableKeys returns the table section keys in sorted order.
func (c *Config) TableKeys() []string {
	keys := make([]string, 0, len(c.Tables))
	for k := range c.Tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Inline reports whether the configured mode is inline.
func (c *Config) Inline() bool {
	return c.Mode == ModeInline
}

// Exists checks if cqlc.ini exists in the given directory.
func Exists(dir string) (bool, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return false, err
		}
	}

	_, err := os.Stat(filepath.Join(dir, ConfigFilename))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Find walks up from startDir (or CWD if empty) looking for cqlc.ini and
// returns the directory that contains it.
func Find(startDir string) (string, error) {
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFilename)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w in %s or any parent directory", ErrConfigNotFound, startDir)
		}
		dir = parent
	}
}

func loadEnv(dir string) error {
	path := filepath.Join(dir, EnvFilename)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
