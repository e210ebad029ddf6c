package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shipq/cqlc/query"
)

func TestLoad_FileNotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "Hint:") {
		t.Errorf("error should carry a hint, got: %v", err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFilename, "")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Mode != ModePositional {
		t.Errorf("expected default mode %q, got %q", ModePositional, cfg.Mode)
	}
	if cfg.Log != "off" {
		t.Errorf("expected default log 'off', got %q", cfg.Log)
	}
	if len(cfg.Tables) != 0 {
		t.Errorf("expected no tables, got %d", len(cfg.Tables))
	}
	if cfg.ConfigDir != dir {
		t.Errorf("expected ConfigDir %q, got %q", dir, cfg.ConfigDir)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFilename, `
[cqlc]
keyspace = app          ; default keyspace
mode = inline
log = dev

[table.users]
name = users
columns = id, name:user_name, score
allow_filtering = true

[table.events]
keyspace = audit
columns = id, at
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Keyspace != "app" {
		t.Errorf("Keyspace = %q", cfg.Keyspace)
	}
	if !cfg.Inline() {
		t.Errorf("expected inline mode, got %q", cfg.Mode)
	}
	if cfg.Log != "dev" {
		t.Errorf("Log = %q", cfg.Log)
	}
	if diff := cmp.Diff([]string{"events", "users"}, cfg.TableKeys()); diff != "" {
		t.Errorf("TableKeys() mismatch (-want +got):\n%s", diff)
	}

	users := cfg.Tables["users"]
	if got := users.QuotedTableName(); got != `"app"."users"` {
		t.Errorf("users QuotedTableName() = %s", got)
	}
	if !users.AllowFiltering() {
		t.Error("users should allow filtering")
	}
	wantCols := []query.Column{
		{Member: "id", Name: "id"},
		{Member: "name", Name: "user_name"},
		{Member: "score", Name: "score"},
	}
	if diff := cmp.Diff(wantCols, users.Columns()); diff != "" {
		t.Errorf("users columns mismatch (-want +got):\n%s", diff)
	}

	events := cfg.Tables["events"]
	if got := events.QuotedTableName(); got != `"audit"."events"` {
		t.Errorf("events QuotedTableName() = %s", got)
	}
	if events.AllowFiltering() {
		t.Error("events should not allow filtering")
	}
}

func TestLoad_LogEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFilename, "[cqlc]\nlog = prod\n")
	t.Setenv("CQLC_LOG", "text")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log != "text" {
		t.Errorf("expected CQLC_LOG to override, got %q", cfg.Log)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFilename, "[cqlc]\nlog = prod\n")
	writeFile(t, dir, EnvFilename, "CQLC_LOG=dev\n")

	// Registers a restore of the original value, then clears it so the
	// .env file is allowed to set it.
	t.Setenv("CQLC_LOG", "")
	os.Unsetenv("CQLC_LOG")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log != "dev" {
		t.Errorf("expected .env to set the log mode, got %q", cfg.Log)
	}
}

func TestLoad_EnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFilename, "")
	writeFile(t, dir, EnvFilename, "CQLC_LOG=dev\n")
	t.Setenv("CQLC_LOG", "text")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log != "text" {
		t.Errorf("expected the environment to win, got %q", cfg.Log)
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := Find(nested); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound before writing, got %v", err)
	}

	writeFile(t, root, ConfigFilename, "")
	got, err := Find(nested)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("Find() = %s, want %s", got, want)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid mode",
			content: "[cqlc]\nmode = batch\n",
			wantErr: `invalid cqlc.mode value "batch"`,
		},
		{
			name:    "invalid log",
			content: "[cqlc]\nlog = verbose\n",
			wantErr: "cqlc.log",
		},
		{
			name:    "unknown cqlc key",
			content: "[cqlc]\nkeyspac = app\n",
			wantErr: `unknown key "keyspac" in [cqlc]`,
		},
		{
			name:    "unknown table key",
			content: "[table.users]\ncolumns = id\nfiltering = true\n",
			wantErr: `line 3: unknown key "filtering"`,
		},
		{
			name:    "missing columns",
			content: "[table.users]\nname = users\n",
			wantErr: "[table.users] requires columns",
		},
		{
			name:    "invalid column identifier",
			content: "[table.users]\ncolumns = id, user name\n",
			wantErr: "[table.users]",
		},
		{
			name:    "invalid boolean",
			content: "[table.users]\ncolumns = id\nallow_filtering = sometimes\n",
			wantErr: "invalid boolean",
		},
		{
			name:    "duplicate table",
			content: "[table.users]\ncolumns = id\n[table.users]\ncolumns = id\n",
			wantErr: "duplicate section [table.users]",
		},
		{
			name:    "syntax error",
			content: "[cqlc\n",
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, ConfigFilename, tt.content)

			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFilename, "[table.people]\nname = users\ncolumns = id\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"people", "People", "users"} {
		tbl, ok := cfg.Resolve(name)
		if !ok {
			t.Errorf("Resolve(%q) not found", name)
			continue
		}
		if tbl.TableName() != "users" {
			t.Errorf("Resolve(%q) = %s", name, tbl.TableName())
		}
	}
	if _, ok := cfg.Resolve("missing"); ok {
		t.Error("Resolve(missing) should fail")
	}

	var _ query.TableResolver = cfg.Resolve
}

func TestExists(t *testing.T) {
	dir := t.TempDir()

	ok, err := Exists(dir)
	if err != nil || ok {
		t.Fatalf("Exists() = %v, %v before writing", ok, err)
	}

	writeFile(t, dir, ConfigFilename, "")
	ok, err = Exists(dir)
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v after writing", ok, err)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}
