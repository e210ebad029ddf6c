package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shipq/cqlc/query"
	"github.com/shipq/cqlc/schema"
)

const testConfig = `
[cqlc]
keyspace = app

[table.users]
columns = id, name:user_name, score
`

func TestRun_NoArgs(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	code := runWithOutput(nil, stdout, stderr)

	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
	for _, want := range []string{"cqlc", "select", "count", "delete", "update", "watch"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestRun_Help(t *testing.T) {
	for _, arg := range []string{"help", "--help", "-h"} {
		t.Run(arg, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			code := runWithOutput([]string{arg}, stdout, &bytes.Buffer{})
			if code != 0 {
				t.Errorf("expected exit code 0, got %d", code)
			}
			if !strings.Contains(stdout.String(), "Usage:") {
				t.Errorf("expected usage, got %q", stdout.String())
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	stdout := &bytes.Buffer{}
	if code := runWithOutput([]string{"version"}, stdout, &bytes.Buffer{}); code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(stdout.String(), version) {
		t.Errorf("expected version in output, got %q", stdout.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	stderr := &bytes.Buffer{}
	code := runWithOutput([]string{"insert"}, &bytes.Buffer{}, stderr)
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), `unknown command "insert"`) {
		t.Errorf("unexpected stderr: %q", stderr.String())
	}
}

func TestRun_Compile(t *testing.T) {
	dir := setupProject(t)
	users := schema.MustNew("users", "id", "name:user_name", "score")

	where := writePipeline(t, dir, "where.json", query.From(users).
		Where(query.Lambda("e", query.Eq(query.Field("e", "id"), query.Const(5)))).
		Node())

	assign := writePipeline(t, dir, "assign.json", query.From(users).
		Where(query.Lambda("e", query.Eq(query.Field("e", "id"), query.Const(5)))).
		Select(query.Lambda("e", query.Object(
			query.Bind("name", query.Const("bob")),
			query.Bind("score", query.Const(nil)),
		))).
		Node())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "select",
			args: []string{"select", "-config", dir, where},
			want: "SELECT * FROM \"app\".\"users\" WHERE \"id\" = ?\n-- ?1 = 5\n",
		},
		{
			name: "select inline",
			args: []string{"select", "-config", dir, "-inline", where},
			want: "SELECT * FROM \"app\".\"users\" WHERE \"id\" = 5\n",
		},
		{
			name: "count",
			args: []string{"count", "-config", dir, where},
			want: "SELECT count(*) FROM \"app\".\"users\" WHERE \"id\" = ?\n-- ?1 = 5\n",
		},
		{
			name: "delete with timestamp",
			args: []string{"delete", "-config", dir, "-timestamp", "1700000000000", where},
			want: "DELETE FROM \"app\".\"users\" USING TIMESTAMP 1700000000000 WHERE \"id\" = ?\n-- ?1 = 5\n",
		},
		{
			name: "update with ttl",
			args: []string{"update", "-config", dir, "-ttl", "60", "-inline", assign},
			want: "UPDATE \"app\".\"users\" USING TTL 60 SET \"user_name\" = 'bob', \"score\" = NULL WHERE \"id\" = 5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}

			code := runWithOutput(tt.args, stdout, stderr)
			if code != 0 {
				t.Fatalf("expected exit code 0, got %d (stderr: %s)", code, stderr.String())
			}
			if stdout.String() != tt.want {
				t.Errorf("output mismatch\n got: %q\nwant: %q", stdout.String(), tt.want)
			}
		})
	}
}

func TestRun_CompileErrors(t *testing.T) {
	dir := setupProject(t)
	users := schema.MustNew("users", "id", "name:user_name", "score")

	where := writePipeline(t, dir, "where.json", query.From(users).
		Where(query.Lambda("e", query.Eq(query.Field("e", "id"), query.Const(5)))).
		Node())

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing file argument",
			args:    []string{"select", "-config", dir},
			wantErr: "requires exactly one pipeline file",
		},
		{
			name:    "ttl on select",
			args:    []string{"select", "-config", dir, "-ttl", "5", where},
			wantErr: "-ttl applies to update only",
		},
		{
			name:    "bad timestamp",
			args:    []string{"delete", "-config", dir, "-timestamp", "yesterday", where},
			wantErr: "invalid -timestamp",
		},
		{
			name:    "nothing to update",
			args:    []string{"update", "-config", dir, where},
			wantErr: "nothing to update",
		},
		{
			name:    "missing pipeline file",
			args:    []string{"select", "-config", dir, filepath.Join(dir, "missing.json")},
			wantErr: "compile failed",
		},
		{
			name:    "missing config",
			args:    []string{"select", "-config", t.TempDir(), where},
			wantErr: "cqlc.ini not found",
		},
		{
			name:    "serve with arguments",
			args:    []string{"serve", "-config", dir, "extra"},
			wantErr: "takes no arguments",
		},
		{
			name:    "serve on a bad address",
			args:    []string{"serve", "-config", dir, "-addr", "not-an-address"},
			wantErr: "failed to listen",
		},
		{
			name:    "watch without a kind",
			args:    []string{"watch", "-config", dir, where},
			wantErr: "requires a statement kind and a pipeline file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stderr := &bytes.Buffer{}
			code := runWithOutput(tt.args, &bytes.Buffer{}, stderr)
			if code != 1 {
				t.Errorf("expected exit code 1, got %d", code)
			}
			if !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr %q should contain %q", stderr.String(), tt.wantErr)
			}
		})
	}
}

func TestRun_UnknownTableHint(t *testing.T) {
	dir := t.TempDir()
	writePipeline(t, dir, "p.json", query.From(schema.MustNew("users", "id")).Node())

	t.Chdir(dir)
	stderr := &bytes.Buffer{}
	code := runWithOutput([]string{"select", "p.json"}, &bytes.Buffer{}, stderr)
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Hint: no tables are configured") {
		t.Errorf("expected hint, got %q", stderr.String())
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := parseTimestamp("2024-01-02T03:04:05Z")
	if err != nil {
		t.Fatalf("parseTimestamp() error: %v", err)
	}
	if want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = parseTimestamp("1700000000123")
	if err != nil {
		t.Fatalf("parseTimestamp() error: %v", err)
	}
	if got.UnixMilli() != 1700000000123 {
		t.Errorf("got %d ms", got.UnixMilli())
	}
}

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cqlc.ini"), []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func writePipeline(t *testing.T, dir, name string, n query.Node) string {
	t.Helper()
	data, err := query.MarshalNode(n)
	if err != nil {
		t.Fatalf("MarshalNode() error: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
