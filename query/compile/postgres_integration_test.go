//go:build integration

package compile_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"

	"github.com/shipq/cqlc/query"
	"github.com/shipq/cqlc/query/compile"
)

// connectPostgres connects to CQLC_POSTGRES_DSN, or the local socket when
// it is unset. PostgreSQL numbers its placeholders, so only inline
// renderings run against it.
func connectPostgres(t *testing.T) *pgx.Conn {
	t.Helper()

	connString := os.Getenv("CQLC_POSTGRES_DSN")
	if connString == "" {
		connString = "host=/tmp user=postgres database=postgres"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		t.Skipf("PostgreSQL unavailable: %v", err)
	}
	t.Cleanup(func() { conn.Close(context.Background()) })
	return conn
}

func TestPostgresIntegration_InlineStatements(t *testing.T) {
	conn := connectPostgres(t)
	ctx := context.Background()

	for _, stmt := range []string{
		`DROP TABLE IF EXISTS "players"`,
		`CREATE TABLE "players" ("id" INTEGER PRIMARY KEY, "player_name" TEXT NOT NULL, "score" INTEGER)`,
		`INSERT INTO "players" VALUES (1, 'alice', 30), (2, 'bob', 10), (3, 'O''Brien', 20), (4, 'dave', NULL)`,
	} {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}

	compiler := compile.NewCompiler()
	inline := func(root query.Node, stmt compile.Statement) string {
		t.Helper()
		cql, err := compiler.CompileInline(root, stmt)
		if err != nil {
			t.Fatalf("CompileInline() error: %v", err)
		}
		return cql
	}

	selectCQL := inline(query.From(players).
		Where(playerPred(query.Ge(playerField("score"), query.Const(20)))).
		Select(playerPred(playerField("name"))).
		OrderBy(playerPred(playerField("score"))).
		Node(), compile.SelectStatement{})

	rows, err := conn.Query(ctx, selectCQL)
	if err != nil {
		t.Fatalf("query %s: %v", selectCQL, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		t.Fatalf("collect rows: %v", err)
	}
	if diff := cmp.Diff([]string{"O'Brien", "alice"}, names); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	updateCQL := inline(query.From(players).
		Where(playerPred(query.Eq(playerField("name"), query.Const("O'Brien")))).
		Select(playerPred(query.Object(query.Bind("score", query.Add(query.Const(20), query.Const(5)))))).
		Node(), compile.UpdateStatement{})
	if _, err := conn.Exec(ctx, updateCQL); err != nil {
		t.Fatalf("exec %s: %v", updateCQL, err)
	}

	var count int64
	countCQL := inline(query.From(players).
		Where(playerPred(query.Eq(playerField("score"), query.Const(25)))).
		Node(), compile.CountStatement{})
	if err := conn.QueryRow(ctx, countCQL).Scan(&count); err != nil {
		t.Fatalf("query %s: %v", countCQL, err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
