//go:build integration

package compile_test

import (
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/shipq/cqlc/query"
	"github.com/shipq/cqlc/query/compile"
	"github.com/shipq/cqlc/schema"
)

// The SQL engines used here accept the subset of CQL the compiler emits for
// tables without keyspaces, filtering or tokens: double-quoted identifiers,
// "?" placeholders, IN lists, ORDER BY, LIMIT, UPDATE ... SET and DELETE.

var players = schema.MustNew("players", "id", "name:player_name", "score")

func createPlayers(t *testing.T, db *sql.DB) {
	t.Helper()

	stmts := []string{
		`DROP TABLE IF EXISTS "players"`,
		`CREATE TABLE "players" ("id" INTEGER PRIMARY KEY, "player_name" VARCHAR(64) NOT NULL, "score" INTEGER)`,
		`INSERT INTO "players" ("id", "player_name", "score") VALUES
			(1, 'alice', 30), (2, 'bob', 10), (3, 'O''Brien', 20), (4, 'dave', NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}
}

func playerPred(body query.Node) query.LambdaExpr { return query.Lambda("p", body) }

func playerField(member string) query.MemberExpr { return query.Field("p", member) }

// queryNames runs a projection of the name column and returns the rows.
func queryNames(t *testing.T, db *sql.DB, cql string, args ...any) []string {
	t.Helper()

	rows, err := db.Query(cql, args...)
	if err != nil {
		t.Fatalf("query %s: %v", cql, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return names
}

func queryCount(t *testing.T, db *sql.DB, cql string, args ...any) int {
	t.Helper()

	var n int
	if err := db.QueryRow(cql, args...).Scan(&n); err != nil {
		t.Fatalf("query %s: %v", cql, err)
	}
	return n
}

// runExecutionSuite checks that positional and inline renderings of the same
// pipeline select the same rows.
func runExecutionSuite(t *testing.T, db *sql.DB) {
	compiler := compile.NewCompiler()

	t.Run("select", func(t *testing.T) {
		createPlayers(t, db)

		root := query.From(players).
			Where(playerPred(query.And(
				query.Gt(query.CompareTo(playerField("score"), query.Const(15)), query.Const(0)),
				query.Ne(playerField("name"), query.Const("dave")),
			))).
			Select(playerPred(playerField("name"))).
			OrderByDescending(playerPred(playerField("score"))).
			Take(5).
			Node()

		res, err := compiler.Select(root)
		if err != nil {
			t.Fatalf("Select() error: %v", err)
		}
		inline, err := compiler.CompileInline(root, compile.SelectStatement{})
		if err != nil {
			t.Fatalf("CompileInline() error: %v", err)
		}

		want := []string{"alice", "O'Brien"}
		if diff := cmp.Diff(want, queryNames(t, db, res.CQL, res.Values...)); diff != "" {
			t.Errorf("positional rows mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want, queryNames(t, db, inline)); diff != "" {
			t.Errorf("inline rows mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("membership and escaping", func(t *testing.T) {
		createPlayers(t, db)

		root := query.From(players).
			Where(playerPred(query.Contains(query.Const([]string{"O'Brien", "bob"}), playerField("name")))).
			Select(playerPred(playerField("name"))).
			OrderBy(playerPred(playerField("id"))).
			Node()

		res, err := compiler.Select(root)
		if err != nil {
			t.Fatalf("Select() error: %v", err)
		}
		inline, err := compiler.CompileInline(root, compile.SelectStatement{})
		if err != nil {
			t.Fatalf("CompileInline() error: %v", err)
		}

		want := []string{"bob", "O'Brien"}
		if diff := cmp.Diff(want, queryNames(t, db, res.CQL, res.Values...)); diff != "" {
			t.Errorf("positional rows mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want, queryNames(t, db, inline)); diff != "" {
			t.Errorf("inline rows mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("count", func(t *testing.T) {
		createPlayers(t, db)

		root := query.From(players).
			Where(playerPred(query.Le(playerField("score"), query.Const(20)))).
			Node()

		res, err := compiler.Count(root)
		if err != nil {
			t.Fatalf("Count() error: %v", err)
		}
		if got := queryCount(t, db, res.CQL, res.Values...); got != 2 {
			t.Errorf("count = %d, want 2", got)
		}
	})

	t.Run("update then delete", func(t *testing.T) {
		createPlayers(t, db)

		update := query.From(players).
			Where(playerPred(query.Eq(playerField("id"), query.Const(2)))).
			Select(playerPred(query.Object(
				query.Bind("name", query.Const("bobby")),
				query.Bind("score", query.Const(nil)),
			))).
			Node()

		res, err := compiler.Update(update, compile.UpdateStatement{})
		if err != nil {
			t.Fatalf("Update() error: %v", err)
		}
		if _, err := db.Exec(res.CQL, res.Values...); err != nil {
			t.Fatalf("exec %s: %v", res.CQL, err)
		}

		nulls := query.From(players).
			Where(playerPred(query.Eq(playerField("name"), query.Const("bobby")))).
			Node()
		if got := queryCount(t, db, mustCount(t, compiler, nulls)); got != 1 {
			t.Errorf("updated rows = %d, want 1", got)
		}

		del, err := compiler.CompileInline(
			query.From(players).Where(playerPred(query.Contains(query.Const([]int{2, 4}), playerField("id")))).Node(),
			compile.DeleteStatement{},
		)
		if err != nil {
			t.Fatalf("CompileInline() error: %v", err)
		}
		if _, err := db.Exec(del); err != nil {
			t.Fatalf("exec %s: %v", del, err)
		}
		if got := queryCount(t, db, mustCount(t, compiler, query.From(players).Node())); got != 2 {
			t.Errorf("remaining rows = %d, want 2", got)
		}
	})
}

func mustCount(t *testing.T, compiler *compile.Compiler, root query.Node) string {
	t.Helper()

	cql, err := compiler.CompileInline(root, compile.CountStatement{})
	if err != nil {
		t.Fatalf("CompileInline() error: %v", err)
	}
	return cql
}
