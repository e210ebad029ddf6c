package compile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shipq/cqlc/query"
)

// StatementKind identifies the type of statement.
type StatementKind string

const (
	SelectKind StatementKind = "select"
	CountKind  StatementKind = "count"
	DeleteKind StatementKind = "delete"
	UpdateKind StatementKind = "update"
)

// Statement selects the shape a pipeline is rendered as.
type Statement interface {
	Kind() StatementKind
	render(s *state) (string, error)
}

// SelectStatement renders
// SELECT <cols|*> FROM <table> [WHERE ...] [ORDER BY ...] [LIMIT n] [ALLOW FILTERING].
type SelectStatement struct{}

// CountStatement renders SELECT count(*) FROM <table> [WHERE ...] [LIMIT n].
type CountStatement struct{}

// DeleteStatement renders DELETE FROM <table> [USING TIMESTAMP ms] [WHERE ...].
type DeleteStatement struct {
	Timestamp *time.Time
}

// UpdateStatement renders
// UPDATE <table> [USING TTL t [AND TIMESTAMP ms]] SET ... [WHERE ...] [IF ...].
type UpdateStatement struct {
	TTL       *int
	Timestamp *time.Time
}

// ParseKind parses a statement kind name.
func ParseKind(s string) (StatementKind, error) {
	switch k := StatementKind(s); k {
	case SelectKind, CountKind, DeleteKind, UpdateKind:
		return k, nil
	}
	return "", fmt.Errorf("unknown statement kind %q (want select, count, delete or update)", s)
}

// StatementOptions are the USING options of a statement.
type StatementOptions struct {
	TTL       *int
	Timestamp *time.Time
}

// NewStatement builds a statement of the given kind. TTL applies to update
// only and Timestamp to update and delete.
func NewStatement(kind StatementKind, opts StatementOptions) (Statement, error) {
	if opts.TTL != nil {
		if kind != UpdateKind {
			return nil, fmt.Errorf("ttl applies to update only")
		}
		if *opts.TTL < 0 {
			return nil, fmt.Errorf("ttl must not be negative, got %d", *opts.TTL)
		}
	}
	if opts.Timestamp != nil && kind != UpdateKind && kind != DeleteKind {
		return nil, fmt.Errorf("timestamp applies to update and delete only")
	}

	switch kind {
	case SelectKind:
		return SelectStatement{}, nil
	case CountKind:
		return CountStatement{}, nil
	case DeleteKind:
		return DeleteStatement{Timestamp: opts.Timestamp}, nil
	case UpdateKind:
		return UpdateStatement{TTL: opts.TTL, Timestamp: opts.Timestamp}, nil
	}
	return nil, fmt.Errorf("unknown statement kind %q", kind)
}

func (SelectStatement) Kind() StatementKind { return SelectKind }
func (CountStatement) Kind() StatementKind  { return CountKind }
func (DeleteStatement) Kind() StatementKind { return DeleteKind }
func (UpdateStatement) Kind() StatementKind { return UpdateKind }

// Result holds the output of compiling a pipeline for prepared execution.
type Result struct {
	// CQL is the statement text with one "?" per bound value.
	CQL string

	// Values are the bound values in placeholder order.
	Values []any
}

// =============================================================================
// Entry Points
// =============================================================================

// Compile renders root as stmt with positional placeholders.
func (c *Compiler) Compile(root query.Node, stmt Statement) (Result, error) {
	text, s, err := c.render(root, stmt)
	if err != nil {
		return Result{}, err
	}
	cql, values, err := s.params.Positional(text)
	if err != nil {
		return Result{}, c.fail(stmt, err)
	}
	c.logger.Debug("statement_compiled",
		"kind", stmt.Kind(),
		"mode", "positional",
		"cql", cql,
		"value_count", len(values),
	)
	return Result{CQL: cql, Values: values}, nil
}

// CompileInline renders root as stmt with every value encoded as a literal.
func (c *Compiler) CompileInline(root query.Node, stmt Statement) (string, error) {
	text, s, err := c.render(root, stmt)
	if err != nil {
		return "", err
	}
	cql, err := s.params.Inline(text, c.encoder)
	if err != nil {
		return "", c.fail(stmt, err)
	}
	c.logger.Debug("statement_compiled",
		"kind", stmt.Kind(),
		"mode", "inline",
		"cql", cql,
	)
	return cql, nil
}

// Select renders a SELECT statement.
func (c *Compiler) Select(root query.Node) (Result, error) {
	return c.Compile(root, SelectStatement{})
}

// Count renders a SELECT count(*) statement.
func (c *Compiler) Count(root query.Node) (Result, error) {
	return c.Compile(root, CountStatement{})
}

// Delete renders a DELETE statement. timestamp may be nil.
func (c *Compiler) Delete(root query.Node, timestamp *time.Time) (Result, error) {
	return c.Compile(root, DeleteStatement{Timestamp: timestamp})
}

// Update renders an UPDATE statement.
func (c *Compiler) Update(root query.Node, stmt UpdateStatement) (Result, error) {
	return c.Compile(root, stmt)
}

func (c *Compiler) render(root query.Node, stmt Statement) (string, *state, error) {
	s, err := c.walk(root)
	if err != nil {
		return "", nil, c.fail(stmt, err)
	}
	if s.quotedTable == "" {
		return "", nil, c.fail(stmt, fmt.Errorf("%w: pipeline has no table reference", ErrUnsupportedNode))
	}
	text, err := stmt.render(s)
	if err != nil {
		return "", nil, c.fail(stmt, err)
	}
	return text, s, nil
}

func (c *Compiler) fail(stmt Statement, err error) error {
	c.logger.Debug("compile_failed", "kind", stmt.Kind(), "error", err)
	return err
}

// =============================================================================
// Renderers
// =============================================================================

func (SelectStatement) render(s *state) (string, error) {
	var b strings.Builder

	b.WriteString("SELECT ")
	if cols := s.selectedColumns(); len(cols) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(cols, ", "))
	}

	b.WriteString(" FROM ")
	b.WriteString(s.quotedTable)

	writeWhere(&b, s)

	if len(s.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.orderBy, ", "))
	}

	writeLimit(&b, s)

	if s.filtering {
		b.WriteString(" ALLOW FILTERING")
	}

	return b.String(), nil
}

func (CountStatement) render(s *state) (string, error) {
	var b strings.Builder

	b.WriteString("SELECT count(*) FROM ")
	b.WriteString(s.quotedTable)

	writeWhere(&b, s)
	writeLimit(&b, s)

	return b.String(), nil
}

func (d DeleteStatement) render(s *state) (string, error) {
	if len(s.fields) > 0 {
		return "", ErrPartialDelete
	}

	var b strings.Builder

	b.WriteString("DELETE FROM ")
	b.WriteString(s.quotedTable)

	if d.Timestamp != nil {
		b.WriteString(" USING TIMESTAMP ")
		b.WriteString(strconv.FormatInt(d.Timestamp.UnixMilli(), 10))
	}

	writeWhere(&b, s)

	return b.String(), nil
}

func (u UpdateStatement) render(s *state) (string, error) {
	assignments, err := u.assignments(s)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("UPDATE ")
	b.WriteString(s.quotedTable)

	switch {
	case u.TTL != nil && u.Timestamp != nil:
		fmt.Fprintf(&b, " USING TTL %d AND TIMESTAMP %d", *u.TTL, u.Timestamp.UnixMilli())
	case u.TTL != nil:
		fmt.Fprintf(&b, " USING TTL %d", *u.TTL)
	case u.Timestamp != nil:
		fmt.Fprintf(&b, " USING TIMESTAMP %d", u.Timestamp.UnixMilli())
	}

	b.WriteString(" SET ")
	b.WriteString(strings.Join(assignments, ", "))

	writeWhere(&b, s)

	if s.updateIf.Len() > 0 {
		b.WriteString(" IF ")
		b.WriteString(s.updateIf.String())
	}

	return b.String(), nil
}

// assignments renders one "col = value" entry per assignable mapping, in
// mapping order. Selection-only entries carry no value and are skipped.
func (UpdateStatement) assignments(s *state) ([]string, error) {
	var set []string
	for _, m := range s.mappings.entries {
		if m.selection {
			continue
		}
		col, err := s.columns.lookup(m.binding)
		if err != nil {
			return nil, err
		}
		if isNull(m.value) {
			set = append(set, col+" = NULL")
		} else {
			set = append(set, col+" = "+s.params.Add(m.value))
		}
	}
	if len(set) == 0 {
		return nil, ErrNoAssignments
	}
	return set, nil
}

func writeWhere(b *strings.Builder, s *state) {
	if s.where.Len() > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(s.where.String())
	}
}

func writeLimit(b *strings.Builder, s *state) {
	if s.limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(s.limit))
	}
}
