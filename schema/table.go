// Package schema describes the tables pipelines are compiled against.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shipq/cqlc/query"
	"github.com/shipq/cqlc/query/compile"
)

// ErrDuplicateMember is returned when two columns share a logical name.
var ErrDuplicateMember = errors.New("duplicate column member")

// Table is a static table description. It implements query.Table.
type Table struct {
	Keyspace  string
	Name      string
	Cols      []query.Column
	Filtering bool
}

var _ query.Table = (*Table)(nil)

// New builds a table from column specs of the form "member" or
// "member:column". The table is validated before it is returned.
func New(name string, columns ...string) (*Table, error) {
	t := &Table{Name: name}
	for _, spec := range columns {
		col, err := ParseColumn(spec)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		t.Cols = append(t.Cols, col)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(name string, columns ...string) *Table {
	t, err := New(name, columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseColumn parses a "member" or "member:column" spec.
func ParseColumn(spec string) (query.Column, error) {
	member, name, found := strings.Cut(strings.TrimSpace(spec), ":")
	member = strings.TrimSpace(member)
	name = strings.TrimSpace(name)
	if !found {
		name = member
	}
	if member == "" || name == "" {
		return query.Column{}, fmt.Errorf("invalid column spec %q", spec)
	}
	return query.Column{Member: member, Name: name}, nil
}

// WithKeyspace returns a copy of t qualified by keyspace.
func (t *Table) WithKeyspace(keyspace string) *Table {
	c := *t
	c.Keyspace = keyspace
	return &c
}

// WithFiltering returns a copy of t that allows filtering.
func (t *Table) WithFiltering() *Table {
	c := *t
	c.Filtering = true
	return &c
}

// Validate checks every identifier and rejects duplicate members.
func (t *Table) Validate() error {
	if err := compile.ValidateIdentifier(t.Name); err != nil {
		return fmt.Errorf("table name: %w", err)
	}
	if t.Keyspace != "" {
		if err := compile.ValidateIdentifier(t.Keyspace); err != nil {
			return fmt.Errorf("table %s keyspace: %w", t.Name, err)
		}
	}
	if len(t.Cols) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}

	seen := make(map[string]bool, len(t.Cols))
	for _, c := range t.Cols {
		if err := compile.ValidateIdentifier(c.Name); err != nil {
			return fmt.Errorf("table %s column: %w", t.Name, err)
		}
		if seen[c.Member] {
			return fmt.Errorf("table %s: %w %q", t.Name, ErrDuplicateMember, c.Member)
		}
		seen[c.Member] = true
	}
	return nil
}

func (t *Table) TableName() string { return t.Name }

func (t *Table) QuotedTableName() string {
	if t.Keyspace == "" {
		return compile.QuoteIdentifier(t.Name)
	}
	return compile.QuoteIdentifier(t.Keyspace) + "." + compile.QuoteIdentifier(t.Name)
}

func (t *Table) Columns() []query.Column {
	return append([]query.Column(nil), t.Cols...)
}

func (t *Table) AllowFiltering() bool { return t.Filtering }

// Column returns the physical column name for member.
func (t *Table) Column(member string) (string, bool) {
	for _, c := range t.Cols {
		if c.Member == member {
			return c.Name, true
		}
	}
	return "", false
}
