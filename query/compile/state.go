package compile

import (
	"reflect"
	"strings"

	"github.com/shipq/cqlc/query"
)

// state holds the mutable state of one compile. A fresh state is created
// for every render call and discarded afterwards.
type state struct {
	evaluator Evaluator

	quotedTable string
	columns     columnMap
	filtering   bool

	where    strings.Builder
	updateIf strings.Builder

	mappings mappings
	fields   map[string]bool
	orderBy  []string
	limit    int

	params Params
}

func newState(evaluator Evaluator) *state {
	return &state{
		evaluator: evaluator,
		fields:    make(map[string]bool),
	}
}

// loadTable resets the table-derived state from a table reference.
func (s *state) loadTable(t query.Table) {
	s.quotedTable = t.QuotedTableName()
	s.filtering = t.AllowFiltering()
	s.columns = newColumnMap(t.TableName(), t.Columns())
}

// selectedColumns returns the quoted names of the projected fields in
// table declaration order.
func (s *state) selectedColumns() []string {
	var cols []string
	for _, member := range s.columns.order {
		if s.fields[member] {
			cols = append(cols, s.columns.quoted[member])
		}
	}
	return cols
}

// =============================================================================
// Column Map
// =============================================================================

// columnMap translates logical members to quoted physical column names.
type columnMap struct {
	table  string
	order  []string
	quoted map[string]string
}

func newColumnMap(table string, cols []query.Column) columnMap {
	m := columnMap{
		table:  table,
		order:  make([]string, 0, len(cols)),
		quoted: make(map[string]string, len(cols)),
	}
	for _, c := range cols {
		if _, dup := m.quoted[c.Member]; !dup {
			m.order = append(m.order, c.Member)
		}
		m.quoted[c.Member] = QuoteIdentifier(c.Name)
	}
	return m
}

func (m columnMap) has(member string) bool {
	_, ok := m.quoted[member]
	return ok
}

func (m columnMap) lookup(member string) (string, error) {
	q, ok := m.quoted[member]
	if !ok {
		return "", &UnknownColumnError{Member: member, Table: m.table}
	}
	return q, nil
}

// =============================================================================
// Mappings
// =============================================================================

// mapping is one projection or assignment entry.
type mapping struct {
	// binding is the member being bound (the lambda parameter name for a
	// plain projection).
	binding string

	// column is the logical column the entry assigns. Empty marks a value
	// that is evaluated but not assignable.
	column string

	value any

	// selection marks a bare column reference that carries no value.
	selection bool
}

// mappings is an ordered set keyed by binding name. Re-binding a name
// replaces the entry in place.
type mappings struct {
	entries []mapping
	index   map[string]int
}

func (m *mappings) set(e mapping) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[e.binding]; ok {
		m.entries[i] = e
		return
	}
	m.index[e.binding] = len(m.entries)
	m.entries = append(m.entries, e)
}

// isNull reports whether v is nil or a nil pointer, map, slice or interface.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
