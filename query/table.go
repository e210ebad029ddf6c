package query

// Table describes the entity collection a pipeline starts from.
// Implementations are expected to be immutable.
type Table interface {
	// TableName returns the unquoted table name, used to look tables up.
	TableName() string

	// QuotedTableName returns the table identifier as it appears in
	// statements, including any keyspace prefix.
	QuotedTableName() string

	// Columns returns the logical-to-physical column mapping in
	// declaration order.
	Columns() []Column

	// AllowFiltering reports whether SELECT statements on this table
	// carry ALLOW FILTERING.
	AllowFiltering() bool
}

// Column maps a logical member name to its physical (unquoted) column name.
type Column struct {
	Member string
	Name   string
}

// Token is a partition token value. When a captured Token is compared in a
// condition it expands to token(v0, v1, ...) with one placeholder per value.
type Token struct {
	Values []any
}

// NewToken creates a partition token over the given key values.
func NewToken(values ...any) Token {
	return Token{Values: values}
}
