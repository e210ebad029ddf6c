package compile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shipq/cqlc/query"
)

// identifierRegex matches valid CQL identifiers.
// Identifiers must start with a letter or underscore, followed by letters, digits, or underscores.
var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateIdentifier checks that a name is a valid CQL identifier.
// Valid identifiers match: ^[a-zA-Z_][a-zA-Z0-9_]*$
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: must start with a letter or underscore and contain only letters, digits, and underscores", name)
	}
	return nil
}

// QuoteIdentifier quotes a table or column name.
// Embedded double quotes are escaped by doubling them.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// conditionOps maps the binary operators a condition can contain to their text.
var conditionOps = map[query.BinaryOp]string{
	query.OpAnd:            "AND",
	query.OpAndAlso:        "AND",
	query.OpEqual:          "=",
	query.OpNotEqual:       "<>",
	query.OpGreater:        ">",
	query.OpGreaterOrEqual: ">=",
	query.OpLess:           "<",
	query.OpLessOrEqual:    "<=",
}

// disjunctionOps can never appear in a condition.
var disjunctionOps = map[query.BinaryOp]bool{
	query.OpOr:     true,
	query.OpOrElse: true,
}

// invertedOps maps a comparison to the one that holds with swapped operands.
var invertedOps = map[query.BinaryOp]query.BinaryOp{
	query.OpEqual:          query.OpEqual,
	query.OpNotEqual:       query.OpNotEqual,
	query.OpGreater:        query.OpLess,
	query.OpGreaterOrEqual: query.OpLessOrEqual,
	query.OpLess:           query.OpGreater,
	query.OpLessOrEqual:    query.OpGreaterOrEqual,
}
