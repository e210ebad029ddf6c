package compile

import (
	"errors"
	"fmt"

	"github.com/shipq/cqlc/query"
)

var (
	ErrUnsupportedNode     = errors.New("unsupported expression")
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrUnknownColumn       = errors.New("unknown column")
	ErrEmptyMembershipSet  = errors.New("empty membership set")
	ErrNoAssignments       = errors.New("nothing to update")
	ErrPartialDelete       = errors.New("unable to delete entity partially")
)

// UnsupportedNodeError reports a node shape that has no rule in the phase
// where it was found.
type UnsupportedNodeError struct {
	Node  query.Node
	Phase Phase
}

func (e *UnsupportedNodeError) Error() string {
	if e.Node == nil {
		return fmt.Sprintf("missing expression in %s phase", e.Phase)
	}
	return fmt.Sprintf("the expression %s = [%s] is not supported in %s phase",
		e.Node.Kind(), e.Node.String(), e.Phase)
}

func (e *UnsupportedNodeError) Unwrap() error { return ErrUnsupportedNode }

// UnsupportedOperatorError reports a disjunction inside a condition.
type UnsupportedOperatorError struct {
	Op   query.BinaryOp
	Node query.Node
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("operator %s in [%s] is not supported: conditions cannot contain a disjunction",
		e.Op.Symbol(), e.Node.String())
}

func (e *UnsupportedOperatorError) Unwrap() error { return ErrUnsupportedOperator }

// UnknownColumnError reports a member with no entry in the column map.
type UnknownColumnError struct {
	Member string
	Table  string
}

func (e *UnknownColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("unknown column: %s", e.Member)
	}
	return fmt.Sprintf("unknown column: %s (table %s)", e.Member, e.Table)
}

func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }

// EmptyMembershipError reports a contains test whose collection is empty.
type EmptyMembershipError struct {
	Collection query.Node
}

func (e *EmptyMembershipError) Error() string {
	return fmt.Sprintf("collection %s is empty", e.Collection.String())
}

func (e *EmptyMembershipError) Unwrap() error { return ErrEmptyMembershipSet }

func unsupported(n query.Node, sc scope) error {
	return &UnsupportedNodeError{Node: n, Phase: sc.phase}
}
