package compile

import (
	"fmt"
	"reflect"

	"github.com/shipq/cqlc/query"
)

// =============================================================================
// Predicate Compilation (Condition phase)
// =============================================================================

func (s *state) conditionUnary(n query.UnaryExpr, sc scope) error {
	switch n.Op {
	case query.OpNot:
		sc.write("NOT (")
		if err := s.visit(dropNullable(n.Operand), sc.operand()); err != nil {
			return err
		}
		sc.write(")")
		return nil

	case query.OpNullable:
		return s.visit(n.Operand, sc)
	}
	return s.conditionValue(n, sc)
}

func (s *state) conditionBinary(n query.BinaryExpr, sc scope) error {
	if disjunctionOps[n.Op] {
		return &UnsupportedOperatorError{Op: n.Op, Node: n}
	}

	text, ok := conditionOps[n.Op]
	if !ok {
		// Arithmetic and other non-condition operators fold to a value.
		return s.conditionValue(n, sc)
	}

	if n.Op.IsComparison() {
		// x.compareTo(y) OP 0  =>  x OP y
		if isCompareTo(n.Left) {
			if !isZero(n.Right) {
				return unsupported(n, sc)
			}
			return s.visit(n.Left, sc.comparing(text))
		}
		// 0 OP x.compareTo(y)  =>  x inverse(OP) y
		if isCompareTo(n.Right) {
			if !isZero(n.Left) {
				return unsupported(n, sc)
			}
			return s.visit(n.Right, sc.comparing(conditionOps[invertedOps[n.Op]]))
		}
	}

	if err := s.visit(dropNullable(n.Left), sc.operand()); err != nil {
		return err
	}
	sc.write(" " + text + " ")
	return s.visit(dropNullable(n.Right), sc.operand())
}

func (s *state) conditionCall(n query.CallExpr, sc scope) error {
	switch n.Name {
	case query.CallContains:
		return s.conditionContains(n, sc)

	case query.CallCompareTo:
		if sc.compare == "" {
			return unsupported(n, sc)
		}
		left, right, ok := callOperands(n)
		if !ok {
			return unsupported(n, sc)
		}
		return s.conditionComparison(left, sc.compare, right, sc)

	case query.CallEquals:
		left, right, ok := callOperands(n)
		if !ok {
			return unsupported(n, sc)
		}
		return s.conditionComparison(left, "=", right, sc)

	case query.CallToken:
		if len(n.Args) == 0 || n.Target != nil {
			return unsupported(n, sc)
		}
		sc.write("token(")
		for i, arg := range n.Args {
			if i > 0 {
				sc.write(", ")
			}
			if err := s.visit(dropNullable(arg), sc.operand()); err != nil {
				return err
			}
		}
		sc.write(")")
		return nil
	}
	return s.conditionValue(n, sc)
}

func (s *state) conditionComparison(left query.Node, op string, right query.Node, sc scope) error {
	if err := s.visit(dropNullable(left), sc.operand()); err != nil {
		return err
	}
	sc.write(" " + op + " ")
	return s.visit(dropNullable(right), sc.operand())
}

// conditionContains compiles collection.contains(item) (or the static
// contains(collection, item)) to "item IN (?, ?, ...)".
func (s *state) conditionContains(n query.CallExpr, sc scope) error {
	collection, item, ok := callOperands(n)
	if !ok {
		return unsupported(n, sc)
	}

	if err := s.visit(dropNullable(item), sc.operand()); err != nil {
		return err
	}

	v, err := s.evaluate(collection, sc)
	if err != nil {
		return err
	}
	values, err := elements(v)
	if err != nil {
		return fmt.Errorf("contains: %s: %w", collection.String(), err)
	}
	if len(values) == 0 {
		return &EmptyMembershipError{Collection: collection}
	}

	sc.write(" IN (")
	for i, val := range values {
		if i > 0 {
			sc.write(", ")
		}
		sc.write(s.params.Add(val))
	}
	sc.write(")")
	return nil
}

// conditionValue folds n and binds the result as a placeholder.
func (s *state) conditionValue(n query.Node, sc scope) error {
	v, err := s.evaluate(n, sc)
	if err != nil {
		return err
	}
	return s.bindCondition(v, n, sc)
}

// bindCondition writes the placeholder for a value. A partition token
// expands to token(?, ?, ...).
func (s *state) bindCondition(v any, n query.Node, sc scope) error {
	tok, ok := v.(query.Token)
	if !ok {
		if p, isPtr := v.(*query.Token); isPtr && p != nil {
			tok, ok = *p, true
		}
	}
	if !ok {
		sc.write(s.params.Add(v))
		return nil
	}

	if len(tok.Values) == 0 {
		return unsupported(n, sc)
	}
	sc.write("token(")
	for i, val := range tok.Values {
		if i > 0 {
			sc.write(", ")
		}
		sc.write(s.params.Add(val))
	}
	sc.write(")")
	return nil
}

// callOperands returns the two operands of a binary method call in either
// instance form (a.m(b)) or static form (m(a, b)).
func callOperands(n query.CallExpr) (query.Node, query.Node, bool) {
	var left, right query.Node
	switch {
	case n.Target != nil && len(n.Args) == 1:
		left, right = n.Target, n.Args[0]
	case n.Target == nil && len(n.Args) == 2:
		left, right = n.Args[0], n.Args[1]
	}
	if left == nil || right == nil {
		return nil, nil, false
	}
	return left, right, true
}

func dropNullable(n query.Node) query.Node {
	if u, ok := n.(query.UnaryExpr); ok && u.Op == query.OpNullable {
		return u.Operand
	}
	return n
}

func isCompareTo(n query.Node) bool {
	call, ok := dropNullable(n).(query.CallExpr)
	return ok && call.Name == query.CallCompareTo
}

func isZero(n query.Node) bool {
	c, ok := dropNullable(n).(query.ConstantExpr)
	if !ok {
		return false
	}
	i, ok := asInt(c.Value)
	return ok && i == 0
}

// elements returns the items of a slice or array.
func elements(v any) ([]any, error) {
	if items, ok := v.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, nil
	}
	return nil, fmt.Errorf("value of type %T is not a collection", v)
}
