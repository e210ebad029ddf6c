package compile

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/shipq/cqlc/query"
)

// ErrNotConstant is returned by ConstantFolder for shapes it cannot fold.
var ErrNotConstant = errors.New("expression is not a closed-form value")

// Evaluator folds a sub-tree that has no query-language counterpart into a
// value, which the compiler then binds as a parameter.
type Evaluator interface {
	Evaluate(n query.Node) (any, error)
}

// Func is a host function callable from a pipeline through a CallExpr.
// For instance calls the target is passed as the first argument.
type Func func(args ...any) (any, error)

// ConstantFolder is the default Evaluator. It folds an explicit set of
// shapes and nothing else:
//
//   - ConstantExpr
//   - MemberExpr reading a struct field or string-keyed map entry of a
//     folded owner, or a registered static when the owner is nil
//   - UnaryExpr (negate, not, nullable) over a folded operand
//   - BinaryExpr (arithmetic, comparison, logical) over folded operands
//   - CallExpr naming a registered Func
//
// Lambda parameters, tables, lambdas, object construction and pipeline
// calls never fold.
type ConstantFolder struct {
	Statics map[string]any
	Funcs   map[string]Func
}

func (f ConstantFolder) Evaluate(n query.Node) (any, error) {
	switch e := n.(type) {
	case query.ConstantExpr:
		return e.Value, nil

	case query.MemberExpr:
		if e.Owner == nil {
			v, ok := f.Statics[e.Member]
			if !ok {
				return nil, fmt.Errorf("%w: unknown static member %s", ErrNotConstant, e.Member)
			}
			return v, nil
		}
		owner, err := f.Evaluate(e.Owner)
		if err != nil {
			return nil, err
		}
		return memberOf(owner, e.Member)

	case query.UnaryExpr:
		v, err := f.Evaluate(e.Operand)
		if err != nil {
			return nil, err
		}
		return foldUnary(e.Op, v)

	case query.BinaryExpr:
		l, err := f.Evaluate(e.Left)
		if err != nil {
			return nil, err
		}
		r, err := f.Evaluate(e.Right)
		if err != nil {
			return nil, err
		}
		return foldBinary(e.Op, l, r)

	case query.CallExpr:
		if query.IsPipelineCall(e.Name) {
			return nil, fmt.Errorf("%w: pipeline call %s", ErrNotConstant, e.Name)
		}
		fn, ok := f.Funcs[e.Name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown function %s", ErrNotConstant, e.Name)
		}
		var args []any
		if e.Target != nil {
			v, err := f.Evaluate(e.Target)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		for _, arg := range e.Args {
			v, err := f.Evaluate(arg)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		return fn(args...)
	}

	if n == nil {
		return nil, fmt.Errorf("%w: missing expression", ErrNotConstant)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotConstant, n.Kind())
}

// memberOf reads a struct field or map entry by name.
func memberOf(owner any, name string) (any, error) {
	rv := reflect.ValueOf(owner)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("read %s of nil value", name)
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		field := rv.FieldByName(name)
		if !field.IsValid() {
			return nil, fmt.Errorf("%s has no field %s", rv.Type(), name)
		}
		if !field.CanInterface() {
			return nil, fmt.Errorf("field %s of %s is not exported", name, rv.Type())
		}
		return field.Interface(), nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot read %s from map keyed by %s", name, rv.Type().Key())
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, fmt.Errorf("map has no key %q", name)
		}
		return v.Interface(), nil
	}

	return nil, fmt.Errorf("cannot read %s from %T", name, owner)
}

func foldUnary(op query.UnaryOp, v any) (any, error) {
	switch op {
	case query.OpNullable:
		return v, nil
	case query.OpNot:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("not: operand %T is not a bool", v)
		}
		return !b, nil
	case query.OpNegate:
		if i, ok := asInt(v); ok {
			return sameKind(v, -i), nil
		}
		if f, ok := asFloat(v); ok {
			return -f, nil
		}
		return nil, fmt.Errorf("negate: operand %T is not a number", v)
	}
	return nil, fmt.Errorf("%w: unary operator %s", ErrNotConstant, op)
}

func foldBinary(op query.BinaryOp, l, r any) (any, error) {
	switch op {
	case query.OpAnd, query.OpAndAlso, query.OpOr, query.OpOrElse:
		lb, lok := l.(bool)
		rb, rok := r.(bool)
		if !lok || !rok {
			return nil, fmt.Errorf("%s: operands %T and %T are not bools", op.Symbol(), l, r)
		}
		if op == query.OpAnd || op == query.OpAndAlso {
			return lb && rb, nil
		}
		return lb || rb, nil

	case query.OpEqual:
		return valuesEqual(l, r), nil
	case query.OpNotEqual:
		return !valuesEqual(l, r), nil

	case query.OpGreater, query.OpGreaterOrEqual, query.OpLess, query.OpLessOrEqual:
		c, err := compareValues(l, r)
		if err != nil {
			return nil, err
		}
		switch op {
		case query.OpGreater:
			return c > 0, nil
		case query.OpGreaterOrEqual:
			return c >= 0, nil
		case query.OpLess:
			return c < 0, nil
		default:
			return c <= 0, nil
		}

	case query.OpAdd, query.OpSubtract, query.OpMultiply, query.OpDivide, query.OpModulo:
		return arith(op, l, r)
	}
	return nil, fmt.Errorf("%w: binary operator %s", ErrNotConstant, op)
}

func arith(op query.BinaryOp, l, r any) (any, error) {
	if ls, ok := l.(string); ok && op == query.OpAdd {
		if rs, ok := r.(string); ok {
			return ls + rs, nil
		}
	}

	if li, ok := asInt(l); ok {
		if ri, ok := asInt(r); ok {
			var res int64
			switch op {
			case query.OpAdd:
				res = li + ri
			case query.OpSubtract:
				res = li - ri
			case query.OpMultiply:
				res = li * ri
			case query.OpDivide, query.OpModulo:
				if ri == 0 {
					return nil, fmt.Errorf("integer division by zero")
				}
				if op == query.OpDivide {
					res = li / ri
				} else {
					res = li % ri
				}
			}
			if reflect.TypeOf(l) == reflect.TypeOf(r) {
				return sameKind(l, res), nil
			}
			return res, nil
		}
	}

	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return nil, fmt.Errorf("%s: operands %T and %T are not numbers", op.Symbol(), l, r)
	}
	switch op {
	case query.OpAdd:
		return lf + rf, nil
	case query.OpSubtract:
		return lf - rf, nil
	case query.OpMultiply:
		return lf * rf, nil
	case query.OpDivide:
		return lf / rf, nil
	}
	return nil, fmt.Errorf("%s: operands must be integers", op.Symbol())
}

func valuesEqual(l, r any) bool {
	if li, ok := asInt(l); ok {
		if ri, ok := asInt(r); ok {
			return li == ri
		}
	}
	if lf, ok := asFloat(l); ok {
		if rf, ok := asFloat(r); ok {
			return lf == rf
		}
	}
	return reflect.DeepEqual(l, r)
}

func compareValues(l, r any) (int, error) {
	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok {
			switch {
			case ls < rs:
				return -1, nil
			case ls > rs:
				return 1, nil
			}
			return 0, nil
		}
	}
	if li, ok := asInt(l); ok {
		if ri, ok := asInt(r); ok {
			switch {
			case li < ri:
				return -1, nil
			case li > ri:
				return 1, nil
			}
			return 0, nil
		}
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return 0, fmt.Errorf("cannot compare %T with %T", l, r)
	}
	switch {
	case lf < rf:
		return -1, nil
	case lf > rf:
		return 1, nil
	}
	return 0, nil
}

func asInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

// sameKind converts an integer result back to the type of like.
func sameKind(like any, n int64) any {
	t := reflect.TypeOf(like)
	if t == nil {
		return n
	}
	return reflect.ValueOf(n).Convert(t).Interface()
}
