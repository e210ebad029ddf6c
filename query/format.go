package query

import (
	"fmt"
	"strings"
)

var binarySymbols = map[BinaryOp]string{
	OpEqual:          "==",
	OpNotEqual:       "!=",
	OpGreater:        ">",
	OpGreaterOrEqual: ">=",
	OpLess:           "<",
	OpLessOrEqual:    "<=",
	OpAnd:            "&",
	OpAndAlso:        "&&",
	OpOr:             "|",
	OpOrElse:         "||",
	OpAdd:            "+",
	OpSubtract:       "-",
	OpMultiply:       "*",
	OpDivide:         "/",
	OpModulo:         "%",
}

// Symbol returns the operator as it reads in source form, e.g. "==".
func (op BinaryOp) Symbol() string {
	if s, ok := binarySymbols[op]; ok {
		return s
	}
	return string(op)
}

func (e TableExpr) String() string {
	if e.Table == nil {
		return "table(<nil>)"
	}
	return "table(" + e.Table.QuotedTableName() + ")"
}

func (e CallExpr) String() string {
	var b strings.Builder
	if e.Target != nil {
		b.WriteString(nodeString(e.Target))
		b.WriteString(".")
	}
	b.WriteString(e.Name)
	b.WriteString("(")
	for i, arg := range e.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(nodeString(arg))
	}
	b.WriteString(")")
	return b.String()
}

func (e LambdaExpr) String() string {
	return e.Param + " => " + nodeString(e.Body)
}

func (e ObjectExpr) String() string {
	var b strings.Builder
	b.WriteString("new {")
	for i, binding := range e.Bindings {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" ")
		b.WriteString(binding.Member)
		b.WriteString(" = ")
		b.WriteString(nodeString(binding.Value))
	}
	b.WriteString(" }")
	return b.String()
}

func (e UnaryExpr) String() string {
	switch e.Op {
	case OpNot:
		return "Not(" + nodeString(e.Operand) + ")"
	case OpNegate:
		return "-" + nodeString(e.Operand)
	case OpNullable:
		return "Nullable(" + nodeString(e.Operand) + ")"
	}
	return string(e.Op) + "(" + nodeString(e.Operand) + ")"
}

func (e BinaryExpr) String() string {
	return "(" + nodeString(e.Left) + " " + e.Op.Symbol() + " " + nodeString(e.Right) + ")"
}

func (e ConstantExpr) String() string {
	switch v := e.Value.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	case Token:
		parts := make([]string, len(v.Values))
		for i, val := range v.Values {
			parts[i] = fmt.Sprintf("%v", val)
		}
		return "token(" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprintf("%v", e.Value)
}

func (e MemberExpr) String() string {
	if e.Owner == nil {
		return e.Member
	}
	return nodeString(e.Owner) + "." + e.Member
}

func (e ParamExpr) String() string { return e.Name }

func nodeString(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}
