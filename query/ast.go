package query

// Node is the interface for all nodes of a query pipeline tree.
// The set of implementations is closed: TableExpr, CallExpr, LambdaExpr,
// ObjectExpr, UnaryExpr, BinaryExpr, ConstantExpr, MemberExpr and ParamExpr.
type Node interface {
	Kind() NodeKind
	String() string
	pipelineNode() // marker method to identify node types
}

// NodeKind names the variant of a Node.
type NodeKind string

const (
	KindTable     NodeKind = "TableReference"
	KindCall      NodeKind = "Call"
	KindLambda    NodeKind = "Lambda"
	KindObject    NodeKind = "ObjectConstruction"
	KindUnary     NodeKind = "UnaryOp"
	KindBinary    NodeKind = "BinaryOp"
	KindConstant  NodeKind = "Constant"
	KindMember    NodeKind = "MemberAccess"
	KindParameter NodeKind = "Parameter"
)

// TableExpr is the root of every pipeline: the entity collection being queried.
type TableExpr struct {
	Table Table
}

func (TableExpr) Kind() NodeKind { return KindTable }
func (TableExpr) pipelineNode()  {}

// CallExpr is a method or function call.
//
// Pipeline stages (where, select, take, ...) are static calls: Target is nil
// and Args[0] is the receiver pipeline. Instance calls such as
// a.compareTo(b) carry the receiver in Target.
type CallExpr struct {
	Name   string
	Target Node
	Args   []Node
}

func (CallExpr) Kind() NodeKind { return KindCall }
func (CallExpr) pipelineNode()  {}

// LambdaExpr is a single-parameter function literal, e.g. e => e.id == 5.
type LambdaExpr struct {
	Param string
	Body  Node
}

func (LambdaExpr) Kind() NodeKind { return KindLambda }
func (LambdaExpr) pipelineNode()  {}

// ObjectExpr constructs an object from member bindings, e.g.
// new { name = "x", score = 3 }.
type ObjectExpr struct {
	Bindings []Binding
}

func (ObjectExpr) Kind() NodeKind { return KindObject }
func (ObjectExpr) pipelineNode()  {}

// Binding assigns Value to the named member of a constructed object.
type Binding struct {
	Member string
	Value  Node
}

// UnaryExpr represents a unary operation.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Node
}

func (UnaryExpr) Kind() NodeKind { return KindUnary }
func (UnaryExpr) pipelineNode()  {}

// UnaryOp represents unary operators.
type UnaryOp string

const (
	OpNot    UnaryOp = "not"
	OpNegate UnaryOp = "negate"
	// OpNullable wraps a value into its nullable form. It carries no
	// meaning for the generated statement and is unwrapped by the compiler.
	OpNullable UnaryOp = "nullable"
)

// BinaryExpr represents a binary operation (left op right).
type BinaryExpr struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (BinaryExpr) Kind() NodeKind { return KindBinary }
func (BinaryExpr) pipelineNode()  {}

// BinaryOp represents binary operators.
type BinaryOp string

const (
	OpEqual          BinaryOp = "eq"
	OpNotEqual       BinaryOp = "ne"
	OpGreater        BinaryOp = "gt"
	OpGreaterOrEqual BinaryOp = "ge"
	OpLess           BinaryOp = "lt"
	OpLessOrEqual    BinaryOp = "le"
	OpAnd            BinaryOp = "and"
	OpAndAlso        BinaryOp = "andalso"
	OpOr             BinaryOp = "or"
	OpOrElse         BinaryOp = "orelse"
	OpAdd            BinaryOp = "add"
	OpSubtract       BinaryOp = "sub"
	OpMultiply       BinaryOp = "mul"
	OpDivide         BinaryOp = "div"
	OpModulo         BinaryOp = "mod"
)

// IsComparison reports whether op is one of the six comparison operators.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual:
		return true
	}
	return false
}

// ConstantExpr is a literal or captured value.
type ConstantExpr struct {
	Value any
}

func (ConstantExpr) Kind() NodeKind { return KindConstant }
func (ConstantExpr) pipelineNode()  {}

// MemberExpr reads a member from Owner. A nil Owner denotes a static member.
type MemberExpr struct {
	Owner  Node
	Member string
}

func (MemberExpr) Kind() NodeKind { return KindMember }
func (MemberExpr) pipelineNode()  {}

// ParamExpr references the parameter of the enclosing lambda.
type ParamExpr struct {
	Name string
}

func (ParamExpr) Kind() NodeKind { return KindParameter }
func (ParamExpr) pipelineNode()  {}

// Names of the calls the compiler gives meaning to.
const (
	CallSelect            = "select"
	CallWhere             = "where"
	CallUpdateIf          = "updateIf"
	CallTake              = "take"
	CallOrderBy           = "orderBy"
	CallThenBy            = "thenBy"
	CallOrderByDescending = "orderByDescending"
	CallThenByDescending  = "thenByDescending"
	CallFirst             = "first"
	CallFirstOrDefault    = "firstOrDefault"

	CallContains  = "contains"
	CallCompareTo = "compareTo"
	CallEquals    = "equals"
	CallToken     = "token"
)

// IsPipelineCall reports whether name is one of the pipeline stage calls.
func IsPipelineCall(name string) bool {
	switch name {
	case CallSelect, CallWhere, CallUpdateIf, CallTake,
		CallOrderBy, CallThenBy, CallOrderByDescending, CallThenByDescending,
		CallFirst, CallFirstOrDefault:
		return true
	}
	return false
}
