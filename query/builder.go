package query

// =============================================================================
// Node Constructors
// =============================================================================

// Param references the lambda parameter with the given name.
func Param(name string) ParamExpr {
	return ParamExpr{Name: name}
}

// Field reads member from the lambda parameter param, e.g. Field("e", "id")
// for e.id.
func Field(param, member string) MemberExpr {
	return MemberExpr{Owner: ParamExpr{Name: param}, Member: member}
}

// Member reads member from owner. A nil owner denotes a static member.
func Member(owner Node, member string) MemberExpr {
	return MemberExpr{Owner: owner, Member: member}
}

// Const wraps a literal or captured value.
func Const(value any) ConstantExpr {
	return ConstantExpr{Value: value}
}

// Lambda creates a single-parameter lambda.
func Lambda(param string, body Node) LambdaExpr {
	return LambdaExpr{Param: param, Body: body}
}

// Object constructs an object from the given member bindings.
func Object(bindings ...Binding) ObjectExpr {
	return ObjectExpr{Bindings: bindings}
}

// Bind assigns value to member inside Object.
func Bind(member string, value Node) Binding {
	return Binding{Member: member, Value: value}
}

// Call creates a call node. Pass a nil target for static calls.
func Call(name string, target Node, args ...Node) CallExpr {
	return CallExpr{Name: name, Target: target, Args: args}
}

func Eq(left, right Node) BinaryExpr { return BinaryExpr{Op: OpEqual, Left: left, Right: right} }
func Ne(left, right Node) BinaryExpr { return BinaryExpr{Op: OpNotEqual, Left: left, Right: right} }
func Gt(left, right Node) BinaryExpr { return BinaryExpr{Op: OpGreater, Left: left, Right: right} }
func Ge(left, right Node) BinaryExpr {
	return BinaryExpr{Op: OpGreaterOrEqual, Left: left, Right: right}
}
func Lt(left, right Node) BinaryExpr { return BinaryExpr{Op: OpLess, Left: left, Right: right} }
func Le(left, right Node) BinaryExpr {
	return BinaryExpr{Op: OpLessOrEqual, Left: left, Right: right}
}
func Add(left, right Node) BinaryExpr { return BinaryExpr{Op: OpAdd, Left: left, Right: right} }
func Sub(left, right Node) BinaryExpr { return BinaryExpr{Op: OpSubtract, Left: left, Right: right} }
func Mul(left, right Node) BinaryExpr { return BinaryExpr{Op: OpMultiply, Left: left, Right: right} }

// And combines nodes with short-circuit AND, left to right.
// Returns nil if no nodes are provided.
func And(nodes ...Node) Node {
	return fold(OpAndAlso, nodes)
}

// Or combines nodes with short-circuit OR, left to right.
// Returns nil if no nodes are provided.
func Or(nodes ...Node) Node {
	return fold(OpOrElse, nodes)
}

func fold(op BinaryOp, nodes []Node) Node {
	if len(nodes) == 0 {
		return nil
	}
	result := nodes[0]
	for _, n := range nodes[1:] {
		result = BinaryExpr{Op: op, Left: result, Right: n}
	}
	return result
}

// Not negates a node.
func Not(n Node) UnaryExpr {
	return UnaryExpr{Op: OpNot, Operand: n}
}

// Negate is arithmetic negation.
func Negate(n Node) UnaryExpr {
	return UnaryExpr{Op: OpNegate, Operand: n}
}

// Nullable wraps n in a nullable conversion.
func Nullable(n Node) UnaryExpr {
	return UnaryExpr{Op: OpNullable, Operand: n}
}

// CompareTo builds a.compareTo(b), the three-way comparison.
func CompareTo(a, b Node) CallExpr {
	return CallExpr{Name: CallCompareTo, Target: a, Args: []Node{b}}
}

// Equals builds a.equals(b).
func Equals(a, b Node) CallExpr {
	return CallExpr{Name: CallEquals, Target: a, Args: []Node{b}}
}

// Contains builds collection.contains(item).
func Contains(collection, item Node) CallExpr {
	return CallExpr{Name: CallContains, Target: collection, Args: []Node{item}}
}

// TokenOf builds the partition token function token(args...).
func TokenOf(args ...Node) CallExpr {
	return CallExpr{Name: CallToken, Args: args}
}

// =============================================================================
// Pipeline Builder
// =============================================================================

// Pipeline is an immutable chain of pipeline stages rooted at a table.
// Every method returns a new Pipeline; the receiver is never modified.
type Pipeline struct {
	node Node
}

// From starts a pipeline over the given table.
func From(t Table) Pipeline {
	return Pipeline{node: TableExpr{Table: t}}
}

// Node returns the tree built so far.
func (p Pipeline) Node() Node {
	return p.node
}

func (p Pipeline) stage(name string, args ...Node) Pipeline {
	return Pipeline{node: CallExpr{Name: name, Args: append([]Node{p.node}, args...)}}
}

// Where filters by predicate. Successive calls are conjoined.
func (p Pipeline) Where(predicate Node) Pipeline {
	return p.stage(CallWhere, predicate)
}

// Select projects columns or, for updates, assigns values.
func (p Pipeline) Select(projection Node) Pipeline {
	return p.stage(CallSelect, projection)
}

// UpdateIf guards an update with a condition.
func (p Pipeline) UpdateIf(predicate Node) Pipeline {
	return p.stage(CallUpdateIf, predicate)
}

// Take limits the number of rows.
func (p Pipeline) Take(n int) Pipeline {
	return p.stage(CallTake, ConstantExpr{Value: n})
}

func (p Pipeline) OrderBy(key Node) Pipeline { return p.stage(CallOrderBy, key) }
func (p Pipeline) ThenBy(key Node) Pipeline  { return p.stage(CallThenBy, key) }
func (p Pipeline) OrderByDescending(key Node) Pipeline {
	return p.stage(CallOrderByDescending, key)
}
func (p Pipeline) ThenByDescending(key Node) Pipeline {
	return p.stage(CallThenByDescending, key)
}

// First limits the result to one row.
func (p Pipeline) First() Pipeline {
	return p.stage(CallFirst)
}

// FirstOrDefault limits the result to one row, optionally filtering first.
func (p Pipeline) FirstOrDefault(predicate ...Node) Pipeline {
	return p.stage(CallFirstOrDefault, predicate...)
}
