package query

// Visitor is called for each node during a walk.
// Return false to stop walking the current branch.
type Visitor func(n Node) bool

// Walk traverses a tree in depth-first order, calling visit for each node.
// If visit returns false, children of that node are not visited.
func Walk(n Node, visit Visitor) {
	if n == nil {
		return
	}

	if !visit(n) {
		return
	}

	switch e := n.(type) {
	case CallExpr:
		Walk(e.Target, visit)
		for _, arg := range e.Args {
			Walk(arg, visit)
		}

	case LambdaExpr:
		Walk(e.Body, visit)

	case ObjectExpr:
		for _, binding := range e.Bindings {
			Walk(binding.Value, visit)
		}

	case UnaryExpr:
		Walk(e.Operand, visit)

	case BinaryExpr:
		Walk(e.Left, visit)
		Walk(e.Right, visit)

	case MemberExpr:
		Walk(e.Owner, visit)

	// These node types have no children:
	// - TableExpr
	// - ConstantExpr
	// - ParamExpr
	}
}

// ReferencesParam reports whether the tree reads a lambda parameter and
// therefore cannot be folded into a constant.
func ReferencesParam(n Node) bool {
	found := false
	Walk(n, func(n Node) bool {
		if _, ok := n.(ParamExpr); ok {
			found = true
		}
		return !found
	})
	return found
}

// Stages returns the pipeline calls of a tree from the innermost (closest
// to the table) to the outermost.
func Stages(n Node) []CallExpr {
	var stages []CallExpr
	for {
		call, ok := n.(CallExpr)
		if !ok || !IsPipelineCall(call.Name) || len(call.Args) == 0 {
			break
		}
		stages = append(stages, call)
		n = call.Args[0]
	}
	for i, j := 0, len(stages)-1; i < j; i, j = i+1, j-1 {
		stages[i], stages[j] = stages[j], stages[i]
	}
	return stages
}
