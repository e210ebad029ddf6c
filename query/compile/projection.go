package compile

import "github.com/shipq/cqlc/query"

// =============================================================================
// Projection and Assignment Compilation (Projecting/Binding phases)
// =============================================================================

// bindObject compiles every member binding of an object construction with
// the binding name set to the bound member.
func (s *state) bindObject(n query.ObjectExpr, sc scope) error {
	for _, b := range n.Bindings {
		if _, ok := b.Value.(query.ParamExpr); ok {
			return unsupported(b.Value, sc)
		}
		if b.Value == nil {
			return unsupported(n, sc)
		}
		if err := s.visit(b.Value, sc.bind(b.Member)); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) bindUnary(n query.UnaryExpr, sc scope) error {
	if n.Op == query.OpNullable {
		return s.visit(n.Operand, sc)
	}
	return s.bindValue(n, sc)
}

// bindValue folds n and records it under the current binding name.
func (s *state) bindValue(n query.Node, sc scope) error {
	v, err := s.evaluate(n, sc)
	if err != nil {
		return err
	}
	s.assign(sc.binding, v)
	return nil
}

// assign records a value for binding. Only bindings that name a column are
// assignable and projected; the rest are kept for bookkeeping.
func (s *state) assign(binding string, v any) {
	if s.columns.has(binding) {
		s.mappings.set(mapping{binding: binding, column: binding, value: v})
		s.fields[binding] = true
		return
	}
	s.mappings.set(mapping{binding: binding, value: v})
}

// selectColumn registers a bare e.member reference as a projected column.
func (s *state) selectColumn(member string, sc scope) error {
	if _, err := s.columns.lookup(member); err != nil {
		return err
	}
	s.mappings.set(mapping{binding: sc.binding, column: member, selection: true})
	s.fields[member] = true
	return nil
}
