package compile

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shipq/cqlc/logging"
	"github.com/shipq/cqlc/query"
)

// Compiler compiles query pipelines to CQL statements.
//
// A Compiler holds configuration only; every render call builds and
// discards its own compile state. It is not safe for concurrent use.
type Compiler struct {
	evaluator Evaluator
	encoder   Encoder
	logger    *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithEvaluator sets the evaluator used to fold captured sub-expressions.
func WithEvaluator(e Evaluator) Option {
	return func(c *Compiler) { c.evaluator = e }
}

// WithEncoder sets the literal encoder used by inline rendering.
func WithEncoder(e Encoder) Option {
	return func(c *Compiler) { c.encoder = e }
}

// WithLogger sets the logger that receives compile events at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// NewCompiler creates a compiler. Without options it folds with
// ConstantFolder, encodes with EncodeLiteral and does not log.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		evaluator: ConstantFolder{},
		encoder:   DefaultEncoder,
		logger:    logging.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// walk runs the single compile pass over the pipeline rooted at root.
func (c *Compiler) walk(root query.Node) (*state, error) {
	s := newState(c.evaluator)
	if err := s.visit(root, scope{phase: PhaseNone, target: &s.where}); err != nil {
		return nil, err
	}
	return s, nil
}

// =============================================================================
// Tree Walk
// =============================================================================

func (s *state) visit(n query.Node, sc scope) error {
	switch e := n.(type) {
	case query.TableExpr:
		if e.Table == nil {
			return unsupported(n, sc)
		}
		s.loadTable(e.Table)
		return nil

	case query.CallExpr:
		return s.visitCall(e, sc)

	case query.LambdaExpr:
		return s.visitLambda(e, sc)

	case query.ObjectExpr:
		if sc.phase != PhaseBinding {
			return unsupported(n, sc)
		}
		return s.bindObject(e, sc)

	case query.UnaryExpr:
		switch sc.phase {
		case PhaseCondition:
			return s.conditionUnary(e, sc)
		case PhaseBinding:
			return s.bindUnary(e, sc)
		}
		return unsupported(n, sc)

	case query.BinaryExpr:
		switch sc.phase {
		case PhaseCondition:
			return s.conditionBinary(e, sc)
		case PhaseBinding:
			return s.bindValue(e, sc)
		}
		return unsupported(n, sc)

	case query.ConstantExpr:
		return s.visitConstant(e, sc)

	case query.MemberExpr:
		return s.visitMember(e, sc)

	case query.ParamExpr:
		return unsupported(n, sc)
	}

	return unsupported(n, sc)
}

// visitCall interprets pipeline stages during the outer walk and delegates
// every other call to the phase that owns it.
func (s *state) visitCall(n query.CallExpr, sc scope) error {
	if (sc.phase == PhaseNone || sc.phase == PhaseSelecting) && query.IsPipelineCall(n.Name) {
		return s.visitStage(n, sc)
	}

	switch sc.phase {
	case PhaseCondition:
		return s.conditionCall(n, sc)
	case PhaseBinding:
		return s.bindValue(n, sc)
	}
	return unsupported(n, sc)
}

// visitStage compiles one pipeline stage. The receiver is always compiled
// first so that stages take effect in application order.
func (s *state) visitStage(n query.CallExpr, sc scope) error {
	if len(n.Args) == 0 {
		return unsupported(n, sc)
	}
	if err := s.visit(n.Args[0], sc.enter(PhaseSelecting)); err != nil {
		return err
	}

	// first/firstOrDefault take an optional predicate; every other stage
	// takes exactly one argument after the receiver.
	if n.Name == query.CallFirst || n.Name == query.CallFirstOrDefault {
		if len(n.Args) > 2 {
			return unsupported(n, sc)
		}
		if len(n.Args) == 2 {
			if err := s.condition(n.Args[1], &s.where, sc); err != nil {
				return err
			}
		}
		s.limit = 1
		return nil
	}
	if len(n.Args) != 2 {
		return unsupported(n, sc)
	}
	arg := n.Args[1]

	switch n.Name {
	case query.CallSelect:
		return s.visit(arg, sc.enter(PhaseProjecting))

	case query.CallWhere:
		return s.condition(arg, &s.where, sc)

	case query.CallUpdateIf:
		return s.condition(arg, &s.updateIf, sc)

	case query.CallTake:
		return s.visit(arg, sc.enter(PhaseLimiting))

	case query.CallOrderBy, query.CallThenBy:
		return s.visit(arg, sc.enter(PhaseOrderingAscending))

	case query.CallOrderByDescending, query.CallThenByDescending:
		return s.visit(arg, sc.enter(PhaseOrderingDescending))
	}
	return unsupported(n, sc)
}

// condition compiles predicate into target, conjoined with what is
// already there.
func (s *state) condition(predicate query.Node, target *strings.Builder, sc scope) error {
	if target.Len() != 0 {
		target.WriteString(" AND ")
	}
	sc = sc.enter(PhaseCondition)
	sc.target = target
	return s.visit(predicate, sc)
}

func (s *state) visitLambda(n query.LambdaExpr, sc scope) error {
	if sc.phase == PhaseProjecting {
		// e => e projects the whole entity.
		if p, ok := n.Body.(query.ParamExpr); ok && p.Name == n.Param {
			return nil
		}
		return s.visit(n.Body, sc.enter(PhaseBinding).bind(n.Param))
	}
	return s.visit(n.Body, sc)
}

func (s *state) visitConstant(n query.ConstantExpr, sc scope) error {
	switch {
	case sc.phase == PhaseCondition:
		return s.bindCondition(n.Value, n, sc)

	case sc.phase == PhaseBinding:
		s.assign(sc.binding, n.Value)
		return nil

	case sc.phase == PhaseLimiting:
		limit, ok := asInt(n.Value)
		if !ok || limit < 0 {
			return unsupported(n, sc)
		}
		s.limit = int(limit)
		return nil

	case sc.phase.ordering():
		member, ok := n.Value.(string)
		if !ok {
			return unsupported(n, sc)
		}
		return s.order(member, sc)
	}
	return unsupported(n, sc)
}

func (s *state) visitMember(n query.MemberExpr, sc scope) error {
	_, onParam := n.Owner.(query.ParamExpr)

	switch {
	case sc.phase == PhaseCondition:
		if onParam {
			col, err := s.columns.lookup(n.Member)
			if err != nil {
				return err
			}
			sc.write(col)
			return nil
		}
		return s.conditionValue(n, sc)

	case sc.phase == PhaseBinding:
		if onParam {
			return s.selectColumn(n.Member, sc)
		}
		return s.bindValue(n, sc)

	case sc.phase.ordering():
		// A captured owner only names the key; its value is never read.
		if !onParam && query.ReferencesParam(n.Owner) {
			return unsupported(n, sc)
		}
		return s.order(n.Member, sc)
	}
	return unsupported(n, sc)
}

// order appends one ORDER BY entry.
func (s *state) order(member string, sc scope) error {
	col, err := s.columns.lookup(member)
	if err != nil {
		return err
	}
	if sc.phase == PhaseOrderingAscending {
		s.orderBy = append(s.orderBy, col+" ASC")
	} else {
		s.orderBy = append(s.orderBy, col+" DESC")
	}
	return nil
}

// evaluate folds a sub-tree through the evaluator. Sub-trees that read the
// lambda parameter can never fold and are reported as unsupported.
func (s *state) evaluate(n query.Node, sc scope) (any, error) {
	if n == nil || query.ReferencesParam(n) {
		return nil, unsupported(n, sc)
	}
	v, err := s.evaluator.Evaluate(n)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", n.String(), err)
	}
	return v, nil
}
