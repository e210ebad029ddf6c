package compile

import "strings"

// Phase identifies the syntactic region of the pipeline being compiled.
// It decides how a node is interpreted and which node shapes are legal.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseSelecting
	PhaseProjecting
	PhaseCondition
	PhaseBinding
	PhaseLimiting
	PhaseOrderingAscending
	PhaseOrderingDescending
)

var phaseNames = [...]string{
	PhaseNone:               "None",
	PhaseSelecting:          "Selecting",
	PhaseProjecting:         "Projecting",
	PhaseCondition:          "Condition",
	PhaseBinding:            "Binding",
	PhaseLimiting:           "Limiting",
	PhaseOrderingAscending:  "OrderingAscending",
	PhaseOrderingDescending: "OrderingDescending",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "Unknown"
}

func (p Phase) ordering() bool {
	return p == PhaseOrderingAscending || p == PhaseOrderingDescending
}

// scope is the state that changes with the position in the tree. It is
// passed by value, so a nested descent can never leak its phase, binding
// name or target buffer back to the caller.
type scope struct {
	phase Phase

	// binding is the member currently being assigned in Binding phase.
	binding string

	// compare is the operator text a compareTo call renders as. It is only
	// set while descending into the compareTo side of "x.compareTo(y) OP 0".
	compare string

	// target receives condition text (WHERE or IF clause).
	target *strings.Builder
}

func (sc scope) enter(p Phase) scope {
	sc.phase = p
	sc.compare = ""
	return sc
}

func (sc scope) bind(name string) scope {
	sc.binding = name
	return sc
}

func (sc scope) comparing(op string) scope {
	sc.compare = op
	return sc
}

func (sc scope) operand() scope {
	sc.compare = ""
	return sc
}

func (sc scope) write(s string) {
	sc.target.WriteString(s)
}
