package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// SerializedNode is the JSON-serializable representation of a Node.
// Uses a tagged union pattern for type discrimination.
type SerializedNode struct {
	Type string `json:"type"` // "table", "call", "lambda", "object", "unary", "binary", "constant", "member", "param"

	// Fields used depending on Type:
	Table    string              `json:"table,omitempty"`
	Name     string              `json:"name,omitempty"` // call name, lambda parameter, member name, parameter name
	Op       string              `json:"op,omitempty"`
	Target   *SerializedNode     `json:"target,omitempty"` // call target or member owner
	Args     []SerializedNode    `json:"args,omitempty"`
	Body     *SerializedNode     `json:"body,omitempty"`
	Operand  *SerializedNode     `json:"operand,omitempty"`
	Left     *SerializedNode     `json:"left,omitempty"`
	Right    *SerializedNode     `json:"right,omitempty"`
	Bindings []SerializedBinding `json:"bindings,omitempty"`
	Value    any                 `json:"value,omitempty"`
	UUID     string              `json:"uuid,omitempty"`
	Token    []any               `json:"token,omitempty"`
}

// SerializedBinding represents one member binding of an object construction.
type SerializedBinding struct {
	Member string         `json:"member"`
	Value  SerializedNode `json:"value"`
}

// ErrUnknownTable is returned when a table reference cannot be resolved.
var ErrUnknownTable = errors.New("unknown table")

// TableResolver looks a table up by its unquoted name.
type TableResolver func(name string) (Table, bool)

// =============================================================================
// Serialization Functions
// =============================================================================

// SerializeNode converts a Node to its serializable form.
func SerializeNode(n Node) (SerializedNode, error) {
	switch e := n.(type) {
	case nil:
		return SerializedNode{}, fmt.Errorf("cannot serialize nil node")

	case TableExpr:
		if e.Table == nil {
			return SerializedNode{}, fmt.Errorf("cannot serialize table reference without a table")
		}
		return SerializedNode{Type: "table", Table: e.Table.TableName()}, nil

	case CallExpr:
		s := SerializedNode{Type: "call", Name: e.Name}
		if e.Target != nil {
			target, err := SerializeNode(e.Target)
			if err != nil {
				return SerializedNode{}, err
			}
			s.Target = &target
		}
		args, err := serializeList(e.Args)
		if err != nil {
			return SerializedNode{}, err
		}
		s.Args = args
		return s, nil

	case LambdaExpr:
		body, err := SerializeNode(e.Body)
		if err != nil {
			return SerializedNode{}, err
		}
		return SerializedNode{Type: "lambda", Name: e.Param, Body: &body}, nil

	case ObjectExpr:
		s := SerializedNode{Type: "object", Bindings: make([]SerializedBinding, len(e.Bindings))}
		for i, binding := range e.Bindings {
			value, err := SerializeNode(binding.Value)
			if err != nil {
				return SerializedNode{}, err
			}
			s.Bindings[i] = SerializedBinding{Member: binding.Member, Value: value}
		}
		return s, nil

	case UnaryExpr:
		operand, err := SerializeNode(e.Operand)
		if err != nil {
			return SerializedNode{}, err
		}
		return SerializedNode{Type: "unary", Op: string(e.Op), Operand: &operand}, nil

	case BinaryExpr:
		left, err := SerializeNode(e.Left)
		if err != nil {
			return SerializedNode{}, err
		}
		right, err := SerializeNode(e.Right)
		if err != nil {
			return SerializedNode{}, err
		}
		return SerializedNode{Type: "binary", Op: string(e.Op), Left: &left, Right: &right}, nil

	case ConstantExpr:
		switch v := e.Value.(type) {
		case uuid.UUID:
			return SerializedNode{Type: "constant", UUID: v.String()}, nil
		case Token:
			return SerializedNode{Type: "constant", Token: v.Values}, nil
		}
		return SerializedNode{Type: "constant", Value: e.Value}, nil

	case MemberExpr:
		s := SerializedNode{Type: "member", Name: e.Member}
		if e.Owner != nil {
			owner, err := SerializeNode(e.Owner)
			if err != nil {
				return SerializedNode{}, err
			}
			s.Target = &owner
		}
		return s, nil

	case ParamExpr:
		return SerializedNode{Type: "param", Name: e.Name}, nil
	}

	return SerializedNode{}, fmt.Errorf("unknown node type: %T", n)
}

func serializeList(nodes []Node) ([]SerializedNode, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]SerializedNode, len(nodes))
	for i, n := range nodes {
		s, err := SerializeNode(n)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// MarshalNode encodes a tree as JSON.
func MarshalNode(n Node) ([]byte, error) {
	s, err := SerializeNode(n)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(s, "", "  ")
}

// =============================================================================
// Deserialization Functions
// =============================================================================

// DeserializeNode converts a serialized node back into a Node.
// Table references are resolved through tables.
func DeserializeNode(s SerializedNode, tables TableResolver) (Node, error) {
	switch s.Type {
	case "table":
		var t Table
		ok := false
		if tables != nil {
			t, ok = tables(s.Table)
		}
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownTable, s.Table)
		}
		return TableExpr{Table: t}, nil

	case "call":
		call := CallExpr{Name: s.Name}
		if s.Target != nil {
			target, err := DeserializeNode(*s.Target, tables)
			if err != nil {
				return nil, err
			}
			call.Target = target
		}
		for _, arg := range s.Args {
			n, err := DeserializeNode(arg, tables)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, n)
		}
		return call, nil

	case "lambda":
		body, err := deserializeChild(s.Body, "lambda body", tables)
		if err != nil {
			return nil, err
		}
		return LambdaExpr{Param: s.Name, Body: body}, nil

	case "object":
		obj := ObjectExpr{Bindings: make([]Binding, len(s.Bindings))}
		for i, binding := range s.Bindings {
			value, err := DeserializeNode(binding.Value, tables)
			if err != nil {
				return nil, err
			}
			obj.Bindings[i] = Binding{Member: binding.Member, Value: value}
		}
		return obj, nil

	case "unary":
		operand, err := deserializeChild(s.Operand, "unary operand", tables)
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: UnaryOp(s.Op), Operand: operand}, nil

	case "binary":
		left, err := deserializeChild(s.Left, "binary left operand", tables)
		if err != nil {
			return nil, err
		}
		right, err := deserializeChild(s.Right, "binary right operand", tables)
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: BinaryOp(s.Op), Left: left, Right: right}, nil

	case "constant":
		if s.UUID != "" {
			id, err := uuid.Parse(s.UUID)
			if err != nil {
				return nil, fmt.Errorf("constant uuid: %w", err)
			}
			return ConstantExpr{Value: id}, nil
		}
		if s.Token != nil {
			values := make([]any, len(s.Token))
			for i, v := range s.Token {
				values[i] = normalizeJSON(v)
			}
			return ConstantExpr{Value: Token{Values: values}}, nil
		}
		return ConstantExpr{Value: normalizeJSON(s.Value)}, nil

	case "member":
		m := MemberExpr{Member: s.Name}
		if s.Target != nil {
			owner, err := DeserializeNode(*s.Target, tables)
			if err != nil {
				return nil, err
			}
			m.Owner = owner
		}
		return m, nil

	case "param":
		return ParamExpr{Name: s.Name}, nil
	}

	return nil, fmt.Errorf("unknown node type %q", s.Type)
}

func deserializeChild(s *SerializedNode, what string, tables TableResolver) (Node, error) {
	if s == nil {
		return nil, fmt.Errorf("missing %s", what)
	}
	return DeserializeNode(*s, tables)
}

// UnmarshalNode decodes a JSON tree. Integral numbers decode as int64,
// other numbers as float64.
func UnmarshalNode(data []byte, tables TableResolver) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var s SerializedNode
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline: %w", err)
	}
	return DeserializeNode(s, tables)
}

// normalizeJSON converts json.Number values (recursively) to int64 or float64.
func normalizeJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeJSON(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeJSON(item)
		}
		return out
	}
	return v
}
