package compile

import (
	"fmt"
	"strconv"
	"strings"
)

// markerDelim brackets the store index of a placeholder inside clause text.
// It can never occur in a validated identifier, so it is safe as a separator.
const markerDelim = "\x00"

// Placeholder is the positional bind marker of the query language.
const Placeholder = "?"

// Params is the ordered store of bound values for one compile.
// Clause text refers to entries through markers returned by Add.
type Params struct {
	values []any
}

// Add appends a value and returns the marker that stands for it.
func (p *Params) Add(val any) string {
	p.values = append(p.values, val)
	return markerDelim + strconv.Itoa(len(p.values)-1) + markerDelim
}

// Len returns the number of stored values.
func (p *Params) Len() int {
	return len(p.values)
}

// Positional replaces every marker with "?" and returns the values in the
// order their markers appear in text.
func (p *Params) Positional(text string) (string, []any, error) {
	var values []any
	out, err := p.fill(text, func(idx int) (string, error) {
		values = append(values, p.values[idx])
		return Placeholder, nil
	})
	if err != nil {
		return "", nil, err
	}
	return out, values, nil
}

// Inline replaces every marker with the literal encoding of its value.
func (p *Params) Inline(text string, enc Encoder) (string, error) {
	return p.fill(text, func(idx int) (string, error) {
		lit, err := enc.Encode(p.values[idx])
		if err != nil {
			return "", fmt.Errorf("encode parameter %d: %w", idx, err)
		}
		return lit, nil
	})
}

func (p *Params) fill(text string, emit func(idx int) (string, error)) (string, error) {
	if !strings.Contains(text, markerDelim) {
		return text, nil
	}

	parts := strings.Split(text, markerDelim)
	if len(parts)%2 == 0 {
		return "", fmt.Errorf("unterminated parameter marker in %q", text)
	}

	var b strings.Builder
	for i := 0; i < len(parts)-1; i += 2 {
		b.WriteString(parts[i])
		idx, err := strconv.Atoi(parts[i+1])
		if err != nil || idx < 0 || idx >= len(p.values) {
			return "", fmt.Errorf("invalid parameter marker %q", parts[i+1])
		}
		s, err := emit(idx)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	b.WriteString(parts[len(parts)-1])
	return b.String(), nil
}
