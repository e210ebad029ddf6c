package proptest

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	identStart = "abcdefghijklmnopqrstuvwxyz_"
	identBody  = identStart + "0123456789"

	// textChars includes both quote characters so literal escaping is
	// exercised.
	textChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 '\"_-;,()"
)

// Intn returns an int in [0, n).
func (g *Generator) Intn(n int) int {
	return g.rng.Intn(n)
}

// IntRange returns an int in [min, max].
func (g *Generator) IntRange(min, max int) int {
	if min > max {
		panic("proptest: IntRange min > max")
	}
	return min + g.rng.Intn(max-min+1)
}

// Int64 returns an int64 that may be negative.
func (g *Generator) Int64() int64 {
	n := g.rng.Int63()
	if g.Bool() {
		n = -n
	}
	return n
}

// Float64 returns a finite float64, sometimes integral.
func (g *Generator) Float64() float64 {
	if g.rng.Intn(4) == 0 {
		return float64(g.IntRange(-1000, 1000))
	}
	return g.rng.NormFloat64() * math.Pow(10, float64(g.IntRange(-3, 6)))
}

// Bool returns true or false with equal probability.
func (g *Generator) Bool() bool {
	return g.rng.Intn(2) == 1
}

// Chance returns true with probability p.
func (g *Generator) Chance(p float64) bool {
	return g.rng.Float64() < p
}

// Identifier returns a lowercase identifier of length [1, maxLen].
func (g *Generator) Identifier(maxLen int) string {
	if maxLen <= 0 {
		maxLen = 1
	}
	b := make([]byte, g.IntRange(1, maxLen))
	b[0] = identStart[g.rng.Intn(len(identStart))]
	for i := 1; i < len(b); i++ {
		b[i] = identBody[g.rng.Intn(len(identBody))]
	}
	return string(b)
}

// Identifiers returns n distinct identifiers.
func (g *Generator) Identifiers(n, maxLen int) []string {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		id := g.Identifier(maxLen)
		if seen[id] {
			maxLen++
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Text returns a string of length [0, maxLen] that may contain quotes.
func (g *Generator) Text(maxLen int) string {
	b := make([]byte, g.IntRange(0, maxLen))
	for i := range b {
		b[i] = textChars[g.rng.Intn(len(textChars))]
	}
	return string(b)
}

// Bytes returns a byte slice of length [0, maxLen].
func (g *Generator) Bytes(maxLen int) []byte {
	b := make([]byte, g.IntRange(0, maxLen))
	g.rng.Read(b)
	return b
}

// UUID returns a version 4 UUID drawn from the generator's source.
func (g *Generator) UUID() uuid.UUID {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		panic("proptest: " + err.Error())
	}
	return id
}

// Time returns a UTC time with millisecond precision between 1970 and 2100.
func (g *Generator) Time() time.Time {
	ms := g.rng.Int63n(4102444800000)
	return time.UnixMilli(ms).UTC()
}

// Value returns a scalar of a random CQL-encodable type.
func (g *Generator) Value() any {
	switch g.rng.Intn(7) {
	case 0:
		return g.Int64()
	case 1:
		return g.Float64()
	case 2:
		return g.Text(12)
	case 3:
		return g.Bool()
	case 4:
		return g.UUID()
	case 5:
		return g.Bytes(8)
	default:
		return g.Time()
	}
}

// Pick returns a random element of a non-empty slice.
func Pick[T any](g *Generator, items []T) T {
	if len(items) == 0 {
		panic("proptest: Pick called with empty slice")
	}
	return items[g.rng.Intn(len(items))]
}

// Slice returns between minLen and maxLen values from gen.
func Slice[T any](g *Generator, minLen, maxLen int, gen func(*Generator) T) []T {
	out := make([]T, g.IntRange(minLen, maxLen))
	for i := range out {
		out[i] = gen(g)
	}
	return out
}

// Shuffle returns a shuffled copy of items.
func Shuffle[T any](g *Generator, items []T) []T {
	out := append([]T(nil), items...)
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
