// Package proptest runs seeded property checks.
//
// A failing check reports its seed; rerun with PROPTEST_SEED=<seed> to
// reproduce it.
//
//	proptest.QuickCheck(t, "take renders LIMIT", func(g *proptest.Generator) bool {
//	    n := g.IntRange(1, 100)
//	    return strings.HasSuffix(render(n), fmt.Sprintf("LIMIT %d", n))
//	})
package proptest

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// Generator wraps a seeded random source.
type Generator struct {
	rng  *rand.Rand
	seed int64
}

// New creates a Generator. A zero seed is replaced by the current time.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed the generator was created with.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Config controls a property run.
type Config struct {
	// NumTrials defaults to 100.
	NumTrials int

	// Seed fixes the seed. PROPTEST_SEED overrides it.
	Seed int64
}

// DefaultConfig returns 100 trials with a time-based seed.
func DefaultConfig() Config {
	return Config{NumTrials: 100}
}

func effectiveSeed(cfg Config) int64 {
	if env := os.Getenv("PROPTEST_SEED"); env != "" {
		if seed, err := strconv.ParseInt(env, 10, 64); err == nil {
			return seed
		}
	}
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	return time.Now().UnixNano()
}

// Check runs prop NumTrials times from one generator and stops at the first
// failing trial.
func Check(t *testing.T, name string, cfg Config, prop func(g *Generator) bool) {
	t.Helper()

	if cfg.NumTrials <= 0 {
		cfg.NumTrials = 100
	}
	seed := effectiveSeed(cfg)
	g := New(seed)

	for i := 0; i < cfg.NumTrials; i++ {
		if !prop(g) {
			t.Errorf("proptest %q failed on trial %d (seed=%d, use PROPTEST_SEED=%d to reproduce)",
				name, i+1, seed, seed)
			return
		}
	}
}

// QuickCheck runs Check with DefaultConfig.
func QuickCheck(t *testing.T, name string, prop func(g *Generator) bool) {
	t.Helper()
	Check(t, name, DefaultConfig(), prop)
}

// ForAll is like Check but reports the value the failing trial produced.
func ForAll[T any](t *testing.T, name string, numTrials int, prop func(g *Generator) (T, bool)) {
	t.Helper()

	seed := effectiveSeed(Config{})
	g := New(seed)

	for i := 0; i < numTrials; i++ {
		val, ok := prop(g)
		if !ok {
			t.Errorf("proptest %q failed on trial %d with value %+v (seed=%d, use PROPTEST_SEED=%d to reproduce)",
				name, i+1, val, seed, seed)
			return
		}
	}
}
