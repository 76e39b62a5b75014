package entity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces entity identifiers.
//
// Production code uses UUIDv7Generator; tests and the scenario harness use
// FixedGenerator or SeededGenerator for deterministic IDs and golden traces.
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, making IDs
// sortable by creation time. This keeps archive listings and exports in
// creation order without a separate counter.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined IDs for testing.
//
// This enables deterministic test execution and golden trace comparison.
// Tests provide a known sequence and verify exact output.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns IDs in order.
//
// Example:
//
//	gen := NewFixedGenerator("shot-1", "shot-2")
//	gen.NewID() // "shot-1"
//	gen.NewID() // "shot-2"
//	gen.NewID() // panic: all IDs exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// NewID returns the next predetermined ID.
// Panics when the sequence is exhausted: running out mid-test indicates the
// test enqueued more creations than it declared.
func (g *FixedGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic(fmt.Sprintf("FixedGenerator: all %d IDs exhausted", len(g.ids)))
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// SeededGenerator produces "<prefix>-1", "<prefix>-2", ... indefinitely.
// Used by the scenario harness where the number of creations is not known
// up front but determinism is still required.
type SeededGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSeededGenerator creates a seeded generator with the given prefix.
func NewSeededGenerator(prefix string) *SeededGenerator {
	return &SeededGenerator{prefix: prefix}
}

// NewID returns the next sequential ID.
func (g *SeededGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
