package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// BlankNodeGenerator mints labels for reifier blank nodes. Labels only
// need to be unique within one run; the generator is injected so tests
// can pin them.
type BlankNodeGenerator interface {
	NewLabel() string
}

// UUIDv7Generator mints time-sortable UUIDv7 labels. Sortability makes
// reifiers from one run cluster together when the output is inspected
// out of band.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewLabel returns a fresh hyphenated UUIDv7.
func (UUIDv7Generator) NewLabel() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator mints "r1", "r2", ... labels for deterministic test
// output. Safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu sync.Mutex
	n  int
}

// NewLabel returns the next label in the sequence.
func (g *SequenceGenerator) NewLabel() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("r%d", g.n)
}
