package rdf

// Dataset is an append-only, insertion-ordered quad collection.
//
// The generation executor appends during its passes; readers iterate in
// insertion order. Pass 1 fully completes before Pass 2 begins, and
// serialization happens after both, so no locking is needed.
type Dataset struct {
	quads []Quad
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{}
}

// Add appends a quad. Duplicates are kept: the engine's contract is
// that reification never deduplicates or mutates base statements.
func (d *Dataset) Add(q Quad) {
	d.quads = append(d.quads, q)
}

// Len returns the number of quads.
func (d *Dataset) Len() int {
	return len(d.quads)
}

// Quads returns the quads in insertion order. The returned slice is the
// dataset's backing store; callers must not mutate it.
func (d *Dataset) Quads() []Quad {
	return d.quads
}
