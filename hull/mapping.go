// Package hull holds the convex-hull side of the global minimizer: the
// append-only map of candidate hull points, a narrow interface to the
// hull geometry engine with an in-tree implementation, and the
// internal (per-phase) and global lower convex hull builders.
package hull

// Entry is one candidate point: a phase-internal composition with its
// global mole-fraction image and energy. IDs are dense, assigned on
// insertion and stable for the life of the mapping.
type Entry struct {
	ID                  int
	PhaseName           string
	InternalCoordinates []float64
	GlobalCoordinates   []float64
	Energy              float64
	OnGlobalHull        bool
}

// Mapping is the append-only store of hull entries. No deletion; ids
// are never re-used.
type Mapping struct {
	entries []Entry
}

// InsertPoint appends an entry and returns its id (the prior size).
func (m *Mapping) InsertPoint(phase string, energy float64, internal, global []float64) (id int) {
	id = len(m.entries)
	m.entries = append(m.entries, Entry{
		ID:                  id,
		PhaseName:           phase,
		InternalCoordinates: append([]float64{}, internal...),
		GlobalCoordinates:   append([]float64{}, global...),
		Energy:              energy,
	})
	return
}

func (m *Mapping) SetGlobalHullStatus(id int, onHull bool) {
	m.entries[id].OnGlobalHull = onHull
}

func (m *Mapping) Len() int { return len(m.entries) }

func (m *Mapping) At(id int) Entry { return m.entries[id] }

// All returns a view of all entries in insertion order.
func (m *Mapping) All() []Entry { return m.entries }
