package moves

import (
	"maps"
	"slices"
)

// Move is the metadata of a single dance move.
type Move struct {
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Store is a read-only table of moves keyed by name.
// Implementations must be safe for concurrent reads.
type Store interface {
	// Get returns the move named name.
	Get(name string) (Move, bool)

	// All returns a copy of the full table.
	All() map[string]Move
}

// defaultMoves is the built-in move catalog.
var defaultMoves = map[string]Move{
	"windmill": {
		Description: "A classic bboy move where the dancer spins around the crown of their head with their legs out",
		Type:        "Power Move",
	},
	"flare": {
		Description: "A classic power move where the dancer throws both legs out in a circle similar to gymnast circles, but with the legs open",
		Type:        "Air Power",
	},
	"toprock": {
		Description: "The Top Rock is all movement where the breaker is still standing. Set's are typically started with top rock.",
		Type:        "Rocking",
	},
}

// StaticStore is an immutable in-memory Store.
type StaticStore struct {
	moves map[string]Move
}

var _ Store = (*StaticStore)(nil)

// NewStaticStore returns a store holding the built-in catalog.
func NewStaticStore() *StaticStore {
	return NewStore(defaultMoves)
}

// NewStore returns a store holding a copy of moves.
func NewStore(moves map[string]Move) *StaticStore {
	return &StaticStore{moves: maps.Clone(moves)}
}

// Get returns the move named name.
func (s *StaticStore) Get(name string) (Move, bool) {
	m, ok := s.moves[name]
	return m, ok
}

// All returns a copy of the full table.
func (s *StaticStore) All() map[string]Move {
	return maps.Clone(s.moves)
}

// Names returns the move names in sorted order.
func (s *StaticStore) Names() []string {
	return slices.Sorted(maps.Keys(s.moves))
}
