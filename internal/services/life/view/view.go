// Package view keeps a per-cell presentation state in step with simulation
// frames: newly alive cells get a handle, newly dead cells lose theirs.
package view

import (
	"iter"

	"github.com/louisbranch/life/internal/core/board"
)

// Spawner creates and releases the presentation handle for one cell.
type Spawner[H any] interface {
	Spawn(pos board.CellPosition) H
	Despawn(pos board.CellPosition, handle H)
}

// View tracks one handle per live cell.
type View[H any] struct {
	spawner Spawner[H]
	handles map[board.CellPosition]H
}

// New creates an empty view.
func New[H any](spawner Spawner[H]) *View[H] {
	return &View[H]{
		spawner: spawner,
		handles: make(map[board.CellPosition]H),
	}
}

// Reset releases every handle and spawns one per cell in alive.
func (v *View[H]) Reset(alive []board.CellPosition) {
	for pos, handle := range v.handles {
		v.spawner.Despawn(pos, handle)
		delete(v.handles, pos)
	}
	for _, pos := range alive {
		v.handles[pos] = v.spawner.Spawn(pos)
	}
}

// Apply reconciles the view with one delta.
func (v *View[H]) Apply(delta board.Delta) {
	for _, change := range delta {
		switch change.State {
		case board.Alive:
			if previous, ok := v.handles[change.Pos]; ok {
				v.spawner.Despawn(change.Pos, previous)
			}
			v.handles[change.Pos] = v.spawner.Spawn(change.Pos)
		case board.Dead:
			if handle, ok := v.handles[change.Pos]; ok {
				v.spawner.Despawn(change.Pos, handle)
				delete(v.handles, change.Pos)
			}
		}
	}
}

// Len returns the number of live cells in the view.
func (v *View[H]) Len() int {
	return len(v.handles)
}

// All yields every live cell with its handle, in no particular order.
func (v *View[H]) All() iter.Seq2[board.CellPosition, H] {
	return func(yield func(board.CellPosition, H) bool) {
		for pos, handle := range v.handles {
			if !yield(pos, handle) {
				return
			}
		}
	}
}
