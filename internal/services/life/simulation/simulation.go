// Package simulation owns a board for the lifetime of a server and publishes
// one frame per generation to subscribers.
package simulation

import (
	"context"
	"sync"

	"github.com/louisbranch/life/internal/core/board"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/life/internal/services/life/simulation"

// Frame is what subscribers receive for every change to the board.
//
// Delta is shared between subscribers and must not be modified.
type Frame struct {
	Generation uint64
	Delta      board.Delta
	// Edit marks changes written by Set or Patch rather than by Advance.
	Edit bool
}

// Snapshot is the full live set of one generation, used to (re)synchronise a
// subscriber before it applies frames.
type Snapshot struct {
	Generation uint64
	Width      int
	Height     int
	Alive      []board.CellPosition
}

// Simulation serialises every access to its board behind one lock.
type Simulation struct {
	mu         sync.Mutex
	board      *board.Board
	generation uint64
	hub        *Hub
	tracer     trace.Tracer
}

// New takes ownership of b.
func New(b *board.Board) *Simulation {
	return &Simulation{
		board:  b,
		hub:    newHub(),
		tracer: otel.Tracer(tracerName),
	}
}

// Step advances the board one generation and publishes the resulting frame.
func (s *Simulation) Step(ctx context.Context) Frame {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := s.tracer.Start(ctx, "life.advance")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	delta := s.board.Advance()
	s.generation++
	frame := Frame{Generation: s.generation, Delta: delta}
	span.SetAttributes(
		attribute.Int64("life.generation", int64(s.generation)),
		attribute.Int("life.delta.size", len(delta)),
		attribute.Int("life.delta.born", delta.Born()),
	)
	s.hub.publish(frame)
	return frame
}

// Set writes one cell and publishes the change, if any.
func (s *Simulation) Set(pos board.CellPosition, state board.CellState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, err := s.board.Alive(pos)
	if err != nil {
		return err
	}
	if err := s.board.Set(pos, state); err != nil {
		return err
	}
	if before != (state == board.Alive) {
		s.hub.publish(Frame{
			Generation: s.generation,
			Delta:      board.Delta{{Pos: pos, State: state}},
			Edit:       true,
		})
	}
	return nil
}

// Patch overlays a block of states and publishes the cells that changed.
func (s *Simulation) Patch(origin board.CellPosition, cells []board.CellState, width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.board.States()
	if err := s.board.Patch(origin, cells, width, height); err != nil {
		return err
	}
	var delta board.Delta
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			pos := board.CellPosition{Row: origin.Row + row, Col: origin.Col + col}
			next := cells[row*width+col]
			if before[pos.Row*s.board.Width()+pos.Col] != next {
				delta = append(delta, board.Change{Pos: pos, State: next})
			}
		}
	}
	if len(delta) > 0 {
		s.hub.publish(Frame{Generation: s.generation, Delta: delta, Edit: true})
	}
	return nil
}

// Snapshot returns the current generation.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns the current snapshot together with a subscription that
// receives every later frame, so nothing is missed between the two.
func (s *Simulation) Subscribe(buffer int) (Snapshot, *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), s.hub.subscribe(buffer)
}

// Subscribers reports how many subscriptions are open.
func (s *Simulation) Subscribers() int {
	return s.hub.size()
}

// Close ends every open subscription.
func (s *Simulation) Close() {
	s.hub.close()
}

func (s *Simulation) snapshotLocked() Snapshot {
	return Snapshot{
		Generation: s.generation,
		Width:      s.board.Width(),
		Height:     s.board.Height(),
		Alive:      s.board.AliveCells(),
	}
}
