package simulation

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/life/internal/core/board"
)

func newBlinker(t *testing.T) *Simulation {
	t.Helper()
	b, err := board.New(5, 5, nil)
	if err != nil {
		t.Fatalf("new board: %v", err)
	}
	for _, pos := range []board.CellPosition{{Row: 2, Col: 1}, {Row: 2, Col: 2}, {Row: 2, Col: 3}} {
		if err := b.Set(pos, board.Alive); err != nil {
			t.Fatalf("set %s: %v", pos, err)
		}
	}
	return New(b)
}

func TestStepPublishesFramesInOrder(t *testing.T) {
	sim := newBlinker(t)
	snapshot, sub := sim.Subscribe(4)
	defer sub.Close()

	if snapshot.Generation != 0 || len(snapshot.Alive) != 3 {
		t.Fatalf("snapshot = %+v, want generation 0 with 3 live cells", snapshot)
	}

	first := sim.Step(context.Background())
	second := sim.Step(context.Background())

	for _, want := range []Frame{first, second} {
		select {
		case got := <-sub.Frames():
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("frame = %+v, want %+v", got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for frame")
		}
	}
	if first.Generation != 1 || second.Generation != 2 {
		t.Fatalf("generations = %d, %d, want 1, 2", first.Generation, second.Generation)
	}
	if len(first.Delta) != 4 {
		t.Fatalf("first delta size = %d, want 4", len(first.Delta))
	}
}

func TestSetPublishesOnlyChanges(t *testing.T) {
	sim := newBlinker(t)
	_, sub := sim.Subscribe(4)
	defer sub.Close()

	if err := sim.Set(board.CellPosition{Row: 2, Col: 2}, board.Alive); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := sim.Set(board.CellPosition{Row: 0, Col: 0}, board.Alive); err != nil {
		t.Fatalf("set: %v", err)
	}

	got := <-sub.Frames()
	want := Frame{Delta: board.Delta{{Pos: board.CellPosition{Row: 0, Col: 0}, State: board.Alive}}, Edit: true}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("frame = %+v, want %+v", got, want)
	}
	select {
	case extra := <-sub.Frames():
		t.Fatalf("unexpected frame %+v", extra)
	default:
	}
}

func TestSetRejectsOutOfBounds(t *testing.T) {
	sim := newBlinker(t)
	if err := sim.Set(board.CellPosition{Row: 9, Col: 0}, board.Alive); !errors.Is(err, board.ErrInvalidPosition) {
		t.Fatalf("Set() error = %v, want %v", err, board.ErrInvalidPosition)
	}
}

func TestPatchPublishesChangedCells(t *testing.T) {
	sim := newBlinker(t)
	_, sub := sim.Subscribe(4)
	defer sub.Close()

	unchanged := []board.CellState{board.Alive, board.Alive, board.Dead, board.Dead}
	if err := sim.Patch(board.CellPosition{Row: 2, Col: 2}, unchanged, 2, 2); err != nil {
		t.Fatalf("patch: %v", err)
	}
	cells := []board.CellState{board.Dead, board.Alive, board.Alive, board.Dead}
	if err := sim.Patch(board.CellPosition{Row: 2, Col: 2}, cells, 2, 2); err != nil {
		t.Fatalf("patch: %v", err)
	}

	got := <-sub.Frames()
	want := Frame{
		Delta: board.Delta{
			{Pos: board.CellPosition{Row: 2, Col: 2}, State: board.Dead},
			{Pos: board.CellPosition{Row: 3, Col: 2}, State: board.Alive},
		},
		Edit: true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("frame = %+v, want %+v", got, want)
	}
	select {
	case extra := <-sub.Frames():
		t.Fatalf("unexpected frame %+v", extra)
	default:
	}
}

func TestPatchRejectsOverflow(t *testing.T) {
	sim := newBlinker(t)
	err := sim.Patch(board.CellPosition{Row: 4, Col: 4}, []board.CellState{board.Alive, board.Alive}, 2, 1)
	if !errors.Is(err, board.ErrPatchOutOfBounds) {
		t.Fatalf("Patch() error = %v, want %v", err, board.ErrPatchOutOfBounds)
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	sim := newBlinker(t)
	_, slow := sim.Subscribe(1)
	_, fast := sim.Subscribe(8)
	defer fast.Close()

	for i := 0; i < 3; i++ {
		sim.Step(context.Background())
	}

	received := 0
	for range slow.Frames() {
		received++
	}
	if received != 1 {
		t.Fatalf("slow subscriber received %d frames, want 1", received)
	}
	if !slow.Lagged() {
		t.Fatal("expected slow subscriber to be marked lagged")
	}
	if len(fast.Frames()) != 3 {
		t.Fatalf("fast subscriber buffered %d frames, want 3", len(fast.Frames()))
	}
	if sim.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", sim.Subscribers())
	}
}

func TestCloseEndsSubscriptions(t *testing.T) {
	sim := newBlinker(t)
	_, sub := sim.Subscribe(1)
	sim.Close()

	if _, ok := <-sub.Frames(); ok {
		t.Fatal("expected closed channel")
	}
	sub.Close()

	_, late := sim.Subscribe(1)
	if _, ok := <-late.Frames(); ok {
		t.Fatal("expected subscription after close to be closed")
	}
}

func TestConcurrentStepAndSnapshot(t *testing.T) {
	sim := newBlinker(t)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sim.Step(context.Background())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				snap := sim.Snapshot()
				if n := len(snap.Alive); n != 3 {
					t.Errorf("blinker population = %d, want 3", n)
					return
				}
			}
		}()
	}
	wg.Wait()
	if got := sim.Snapshot().Generation; got != 200 {
		t.Fatalf("generation = %d, want 200", got)
	}
}
