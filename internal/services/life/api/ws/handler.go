// Package ws streams simulation frames to browsers over a websocket.
package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/louisbranch/life/internal/core/board"
	"github.com/louisbranch/life/internal/services/life/simulation"
	"golang.org/x/net/websocket"
)

// Frame types written to the socket.
const (
	TypeSnapshot = "life.snapshot"
	TypeDelta    = "life.delta"
)

// Subscriber is the part of the simulation the handler needs.
type Subscriber interface {
	Subscribe(buffer int) (simulation.Snapshot, *simulation.Subscription)
}

// Envelope wraps every message sent to a client.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SnapshotPayload carries a full generation.
type SnapshotPayload struct {
	Generation uint64   `json:"generation"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Alive      [][2]int `json:"alive"`
}

// DeltaPayload carries the cells that changed.
type DeltaPayload struct {
	Generation uint64          `json:"generation"`
	Edit       bool            `json:"edit,omitempty"`
	Changes    []ChangePayload `json:"changes"`
}

// ChangePayload is one flipped cell.
type ChangePayload struct {
	Row   int  `json:"row"`
	Col   int  `json:"col"`
	Alive bool `json:"alive"`
}

// NewHandler creates the /up and /ws routes.
func NewHandler(sim Subscriber, buffer int) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		handleConn(conn, sim, buffer)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})
	return mux
}

func handleConn(conn *websocket.Conn, sim Subscriber, buffer int) {
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(conn.Request().Context())
	defer cancel()
	// Clients never send anything meaningful; a read error means they left.
	go func() {
		defer cancel()
		_, _ = io.Copy(io.Discard, conn)
	}()

	encoder := json.NewEncoder(conn)
	for {
		snapshot, sub := sim.Subscribe(buffer)
		lagged, err := forward(ctx, encoder, snapshot, sub)
		sub.Close()
		if err != nil {
			log.Printf("life ws: write to %s: %v", conn.Request().RemoteAddr, err)
			return
		}
		if !lagged {
			return
		}
	}
}

func forward(ctx context.Context, encoder *json.Encoder, snapshot simulation.Snapshot, sub *simulation.Subscription) (bool, error) {
	if err := write(encoder, TypeSnapshot, snapshotPayload(snapshot)); err != nil {
		return false, err
	}
	for {
		select {
		case <-ctx.Done():
			return false, nil
		case frame, ok := <-sub.Frames():
			if !ok {
				return sub.Lagged(), nil
			}
			if err := write(encoder, TypeDelta, deltaPayload(frame)); err != nil {
				return false, err
			}
		}
	}
}

func write(encoder *json.Encoder, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return encoder.Encode(Envelope{Type: kind, Payload: data})
}

func snapshotPayload(snapshot simulation.Snapshot) SnapshotPayload {
	alive := make([][2]int, 0, len(snapshot.Alive))
	for _, pos := range snapshot.Alive {
		alive = append(alive, [2]int{pos.Row, pos.Col})
	}
	return SnapshotPayload{
		Generation: snapshot.Generation,
		Width:      snapshot.Width,
		Height:     snapshot.Height,
		Alive:      alive,
	}
}

func deltaPayload(frame simulation.Frame) DeltaPayload {
	changes := make([]ChangePayload, 0, len(frame.Delta))
	for _, change := range frame.Delta {
		changes = append(changes, ChangePayload{
			Row:   change.Pos.Row,
			Col:   change.Pos.Col,
			Alive: change.State == board.Alive,
		})
	}
	return DeltaPayload{
		Generation: frame.Generation,
		Edit:       frame.Edit,
		Changes:    changes,
	}
}
