package life

import (
	"context"
	"fmt"

	"github.com/louisbranch/life/internal/core/board"
	"github.com/louisbranch/life/internal/services/life/simulation"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the life service and decodes its payloads.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GetBoard fetches the current snapshot.
func (c *Client) GetBoard(ctx context.Context, opts ...grpc.CallOption) (simulation.Snapshot, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodGetBoard, &emptypb.Empty{}, out, opts...); err != nil {
		return simulation.Snapshot{}, err
	}
	return structToSnapshot(out)
}

// Step advances the remote simulation one generation.
func (c *Client) Step(ctx context.Context, opts ...grpc.CallOption) (simulation.Frame, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodStep, &emptypb.Empty{}, out, opts...); err != nil {
		return simulation.Frame{}, err
	}
	return structToFrame(out)
}

// SetCell writes one remote cell.
func (c *Client) SetCell(ctx context.Context, pos board.CellPosition, state board.CellState, opts ...grpc.CallOption) error {
	in, err := cellToStruct(pos, state)
	if err != nil {
		return fmt.Errorf("encode cell: %w", err)
	}
	return c.cc.Invoke(ctx, methodSetCell, in, new(emptypb.Empty), opts...)
}

// Message is one item of a watch stream: exactly one field is set.
type Message struct {
	Snapshot *simulation.Snapshot
	Frame    *simulation.Frame
}

// Watcher reads a WatchFrames stream.
type Watcher struct {
	stream grpc.ServerStreamingClient[structpb.Struct]
}

// Watch opens a frame stream. The first message is always a snapshot.
func (c *Client) Watch(ctx context.Context, opts ...grpc.CallOption) (*Watcher, error) {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], methodWatchFrames, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.CloseSend(); err != nil {
		return nil, err
	}
	return &Watcher{stream: x}, nil
}

// Recv blocks for the next message.
func (w *Watcher) Recv() (Message, error) {
	msg, err := w.stream.Recv()
	if err != nil {
		return Message{}, err
	}
	switch kind := msg.GetFields()["type"].GetStringValue(); kind {
	case kindSnapshot:
		snapshot, err := structToSnapshot(msg)
		if err != nil {
			return Message{}, fmt.Errorf("decode snapshot: %w", err)
		}
		return Message{Snapshot: &snapshot}, nil
	case kindFrame:
		frame, err := structToFrame(msg)
		if err != nil {
			return Message{}, fmt.Errorf("decode frame: %w", err)
		}
		return Message{Frame: &frame}, nil
	default:
		return Message{}, fmt.Errorf("unknown message type %q", kind)
	}
}
