// Package life exposes a running simulation over gRPC.
//
// The service is declared by hand and exchanges protobuf well-known types:
// requests and responses are google.protobuf.Struct or google.protobuf.Empty.
package life

import (
	"context"
	"errors"

	"github.com/louisbranch/life/internal/core/board"
	apperrors "github.com/louisbranch/life/internal/platform/errors"
	"github.com/louisbranch/life/internal/services/life/simulation"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "life.v1.LifeService"

const (
	methodGetBoard    = "/" + ServiceName + "/GetBoard"
	methodStep        = "/" + ServiceName + "/Step"
	methodSetCell     = "/" + ServiceName + "/SetCell"
	methodWatchFrames = "/" + ServiceName + "/WatchFrames"
)

// Simulation is the behaviour the service needs from the running simulation.
type Simulation interface {
	Snapshot() simulation.Snapshot
	Step(ctx context.Context) simulation.Frame
	Set(pos board.CellPosition, state board.CellState) error
	Subscribe(buffer int) (simulation.Snapshot, *simulation.Subscription)
}

// LifeServiceServer is the server API for the life service.
type LifeServiceServer interface {
	GetBoard(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Step(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetCell(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	WatchFrames(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// Service implements LifeServiceServer on top of a Simulation.
type Service struct {
	sim    Simulation
	buffer int
}

// NewService creates a life service. buffer sizes each watcher's frame queue.
func NewService(sim Simulation, buffer int) *Service {
	return &Service{sim: sim, buffer: buffer}
}

// Register adds the service to a gRPC server.
func Register(server grpc.ServiceRegistrar, svc LifeServiceServer) {
	server.RegisterService(&serviceDesc, svc)
}

// GetBoard returns the current snapshot.
func (s *Service) GetBoard(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	msg, err := snapshotToStruct(s.sim.Snapshot())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode snapshot: %v", err)
	}
	return msg, nil
}

// Step advances one generation outside the scheduler.
func (s *Service) Step(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	msg, err := frameToStruct(s.sim.Step(ctx))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode frame: %v", err)
	}
	return msg, nil
}

// SetCell writes one cell.
func (s *Service) SetCell(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	pos, state, err := structToCell(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "set cell: %v", err)
	}
	if err := s.sim.Set(pos, state); err != nil {
		return nil, toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

// WatchFrames streams a snapshot followed by every frame. A watcher that
// falls behind receives a fresh snapshot and continues from there.
func (s *Service) WatchFrames(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	for {
		snapshot, sub := s.sim.Subscribe(s.buffer)
		lagged, err := s.forward(ctx, stream, snapshot, sub)
		sub.Close()
		if err != nil {
			return err
		}
		if !lagged {
			return toStatus(ctx, apperrors.New(apperrors.CodeSimulationClosed, "simulation closed"))
		}
	}
}

func (s *Service) forward(ctx context.Context, stream grpc.ServerStreamingServer[structpb.Struct], snapshot simulation.Snapshot, sub *simulation.Subscription) (bool, error) {
	msg, err := snapshotToStruct(snapshot)
	if err != nil {
		return false, status.Errorf(codes.Internal, "encode snapshot: %v", err)
	}
	if err := stream.Send(msg); err != nil {
		return false, err
	}
	for {
		select {
		case <-ctx.Done():
			return false, status.FromContextError(ctx.Err()).Err()
		case frame, ok := <-sub.Frames():
			if !ok {
				return sub.Lagged(), nil
			}
			msg, err := frameToStruct(frame)
			if err != nil {
				return false, status.Errorf(codes.Internal, "encode frame: %v", err)
			}
			if err := stream.Send(msg); err != nil {
				return false, err
			}
		}
	}
}

func toStatus(ctx context.Context, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		tag := localeFromContext(ctx)
		return appErr.ToGRPCStatus(tag.String(), userMessage(tag, appErr))
	}
	return status.Error(codes.Internal, err.Error())
}

func getBoardHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LifeServiceServer).GetBoard(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetBoard}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LifeServiceServer).GetBoard(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func stepHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LifeServiceServer).Step(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodStep}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LifeServiceServer).Step(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func setCellHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LifeServiceServer).SetCell(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSetCell}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LifeServiceServer).SetCell(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func watchFramesHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(LifeServiceServer).WatchFrames(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LifeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBoard", Handler: getBoardHandler},
		{MethodName: "Step", Handler: stepHandler},
		{MethodName: "SetCell", Handler: setCellHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchFrames", Handler: watchFramesHandler, ServerStreams: true},
	},
}
