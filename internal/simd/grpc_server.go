package simd

import (
	"context"
	"errors"

	"github.com/opendsim/kernel/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SimulationServer implements the control plane's gRPC surface directly
// against RunStore/RunExecutor, hand-registered as a grpc.ServiceDesc
// instead of through protoc-generated stubs (there is no
// gen/go/simulation/v1 package in this kernel — see codec.go). The wire
// messages here are plain JSON-tagged structs served through JSONCodec
// rather than protobuf.
type SimulationServer struct {
	store    *RunStore
	executor *RunExecutor
}

// NewSimulationServer builds a SimulationServer over store/executor.
func NewSimulationServer(store *RunStore, executor *RunExecutor) *SimulationServer {
	return &SimulationServer{store: store, executor: executor}
}

type createRunRequest struct {
	RunID string    `json:"run_id,omitempty"`
	Input *RunInput `json:"input"`
}

type runResponse struct {
	Run *Run `json:"run"`
}

type runIDRequest struct {
	RunID string `json:"run_id"`
}

type listRunsRequest struct {
	Limit int `json:"limit,omitempty"`
}

type listRunsResponse struct {
	Runs []*Run `json:"runs"`
}

type getRunMetricsResponse struct {
	Metrics *RunMetrics `json:"metrics"`
}

func (s *SimulationServer) createRun(ctx context.Context, req *createRunRequest) (*runResponse, error) {
	if req == nil || req.Input == nil {
		return nil, status.Error(codes.InvalidArgument, "input is required")
	}
	rec, err := s.store.Create(req.RunID, req.Input)
	if err != nil {
		return nil, status.Error(codes.AlreadyExists, err.Error())
	}
	logger.Info("run created (grpc)", "run_id", rec.Run.ID)
	return &runResponse{Run: rec.Run}, nil
}

func (s *SimulationServer) startRun(ctx context.Context, req *runIDRequest) (*runResponse, error) {
	if req == nil || req.RunID == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}
	updated, err := s.executor.Start(req.RunID)
	if err != nil {
		return nil, grpcError(err)
	}
	return &runResponse{Run: updated.Run}, nil
}

func (s *SimulationServer) stopRun(ctx context.Context, req *runIDRequest) (*runResponse, error) {
	if req == nil || req.RunID == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}
	updated, err := s.executor.Stop(req.RunID)
	if err != nil {
		return nil, grpcError(err)
	}
	return &runResponse{Run: updated.Run}, nil
}

func (s *SimulationServer) getRun(ctx context.Context, req *runIDRequest) (*runResponse, error) {
	if req == nil || req.RunID == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}
	rec, ok := s.store.Get(req.RunID)
	if !ok {
		return nil, status.Error(codes.NotFound, "run not found")
	}
	return &runResponse{Run: rec.Run}, nil
}

func (s *SimulationServer) listRuns(ctx context.Context, req *listRunsRequest) (*listRunsResponse, error) {
	limit := 50
	if req != nil && req.Limit > 0 {
		limit = req.Limit
	}
	recs := s.store.List(limit)
	runs := make([]*Run, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, rec.Run)
	}
	return &listRunsResponse{Runs: runs}, nil
}

func (s *SimulationServer) getRunMetrics(ctx context.Context, req *runIDRequest) (*getRunMetricsResponse, error) {
	if req == nil || req.RunID == "" {
		return nil, status.Error(codes.InvalidArgument, "run_id is required")
	}
	rec, ok := s.store.Get(req.RunID)
	if !ok {
		return nil, status.Error(codes.NotFound, "run not found")
	}
	if rec.Metrics == nil {
		return nil, status.Error(codes.FailedPrecondition, "metrics not available yet")
	}
	return &getRunMetricsResponse{Metrics: rec.Metrics}, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, ErrRunNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrRunIDMissing):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrRunTerminal):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// unaryHandler adapts one of SimulationServer's typed methods to grpc's
// untyped MethodDesc.Handler shape, using dec to decode the request through
// whatever codec the server negotiated (JSONCodec here).
func unaryHandler[Req, Resp any](fn func(*SimulationServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		s := srv.(*SimulationServer)
		if interceptor == nil {
			return fn(s, ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: s, FullMethod: "SimulationService"}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(s, ctx, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

// ServiceDesc is the hand-written equivalent of what protoc-gen-go-grpc
// would emit from a .proto file's service block.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "opendsim.simulation.v1.SimulationService",
	HandlerType: (*SimulationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateRun", Handler: unaryHandler((*SimulationServer).createRun)},
		{MethodName: "StartRun", Handler: unaryHandler((*SimulationServer).startRun)},
		{MethodName: "StopRun", Handler: unaryHandler((*SimulationServer).stopRun)},
		{MethodName: "GetRun", Handler: unaryHandler((*SimulationServer).getRun)},
		{MethodName: "ListRuns", Handler: unaryHandler((*SimulationServer).listRuns)},
		{MethodName: "GetRunMetrics", Handler: unaryHandler((*SimulationServer).getRunMetrics)},
	},
	Metadata: "simulation/v1/simulation.proto",
}

// RegisterSimulationServer registers srv against s using ServiceDesc.
func RegisterSimulationServer(s grpc.ServiceRegistrar, srv *SimulationServer) {
	s.RegisterService(&ServiceDesc, srv)
}
