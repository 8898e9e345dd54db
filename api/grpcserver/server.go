package grpcserver

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"rbindex/domain/rbtree"
	"rbindex/service"
)

// Server adapts IndexService to gRPC.
type Server struct {
	svc *service.IndexService
}

var _ IndexServer = (*Server)(nil)

func NewServer(svc *service.IndexService) *Server {
	return &Server{svc: svc}
}

// -------------------- Commands --------------------

func (s *Server) Insert(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.UInt64Value, error) {
	seq, err := s.svc.Insert(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.UInt64(seq), nil
}

func (s *Server) Delete(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.UInt64Value, error) {
	seq, err := s.svc.Delete(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.UInt64(seq), nil
}

// -------------------- Queries --------------------

func (s *Server) Search(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	e, ok, err := s.svc.Search(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	if !ok {
		return nil, status.Errorf(codes.NotFound, "key %d not found", req.GetValue())
	}
	return entryStruct(e), nil
}

func (s *Server) InOrder(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	entries, err := s.svc.InOrder(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(entries))}
	for _, e := range entries {
		list.Values = append(list.Values, structpb.NewStructValue(entryStruct(e)))
	}
	return list, nil
}

func (s *Server) Stats(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := s.svc.Stats(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"size":         structpb.NewNumberValue(float64(st.Size)),
		"height":       structpb.NewNumberValue(float64(st.Height)),
		"black_height": structpb.NewNumberValue(float64(st.BlackHeight)),
		"unique":       structpb.NewBoolValue(st.Unique),
	}}
	// An empty index has no bounds; min and max are left out.
	if st.Bounded {
		out.Fields["min"] = structpb.NewStringValue(formatKey(st.Min))
		out.Fields["max"] = structpb.NewStringValue(formatKey(st.Max))
	}
	return out, nil
}

// -------------------- Converters --------------------

// Keys travel as decimal strings inside Struct values; a float64 cannot
// hold every int64.
func entryStruct(e service.Entry) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"key":   structpb.NewStringValue(formatKey(e.Key)),
		"color": structpb.NewStringValue(e.Color.String()),
	}}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, rbtree.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, rbtree.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// LoggingInterceptor logs each unary call with its method, duration and
// resulting status code.
func LoggingInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := log.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start),
		})
		if err != nil && status.Code(err) == codes.Internal {
			entry.WithError(err).Error("grpc call failed")
		} else {
			entry.Debug("grpc call")
		}
		return resp, err
	}
}
