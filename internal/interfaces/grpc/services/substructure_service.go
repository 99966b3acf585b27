// Package services implements the gRPC services. Messages are carried as
// google.protobuf.Struct values holding the same JSON documents the REST
// API accepts, so the service needs no generated stubs.
package services

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// SubstructureServiceName is the fully qualified gRPC service name.
const SubstructureServiceName = "keyip.substructure.v1.SubstructureService"

// ErrorDomain is the ErrorInfo domain attached to failed calls.
const ErrorDomain = "substructure.keyip"

const (
	methodMatch    = "/" + SubstructureServiceName + "/Match"
	methodRings    = "/" + SubstructureServiceName + "/Rings"
	methodAromatic = "/" + SubstructureServiceName + "/Aromatic"
)

// SubstructureServer is the server API of SubstructureService.
type SubstructureServer interface {
	Match(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Rings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Aromatic(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// SubstructureServiceDesc describes SubstructureService for grpc.Server.RegisterService.
var SubstructureServiceDesc = grpc.ServiceDesc{
	ServiceName: SubstructureServiceName,
	HandlerType: (*SubstructureServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Match", Handler: unaryHandler(methodMatch, SubstructureServer.Match)},
		{MethodName: "Rings", Handler: unaryHandler(methodRings, SubstructureServer.Rings)},
		{MethodName: "Aromatic", Handler: unaryHandler(methodAromatic, SubstructureServer.Aromatic)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "keyip/substructure/v1/substructure.proto",
}

type structMethod func(SubstructureServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SubstructureServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(SubstructureServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SubstructureService adapts the screening service to SubstructureServer.
type SubstructureService struct {
	svc    screening.Service
	logger logging.Logger
}

// NewSubstructureService creates the gRPC adapter.
func NewSubstructureService(svc screening.Service, logger logging.Logger) *SubstructureService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SubstructureService{svc: svc, logger: logger.Named("grpc.substructure")}
}

// Match runs the search; options.first_only stops at the first mapping.
func (s *SubstructureService) Match(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req types.MatchRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}
	resp, err := s.svc.Match(ctx, &req)
	if err != nil {
		return nil, s.fail("Match", err)
	}
	return encodeStruct(resp)
}

// Rings reports ring membership per ring size.
func (s *SubstructureService) Rings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req types.RingsRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}
	resp, err := s.svc.Rings(ctx, &req)
	if err != nil {
		return nil, s.fail("Rings", err)
	}
	return encodeStruct(resp)
}

// Aromatic reports the aromatic atoms of the target.
func (s *SubstructureService) Aromatic(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req types.AromaticRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}
	resp, err := s.svc.Aromatic(ctx, &req)
	if err != nil {
		return nil, s.fail("Aromatic", err)
	}
	return encodeStruct(resp)
}

func (s *SubstructureService) fail(op string, err error) error {
	st := toStatus(err)
	if st == nil {
		return nil
	}
	if status.Code(st) == codes.Internal {
		s.logger.Error("Substructure call failed", logging.String("op", op), logging.Err(err))
	}
	return st
}

// decodeStruct converts the Struct to JSON and decodes it into dst.
func decodeStruct(in *structpb.Struct, dst interface{}) error {
	if in == nil {
		return errors.InvalidParam("request is required")
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode request struct")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request")
	}
	return nil
}

// encodeStruct converts v to its JSON document and back into a Struct.
func encodeStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// grpcCodeForHTTP maps the HTTP status of an error code to its gRPC code.
var grpcCodeForHTTP = map[int]codes.Code{
	400: codes.InvalidArgument,
	401: codes.Unauthenticated,
	403: codes.PermissionDenied,
	404: codes.NotFound,
	408: codes.DeadlineExceeded,
	409: codes.AlreadyExists,
	413: codes.ResourceExhausted,
	422: codes.InvalidArgument,
	429: codes.ResourceExhausted,
	499: codes.Canceled,
	501: codes.Unimplemented,
	503: codes.Unavailable,
	504: codes.DeadlineExceeded,
}

// toStatus converts an application error into a gRPC status carrying an
// ErrorInfo whose reason is the error code.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if stderrors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	grpcCode, ok := grpcCodeForHTTP[errors.HTTPStatusForCode(code)]
	if !ok {
		grpcCode = codes.Internal
	}
	msg := errors.DefaultMessageForCode(code)
	var ae *errors.AppError
	if grpcCode != codes.Internal && stderrors.As(err, &ae) {
		msg = ae.Message
		if ae.Detail != "" {
			msg += ": " + ae.Detail
		}
	}

	st := status.New(grpcCode, msg)
	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: code.String(),
		Domain: ErrorDomain,
	})
	if derr != nil {
		return st.Err()
	}
	return withInfo.Err()
}

// ErrorCode extracts the application error code from a gRPC error, or
// errors.CodeUnknown when the status carries none.
func ErrorCode(err error) errors.ErrorCode {
	st, ok := status.FromError(err)
	if !ok {
		return errors.CodeUnknown
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == ErrorDomain {
			return errors.ErrorCode(info.GetReason())
		}
	}
	return errors.CodeUnknown
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// SubstructureClient is a typed client for SubstructureService.
type SubstructureClient struct {
	cc grpc.ClientConnInterface
}

// NewSubstructureClient wraps a client connection.
func NewSubstructureClient(cc grpc.ClientConnInterface) *SubstructureClient {
	return &SubstructureClient{cc: cc}
}

// Match runs a full match on the server.
func (c *SubstructureClient) Match(ctx context.Context, req *types.MatchRequest, opts ...grpc.CallOption) (*types.MatchResponse, error) {
	var resp types.MatchResponse
	if err := c.invoke(ctx, methodMatch, req, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rings reports ring membership on the server.
func (c *SubstructureClient) Rings(ctx context.Context, req *types.RingsRequest, opts ...grpc.CallOption) (*types.RingsResponse, error) {
	var resp types.RingsResponse
	if err := c.invoke(ctx, methodRings, req, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Aromatic reports aromatic atoms on the server.
func (c *SubstructureClient) Aromatic(ctx context.Context, req *types.AromaticRequest, opts ...grpc.CallOption) (*types.AromaticResponse, error) {
	var resp types.AromaticResponse
	if err := c.invoke(ctx, methodAromatic, req, &resp, opts...); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *SubstructureClient) invoke(ctx context.Context, method string, req, resp interface{}, opts ...grpc.CallOption) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode request")
	}
	in := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, in); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode request")
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return err
	}
	if err := decodeStruct(out, resp); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "decode response")
	}
	return nil
}

//Personal.AI order the ending
