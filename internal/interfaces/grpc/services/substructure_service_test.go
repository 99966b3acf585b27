package services

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/testutil"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

const ccPattern = `{"atoms":[{"element":"C"},{"element":"C"}],"bonds":[{"from":0,"to":1,"type":"-"}]}`

func newClient(t *testing.T) *SubstructureClient {
	t.Helper()
	lib := testutil.NewMemoryLibrary()
	svc, err := screening.NewService(screening.Config{}, screening.Dependencies{
		Repository: lib,
		Molfiles:   lib,
		Logger:     logging.NewNopLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	gs.RegisterService(&SubstructureServiceDesc, NewSubstructureService(svc, nil))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewSubstructureClient(conn)
}

func TestSubstructureService_Match(t *testing.T) {
	client := newClient(t)
	butane := testutil.Molfile(testutil.Chain(4))

	resp, err := client.Match(context.Background(), &types.MatchRequest{
		Pattern: json.RawMessage(ccPattern),
		Target:  types.Target{Molfile: butane},
	})
	require.NoError(t, err)
	assert.True(t, resp.Matched)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, [][]int{{0, 1}, {1, 2}, {2, 3}}, resp.Sets)
	assert.Equal(t, 4, resp.AtomCount)

	first, err := client.Match(context.Background(), &types.MatchRequest{
		Pattern: json.RawMessage(ccPattern),
		Target:  types.Target{Molfile: butane},
		Options: types.SearchOptions{FirstOnly: true, ReturnMaps: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Count)
	assert.Len(t, first.Maps, 1)
}

func TestSubstructureService_RingsAndAromatic(t *testing.T) {
	client := newClient(t)
	toluene := testutil.Molfile(testutil.Toluene())

	rings, err := client.Rings(context.Background(), &types.RingsRequest{
		Target:  types.Target{Molfile: toluene},
		MaxSize: 6,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, rings.Members[6])
	assert.Equal(t, 7, rings.AtomCount)

	arom, err := client.Aromatic(context.Background(), &types.AromaticRequest{
		Target: types.Target{Molfile: toluene},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, arom.Aromatic)
}

func TestSubstructureService_Errors(t *testing.T) {
	client := newClient(t)
	butane := testutil.Molfile(testutil.Chain(4))

	tests := []struct {
		name    string
		req     *types.MatchRequest
		code    codes.Code
		errCode errors.ErrorCode
	}{
		{
			name:    "missing pattern",
			req:     &types.MatchRequest{Target: types.Target{Molfile: butane}},
			code:    codes.InvalidArgument,
			errCode: errors.ErrCodeValidation,
		},
		{
			name:    "unknown element",
			req:     &types.MatchRequest{Pattern: json.RawMessage(`{"atoms":[{"element":"Zz"}]}`), Target: types.Target{Molfile: butane}},
			code:    codes.InvalidArgument,
			errCode: errors.ErrCodePatternContract,
		},
		{
			name:    "unparsable molfile",
			req:     &types.MatchRequest{Pattern: json.RawMessage(ccPattern), Target: types.Target{Molfile: "nothing"}},
			code:    codes.InvalidArgument,
			errCode: errors.ErrCodeMoleculeParseFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Match(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
			assert.Equal(t, tt.errCode, ErrorCode(err))
		})
	}
}

func TestToStatus(t *testing.T) {
	assert.Nil(t, toStatus(nil))
	assert.Equal(t, codes.Canceled, status.Code(toStatus(context.Canceled)))
	assert.Equal(t, codes.NotFound, status.Code(toStatus(errors.New(errors.ErrCodeMoleculeNotFound, "gone"))))
	assert.Equal(t, codes.Unavailable, status.Code(toStatus(errors.New(errors.ErrCodeServiceUnavailable, "down"))))
	assert.Equal(t, codes.ResourceExhausted, status.Code(toStatus(errors.New(errors.ErrCodeSearchLimitExceed, "big"))))

	st := toStatus(assert.AnError)
	assert.Equal(t, codes.Internal, status.Code(st))
	assert.Equal(t, "internal server error", status.Convert(st).Message())
	assert.Equal(t, errors.ErrCodeInternal, ErrorCode(st))

	passthrough := status.Error(codes.Aborted, "x")
	assert.Equal(t, passthrough, toStatus(passthrough))
	assert.Equal(t, errors.CodeUnknown, ErrorCode(passthrough))
}

func TestDecodeStruct(t *testing.T) {
	in, err := structpb.NewStruct(map[string]interface{}{
		"target":   map[string]interface{}{"molfile": "x"},
		"max_size": 5,
	})
	require.NoError(t, err)
	var req types.RingsRequest
	require.NoError(t, decodeStruct(in, &req))
	assert.Equal(t, 5, req.MaxSize)
	assert.Equal(t, "x", req.Target.Molfile)

	assert.True(t, errors.IsCode(decodeStruct(nil, &req), errors.CodeInvalidParam))
}

//Personal.AI order the ending
