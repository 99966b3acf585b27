package minio

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

type mockObjectAPI struct {
	mock.Mock
}

func (m *mockObjectAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *mockObjectAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockObjectAPI) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Error(1)
}

func (m *mockObjectAPI) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return m.Called(ctx, bucketName, objectName, opts).Error(0)
}

const benzeneMol = "benzene\n  test\n\n  6  6  0  0  0  0  0  0  0  0999 V2000\n"

func newStore(api *mockObjectAPI) *MolfileStore {
	client := NewClientWithAPI(api, config.MinIOConfig{}, logging.NewNopLogger())
	return NewMolfileStore(client, logging.NewNopLogger())
}

func noSuchKey() error {
	return minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
}

func TestEnsureBucket(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, "keyip-molfiles").Return(false, nil).Once()
	api.On("MakeBucket", mock.Anything, "keyip-molfiles", mock.Anything).Return(nil).Once()
	client := NewClientWithAPI(api, config.MinIOConfig{}, logging.NewNopLogger())

	require.NoError(t, client.EnsureBucket(context.Background()))
	api.AssertExpectations(t)

	api.On("BucketExists", mock.Anything, "keyip-molfiles").Return(true, nil)
	assert.NoError(t, client.EnsureBucket(context.Background()))
	assert.NoError(t, client.HealthCheck(context.Background()))
	api.AssertNumberOfCalls(t, "MakeBucket", 1)
}

func TestHealthCheck_Unreachable(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("BucketExists", mock.Anything, "keyip-molfiles").Return(false, assert.AnError)
	client := NewClientWithAPI(api, config.MinIOConfig{}, logging.NewNopLogger())

	err := client.HealthCheck(context.Background())
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestMolfileStore_Put(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("PutObject", mock.Anything, "keyip-molfiles", "lib/1.mol", mock.Anything, int64(len(benzeneMol)),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == molfileContentType })).
		Return(minio.UploadInfo{Key: "lib/1.mol"}, nil)
	store := newStore(api)

	require.NoError(t, store.PutMolfile(context.Background(), "lib/1.mol", []byte(benzeneMol)))
	api.AssertExpectations(t)

	assert.True(t, errors.IsCode(store.PutMolfile(context.Background(), "", []byte(benzeneMol)), errors.CodeInvalidParam))
	assert.True(t, errors.IsCode(store.PutMolfile(context.Background(), "x", nil), errors.CodeInvalidParam))
}

func TestMolfileStore_PutFailure(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError)

	err := newStore(api).PutMolfile(context.Background(), "lib/1.mol", []byte(benzeneMol))
	assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeStorageFailed))
}

func TestMolfileStore_Get(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("GetObject", mock.Anything, "keyip-molfiles", "lib/1.mol", mock.Anything).
		Return(io.NopCloser(strings.NewReader(benzeneMol)), nil)
	api.On("GetObject", mock.Anything, "keyip-molfiles", "lib/missing.mol", mock.Anything).
		Return(nil, noSuchKey())
	store := newStore(api)

	data, err := store.GetMolfile(context.Background(), "lib/1.mol")
	require.NoError(t, err)
	assert.Equal(t, benzeneMol, string(data))

	_, err = store.GetMolfile(context.Background(), "lib/missing.mol")
	assert.True(t, errors.IsCode(err, errors.ErrCodeMoleculeNotFound))
}

func TestMolfileStore_Delete(t *testing.T) {
	api := new(mockObjectAPI)
	api.On("RemoveObject", mock.Anything, "keyip-molfiles", "lib/1.mol", mock.Anything).Return(nil)

	assert.NoError(t, newStore(api).DeleteMolfile(context.Background(), "lib/1.mol"))
	api.AssertExpectations(t)
}

//Personal.AI order the ending
