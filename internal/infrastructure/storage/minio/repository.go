package minio

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

const molfileContentType = "chemical/x-mdl-molfile"

// MaxMolfileSize bounds a single stored molfile.
const MaxMolfileSize = 4 << 20

var ErrObjectNotFound = errors.New(errors.ErrCodeMoleculeNotFound, "molfile not found")

// MolfileStore keeps library molfiles as objects under the configured bucket.
type MolfileStore struct {
	client *Client
	logger logging.Logger
}

var _ molecule.MolfileStore = (*MolfileStore)(nil)

func NewMolfileStore(client *Client, log logging.Logger) *MolfileStore {
	return &MolfileStore{client: client, logger: log}
}

func (s *MolfileStore) PutMolfile(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return errors.InvalidParam("molfile key is empty")
	}
	if len(data) == 0 || len(data) > MaxMolfileSize {
		return errors.InvalidParam("molfile size out of range").WithDetail(key)
	}
	_, err := s.client.api.PutObject(ctx, s.client.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: molfileContentType})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeMoleculeStorageFailed, "molfile upload failed").WithDetail(key)
	}
	s.logger.Debug("Stored molfile", logging.String("key", key), logging.Int("bytes", len(data)))
	return nil
}

func (s *MolfileStore) GetMolfile(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.api.GetObject(ctx, s.client.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(err, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, MaxMolfileSize+1))
	if err != nil {
		return nil, s.mapError(err, key)
	}
	if len(data) > MaxMolfileSize {
		return nil, errors.New(errors.ErrCodeMoleculeStorageFailed, "stored molfile exceeds size limit").WithDetail(key)
	}
	return data, nil
}

func (s *MolfileStore) DeleteMolfile(ctx context.Context, key string) error {
	if err := s.client.api.RemoveObject(ctx, s.client.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return s.mapError(err, key)
	}
	return nil
}

func (s *MolfileStore) mapError(err error, key string) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrObjectNotFound.WithDetail(key)
	}
	return errors.Wrap(err, errors.ErrCodeMoleculeStorageFailed, "molfile storage error").WithDetail(key)
}

//Personal.AI order the ending
