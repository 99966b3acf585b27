// Package screening is the application service in front of the substructure
// engine. It resolves targets from inline molfiles or the stored library,
// caches search results and perception tables, screens whole libraries
// concurrently and runs asynchronous screening jobs.
package screening

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

// EventSource tags every envelope the service publishes.
const EventSource = "keyip-substructure"

const (
	defaultJobLeaseTTL  = 10 * time.Minute
	defaultJobResultTTL = 24 * time.Hour
)

// Service is the substructure search use-case surface shared by the HTTP,
// gRPC, CLI and worker entry points.
type Service interface {
	Match(ctx context.Context, req *types.MatchRequest) (*types.MatchResponse, error)
	Any(ctx context.Context, req *types.MatchRequest) (*types.MatchResponse, error)
	Rings(ctx context.Context, req *types.RingsRequest) (*types.RingsResponse, error)
	Aromatic(ctx context.Context, req *types.AromaticRequest) (*types.AromaticResponse, error)

	CreateLibrary(ctx context.Context, req *types.CreateLibraryRequest) (*types.LibraryResponse, error)
	GetLibrary(ctx context.Context, id string) (*types.LibraryResponse, error)
	AddMolecule(ctx context.Context, req *types.AddMoleculeRequest) (*types.MoleculeResponse, error)
	GetMolecule(ctx context.Context, id string, withMolfile bool) (*types.MoleculeResponse, error)
	ScreenLibrary(ctx context.Context, libraryID string, req *types.ScreenRequest) (*types.ScreenResponse, error)

	SubmitJob(ctx context.Context, req *types.JobRequest) (*types.JobResult, error)
	JobStatus(ctx context.Context, jobID string) (*types.JobResult, error)
	// HandleScreeningRequest is the kafka handler run by the worker.
	HandleScreeningRequest(ctx context.Context, msg *kafka.Message) error

	// Close releases the in-process caches.
	Close()
}

// Leaser hands out single-owner leases; the redis client implements it.
type Leaser interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error)
}

// Config tunes the service.
type Config struct {
	Search       config.SearchConfig
	RequestTopic string
	ResultTopic  string
	// WorkerID labels the active-jobs gauge.
	WorkerID     string
	JobLeaseTTL  time.Duration
	JobResultTTL time.Duration
}

// Dependencies are the collaborators of the service. Repository, Molfiles,
// Cache, Leaser and Publisher are optional: operations needing a missing
// one fail with COMMON_008.
type Dependencies struct {
	Repository molecule.Repository
	Molfiles   molecule.MolfileStore
	Cache      redis.Cache
	Leaser     Leaser
	Publisher  kafka.Publisher
	Logger     logging.Logger
	Metrics    *prometheus.AppMetrics
}

type serviceImpl struct {
	cfg        Config
	repo       molecule.Repository
	molfiles   molecule.MolfileStore
	cache      redis.Cache
	leaser     Leaser
	publisher  kafka.Publisher
	perception *perceptionCache
	validate   *validator.Validate
	logger     logging.Logger
	metrics    *prometheus.AppMetrics
}

// NewService creates the screening service.
func NewService(cfg Config, deps Dependencies) (Service, error) {
	if deps.Logger == nil {
		return nil, errors.InvalidParam("logger is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = prometheus.NewNoopAppMetrics()
	}
	applyDefaults(&cfg)

	log := deps.Logger.Named("screening")
	pc, err := newPerceptionCache(cfg.Search.PerceptionCacheSize, log, deps.Metrics)
	if err != nil {
		return nil, err
	}
	return &serviceImpl{
		cfg:        cfg,
		repo:       deps.Repository,
		molfiles:   deps.Molfiles,
		cache:      deps.Cache,
		leaser:     deps.Leaser,
		publisher:  deps.Publisher,
		perception: pc,
		validate:   validator.New(),
		logger:     log,
		metrics:    deps.Metrics,
	}, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Search.RingDataMax == 0 {
		cfg.Search.RingDataMax = config.DefaultRingDataMax
	}
	if cfg.Search.MaxTargetsPerBatch == 0 {
		cfg.Search.MaxTargetsPerBatch = config.DefaultMaxTargetsPerBatch
	}
	if cfg.Search.BatchConcurrency == 0 {
		cfg.Search.BatchConcurrency = config.DefaultBatchConcurrency
	}
	if cfg.Search.ResultCacheTTL == 0 {
		cfg.Search.ResultCacheTTL = config.DefaultResultCacheTTL
	}
	if cfg.Search.PerceptionCacheSize == 0 {
		cfg.Search.PerceptionCacheSize = config.DefaultPerceptionCacheSize
	}
	if cfg.RequestTopic == "" {
		cfg.RequestTopic = config.DefaultKafkaRequestTopic
	}
	if cfg.ResultTopic == "" {
		cfg.ResultTopic = config.DefaultKafkaResultTopic
	}
	if cfg.WorkerID == "" {
		cfg.WorkerID = "default"
	}
	if cfg.JobLeaseTTL == 0 {
		cfg.JobLeaseTTL = defaultJobLeaseTTL
	}
	if cfg.JobResultTTL == 0 {
		cfg.JobResultTTL = defaultJobResultTTL
	}
}

func (s *serviceImpl) check(req interface{}) error {
	if err := s.validate.Struct(req); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "invalid request")
	}
	return nil
}

func (s *serviceImpl) requireStorage() error {
	if s.repo == nil || s.molfiles == nil {
		return errors.New(errors.ErrCodeServiceUnavailable, "molecule library storage is not configured")
	}
	return nil
}

func (s *serviceImpl) Close() {
	s.perception.close()
}

// withTimeout bounds one engine call.
func (s *serviceImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Search.SearchTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Search.SearchTimeout)
	}
	return context.WithCancel(ctx)
}

//Personal.AI order the ending
