package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	client := NewClientFromUniversal(db, config.RedisConfig{}, logging.NewNopLogger())
	s.cache = NewRedisCache(client, logging.NewNopLogger(), WithPrefix("test:"))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type matchSummary struct {
	Count int     `json:"count"`
	Sets  [][]int `json:"sets"`
}

func (s *CacheTestSuite) TestGet_Hit() {
	val := matchSummary{Count: 2, Sets: [][]int{{0, 1}, {1, 2}}}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:k1").SetVal(string(data))

	var dest matchSummary
	require.NoError(s.T(), s.cache.Get(context.Background(), "k1", &dest))
	assert.Equal(s.T(), val, dest)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:k1").RedisNil()

	var dest matchSummary
	assert.Equal(s.T(), ErrCacheMiss, s.cache.Get(context.Background(), "k1", &dest))
}

func (s *CacheTestSuite) TestGet_Corrupt() {
	s.mock.ExpectGet("test:k1").SetVal("{not json")

	var dest matchSummary
	err := s.cache.Get(context.Background(), "k1", &dest)
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_DefaultTTL() {
	val := matchSummary{Count: 1}
	data, _ := json.Marshal(val)
	s.mock.ExpectSet("test:k1", data, 10*time.Minute).SetVal("OK")

	assert.NoError(s.T(), s.cache.Set(context.Background(), "k1", val, 0))
}

func (s *CacheTestSuite) TestGetOrSet_Hit() {
	data, _ := json.Marshal(matchSummary{Count: 3})
	s.mock.ExpectGet("test:k1").SetVal(string(data))

	var dest matchSummary
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		s.Fail("loader must not run on a hit")
		return nil, nil
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3, dest.Count)
}

func (s *CacheTestSuite) TestGetOrSet_MissStores() {
	val := matchSummary{Count: 1, Sets: [][]int{{4}}}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:k1").RedisNil()
	s.mock.ExpectSet("test:k1", data, time.Minute).SetVal("OK")

	var dest matchSummary
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return val, nil
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), val, dest)
}

func (s *CacheTestSuite) TestGetOrSet_LoaderError() {
	s.mock.ExpectGet("test:k1").RedisNil()

	var dest matchSummary
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, pkgerrors.PatternContract("bad pattern")
	})
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodePatternContract))
}

func (s *CacheTestSuite) TestGetOrSet_WriteFailureStillReturns() {
	val := matchSummary{Count: 5}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:k1").RedisNil()
	s.mock.ExpectSet("test:k1", data, time.Minute).SetErr(assert.AnError)

	var dest matchSummary
	err := s.cache.GetOrSet(context.Background(), "k1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return val, nil
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 5, dest.Count)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestGetOrSet_SingleFlight(t *testing.T) {
	client, _ := newMiniClient(t)
	cache := NewRedisCache(client, logging.NewNopLogger())

	var calls int32
	release := make(chan struct{})
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return matchSummary{Count: 7}, nil
	}

	var wg sync.WaitGroup
	results := make([]matchSummary, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, cache.GetOrSet(context.Background(), "shared", &results[i], time.Minute, loader))
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
	for _, r := range results {
		assert.Equal(t, 7, r.Count)
	}
}

//Personal.AI order the ending
