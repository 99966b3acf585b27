package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Substructure/internal/application/screening"
	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/database/redis"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/internal/testutil"
	types "github.com/turtacn/KeyIP-Substructure/pkg/types/substructure"
)

const ethane = `{"atoms":[{"element":"C"},{"element":"C"}],"bonds":[{"from":0,"to":1,"type":"-"}]}`

type env struct {
	engine *gin.Engine
	lib    *testutil.MemoryLibrary
	pub    *testutil.RecordingPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	e := &env{lib: testutil.NewMemoryLibrary(), pub: &testutil.RecordingPublisher{}}
	svc, err := screening.NewService(screening.Config{}, screening.Dependencies{
		Repository: e.lib,
		Molfiles:   e.lib,
		Cache:      redis.NewRedisCache(client, logging.NewNopLogger()),
		Leaser:     client,
		Publisher:  e.pub,
		Logger:     logging.NewNopLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	log := logging.NewNopLogger()
	sub := NewSubstructureHandler(svc, log)
	lib := NewLibraryHandler(svc, log)
	jobs := NewJobHandler(svc, log)

	r := gin.New()
	r.POST("/match", sub.Match)
	r.POST("/any", sub.Any)
	r.POST("/rings", sub.Rings)
	r.POST("/aromatic", sub.Aromatic)
	r.POST("/library", lib.CreateLibrary)
	r.GET("/library/:id", lib.GetLibrary)
	r.POST("/library/:id/screen", lib.Screen)
	r.POST("/library/molecules", lib.AddMolecule)
	r.GET("/library/molecules/:id", lib.GetMolecule)
	r.POST("/jobs/screen", jobs.Submit)
	r.GET("/jobs/:id", jobs.Status)
	e.engine = r
	return e
}

func (e *env) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func TestSubstructureHandler_Match(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/match", types.MatchRequest{
		Pattern: json.RawMessage(ethane),
		Target:  types.Target{Molfile: testutil.Molfile(testutil.Chain(3))},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.MatchResponse
	decode(t, w, &resp)
	assert.True(t, resp.Matched)
	assert.Equal(t, [][]int{{0, 1}, {1, 2}}, resp.Sets)

	w = e.do(t, http.MethodPost, "/any", types.MatchRequest{
		Pattern: json.RawMessage(ethane),
		Target:  types.Target{Molfile: testutil.Molfile(testutil.Chain(3))},
	})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.Count)
}

func TestSubstructureHandler_Errors(t *testing.T) {
	e := newEnv(t)
	chain := testutil.Molfile(testutil.Chain(3))

	tests := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed body", `{"pattern":`, http.StatusBadRequest, "COMMON_002"},
		{"missing target", types.MatchRequest{Pattern: json.RawMessage(ethane)}, http.StatusBadRequest, "COMMON_010"},
		{"unknown element", types.MatchRequest{
			Pattern: json.RawMessage(`{"atoms":[{"element":"Zz"}]}`),
			Target:  types.Target{Molfile: chain},
		}, http.StatusUnprocessableEntity, "SUB_001"},
		{"bad molfile", types.MatchRequest{
			Pattern: json.RawMessage(ethane),
			Target:  types.Target{Molfile: "nothing"},
		}, http.StatusUnprocessableEntity, "MOL_006"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/match", tt.body)
			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestSubstructureHandler_RingsAndAromatic(t *testing.T) {
	e := newEnv(t)
	target := types.Target{Molfile: testutil.Molfile(testutil.Toluene())}

	w := e.do(t, http.MethodPost, "/rings", types.RingsRequest{Target: target, MaxSize: 7})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rings types.RingsResponse
	decode(t, w, &rings)
	assert.Equal(t, 7, rings.MaxSize)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, rings.Members[6])

	w = e.do(t, http.MethodPost, "/aromatic", types.AromaticRequest{Target: target, Strict: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var arom types.AromaticResponse
	decode(t, w, &arom)
	assert.True(t, arom.Strict)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, arom.Aromatic)
}

func TestLibraryHandler_Lifecycle(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/library", types.CreateLibraryRequest{Name: "set-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var lib types.LibraryResponse
	decode(t, w, &lib)

	w = e.do(t, http.MethodPost, "/library", types.CreateLibraryRequest{Name: "set-1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/library/molecules", types.AddMoleculeRequest{
		LibraryID: lib.ID,
		Molfile:   testutil.Molfile(testutil.Chain(3)),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var mol types.MoleculeResponse
	decode(t, w, &mol)
	assert.Equal(t, "C3H8", mol.Formula)

	w = e.do(t, http.MethodGet, "/library/molecules/"+mol.ID+"?molfile=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got types.MoleculeResponse
	decode(t, w, &got)
	assert.Contains(t, got.Molfile, "M  END")

	w = e.do(t, http.MethodGet, "/library/"+lib.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &lib)
	assert.Equal(t, int64(1), lib.Molecules)

	w = e.do(t, http.MethodPost, "/library/"+lib.ID+"/screen", types.ScreenRequest{Pattern: json.RawMessage(ethane)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var screen types.ScreenResponse
	decode(t, w, &screen)
	require.Len(t, screen.Hits, 1)
	assert.Equal(t, mol.ID, screen.Hits[0].MoleculeID)

	w = e.do(t, http.MethodGet, "/library/molecules/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobHandler(t *testing.T) {
	e := newEnv(t)
	lib := &molecule.Library{ID: "0e6a5a43-3a4c-4b8e-9d7e-6f1f5f6b2c10", Name: "jobs"}
	e.lib.Seed(lib, testutil.Chain(2))

	w := e.do(t, http.MethodPost, "/jobs/screen", types.JobRequest{
		LibraryID: lib.ID,
		Screen:    types.ScreenRequest{Pattern: json.RawMessage(ethane)},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var job types.JobResult
	decode(t, w, &job)
	assert.Equal(t, types.JobQueued, job.Status)
	assert.Equal(t, "/api/v1/jobs/"+job.JobID, w.Header().Get("Location"))
	assert.Len(t, e.pub.Events(), 1)

	w = e.do(t, http.MethodGet, "/jobs/"+job.JobID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &job)
	assert.Equal(t, types.JobQueued, job.Status)

	w = e.do(t, http.MethodGet, "/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	e.pub.Err = errors.New("broker down")
	w = e.do(t, http.MethodPost, "/jobs/screen", types.JobRequest{
		LibraryID: lib.ID,
		Screen:    types.ScreenRequest{Pattern: json.RawMessage(ethane)},
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "internal server error", resp.Message)
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := CheckFunc{Component: "redis", Fn: func(context.Context) error { return nil }}
	broken := CheckFunc{Component: "postgres", Fn: func(context.Context) error { return errors.New("connection refused") }}

	tests := []struct {
		name     string
		checkers []HealthChecker
		status   int
		want     string
	}{
		{"no dependencies", nil, http.StatusOK, "ready"},
		{"all healthy", []HealthChecker{healthy}, http.StatusOK, "ready"},
		{"one broken", []HealthChecker{healthy, broken}, http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler("test", tt.checkers...)
			r := gin.New()
			r.GET("/readyz", h.Readiness)
			r.GET("/healthz", h.Liveness)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.status, w.Code)
			var resp ReadinessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Status)
			assert.Len(t, resp.Components, len(tt.checkers))

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"version":"test"`)
		})
	}
}

//Personal.AI order the ending
