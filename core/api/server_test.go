package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dryack/dndice/core/config"
	"github.com/dryack/dndice/core/dsl"
	"github.com/dryack/dndice/core/statistics"
	"github.com/dryack/dndice/core/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constantSource int

func (c constantSource) Uniform(low, high int) int {
	return int(c)
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*dsl.CachedResult
	sets    int
	pingErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]*dsl.CachedResult{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (*dsl.CachedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, dsl.ErrNotFound
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value *dsl.CachedResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.sets++
	return nil
}

func (m *memoryStore) Keys(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

func (m *memoryStore) Lock(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

func (m *memoryStore) Ping(context.Context) error {
	return m.pingErr
}

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("DNDICE_SIMULATION_ITERATIONS", "200")

	cfg, err := config.Load()
	require.NoError(t, err)
	if deps.Source == nil {
		deps.Source = constantSource(3)
	}
	return NewServerWith(cfg, deps)
}

func doRequest(t *testing.T, s *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func rollURL(expression string) string {
	return "/api/roll?expr=" + utils.EncodeExpression(expression)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Dependencies{})
	w, resp := doRequest(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, healthDisabled, resp["cache"])
	assert.Equal(t, healthDisabled, resp["database"])

	cache := newMemoryStore()
	cache.pingErr = errors.New("connection refused")
	s = newTestServer(t, Dependencies{Cache: cache, Database: newMemoryStore()})
	w, resp = doRequest(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, healthUnavailable, resp["cache"])
	assert.Equal(t, healthOK, resp["database"])
}

func TestEncodeExpression(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	w, resp := doRequest(t, s, http.MethodGet, "/api/encode?expression=d20%2B5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "d20+5", resp["original"])
	assert.Equal(t, "1d20 + 5", resp["canonical"])
	assert.Equal(t, utils.EncodeExpression("d20+5"), resp["encoded"])

	w, resp = doRequest(t, s, http.MethodGet, "/api/encode?expression=1f4", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_character", resp["kind"])

	w, _ = doRequest(t, s, http.MethodGet, "/api/encode", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiceRollCachesStatistics(t *testing.T) {
	cache := newMemoryStore()
	s := newTestServer(t, Dependencies{Cache: cache})

	w, resp := doRequest(t, s, http.MethodGet, rollURL("2d6 +1"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2d6 + 1", resp["expression"])
	assert.Equal(t, "2d6 +1", resp["original"])
	assert.Equal(t, float64(7), resp["result"])
	assert.Equal(t, "| 3 3 ", resp["log"])
	assert.Equal(t, string(dsl.SourceFreshCalculation), resp["source"])
	assert.NotEmpty(t, resp["receipt"])
	assert.NotEmpty(t, resp["request_duration"])

	breakdown, ok := resp["breakdown"].([]interface{})
	require.True(t, ok)
	require.Len(t, breakdown, 1)
	group := breakdown[0].(map[string]interface{})
	assert.Equal(t, float64(6), group["faces"])
	assert.Equal(t, []interface{}{float64(3), float64(3)}, group["rolls"])

	stats, ok := resp["statistics"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(7), stats["min"])
	assert.Equal(t, float64(200), stats["samples"])
	assert.Contains(t, cache.entries, "2d6 + 1")

	// The same dice written differently share one cache entry.
	w, resp = doRequest(t, s, http.MethodGet, rollURL("2D6+1"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(dsl.SourceCache), resp["source"])
	assert.Equal(t, 1, cache.sets)
}

func TestDiceRollFromDatabase(t *testing.T) {
	cache := newMemoryStore()
	db := newMemoryStore()
	db.entries["1d20"] = &dsl.CachedResult{
		Expression: "1d20",
		Statistics: statistics.Calculate([]int{1, 20}),
	}
	s := newTestServer(t, Dependencies{Cache: cache, Database: db})

	w, resp := doRequest(t, s, http.MethodGet, rollURL("d20"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(dsl.SourceDatabase), resp["source"])
	assert.Contains(t, cache.entries, "1d20")
}

func TestDiceRollWithoutCacheWritesDatabase(t *testing.T) {
	db := newMemoryStore()
	s := newTestServer(t, Dependencies{Database: db})

	w, _ := doRequest(t, s, http.MethodGet, rollURL("3d4"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, db.entries, "3d4")
}

func TestDiceRollErrors(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	tests := []struct {
		name   string
		target string
		kind   string
	}{
		{name: "Missing expression", target: "/api/roll"},
		{name: "Bad encoding", target: "/api/roll?expr=!!!"},
		{name: "Trailing operator", target: rollURL("1d4+"), kind: "invalid_math"},
		{name: "Bad faces", target: rollURL("1da"), kind: "invalid_number"},
		{name: "Double die", target: rollURL("1dd4"), kind: "invalid_die"},
		{name: "Too many dice", target: rollURL("100001d6"), kind: "invalid_die"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, s, http.MethodGet, tt.target, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, resp["error"])
			if tt.kind != "" {
				assert.Equal(t, tt.kind, resp["kind"])
			}
		})
	}
}

func TestScores(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	w, resp := doRequest(t, s, http.MethodGet, "/api/scores/std?number=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	sets := resp["scores"].([]interface{})
	require.Len(t, sets, 2)
	assert.Equal(t, []interface{}{15.0, 14.0, 13.0, 12.0, 10.0, 8.0}, sets[0])

	w, resp = doRequest(t, s, http.MethodGet, "/api/scores/4d6", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{9.0, 9.0, 9.0, 9.0, 9.0, 9.0}, resp["scores"].([]interface{})[0])

	w, _ = doRequest(t, s, http.MethodGet, "/api/scores/5d4", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, s, http.MethodGet, "/api/scores/std?number=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	w, resp := doRequest(t, s, http.MethodPost, "/api/sessions", `{"name":"Longsword","expression":"1d8+3"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := resp["id"].(string)
	assert.Equal(t, "Longsword: 1d8 + 3", resp["display"])

	w, resp = doRequest(t, s, http.MethodPost, "/api/sessions/"+id+"/roll", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(6), resp["result"])
	assert.Equal(t, "| 3 ", resp["log"])

	w, resp = doRequest(t, s, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["rolls"])

	w, resp = doRequest(t, s, http.MethodGet, "/api/sessions/"+id+"/log/0", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "| 3 ", resp["log"])

	w, _ = doRequest(t, s, http.MethodGet, "/api/sessions/"+id+"/log/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = doRequest(t, s, http.MethodGet, "/api/sessions/"+id+"/log/last", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, s, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = doRequest(t, s, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = doRequest(t, s, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSessionErrors(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	w, _ := doRequest(t, s, http.MethodPost, "/api/sessions", `{"name":"no dice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := doRequest(t, s, http.MethodPost, "/api/sessions", `{"expression":"2d"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_number", resp["kind"])

	w, resp = doRequest(t, s, http.MethodPost, "/api/sessions", `{"expression":"2147483647d6"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_die", resp["kind"])
	assert.Equal(t, 0, s.Sessions().Len())
}

func TestVerifyReceipt(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	_, rolled := doRequest(t, s, http.MethodGet, rollURL("4d6"), "")
	token := rolled["receipt"].(string)

	w, resp := doRequest(t, s, http.MethodGet, "/api/receipts/verify?token="+token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["valid"])
	assert.Equal(t, "4d6", resp["expression"])
	assert.Equal(t, float64(12), resp["value"])
	assert.Equal(t, "| 3 3 3 3 ", resp["log"])

	w, resp = doRequest(t, s, http.MethodGet, "/api/receipts/verify?token=forged", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, resp["valid"])

	w, _ = doRequest(t, s, http.MethodGet, "/api/receipts/verify", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
