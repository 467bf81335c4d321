package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func newTestHealth(t *testing.T) (*HealthServer, *miniredis.Miniredis, *Store) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewStore(client, "last")
	return NewHealthServer(0, client, store, zap.NewNop()), m, store
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	hs, _, _ := newTestHealth(t)
	h := hs.Handler()

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "healthy", gjson.Get(body, "status").String())
	assert.Equal(t, "none", gjson.Get(body, "checks.last_build").String())

	rec = get(t, h, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", gjson.Get(rec.Body.String(), "status").String())
}

func TestHealthRedisDown(t *testing.T) {
	hs, m, _ := newTestHealth(t)
	m.Close()

	rec := get(t, hs.Handler(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unhealthy", gjson.Get(rec.Body.String(), "status").String())

	rec = get(t, hs.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLastBuildEndpoint(t *testing.T) {
	hs, _, store := newTestHealth(t)
	h := hs.Handler()

	assert.Equal(t, http.StatusNotFound, get(t, h, "/build/last").Code)

	report := `{"id":"b-9","ok":false,"failed":2,"pages":[]}`
	require.NoError(t, store.SaveLast(context.Background(), []byte(report)))

	rec := get(t, h, "/build/last")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, report, rec.Body.String())

	health := get(t, h, "/health").Body.String()
	assert.Equal(t, "failed b-9 (2 pages)", gjson.Get(health, "checks.last_build").String())
}

func TestLastBuildWithoutStore(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()

	hs := NewHealthServer(0, client, nil, zap.NewNop())
	assert.Equal(t, http.StatusNotFound, get(t, hs.Handler(), "/build/last").Code)
	assert.Equal(t, "unknown", gjson.Get(get(t, hs.Handler(), "/health").Body.String(), "checks.last_build").String())
}
