package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/aescanero/dago-sitegen/internal/build"
	"github.com/aescanero/dago-sitegen/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		WorkerID:      "worker-a",
		StreamKey:     "build",
		ConsumerGroup: "builders",
		ResultStream:  "built",
		LastBuildKey:  "build:last",
		BlockTime:     20 * time.Millisecond,
		BuildTimeout:  time.Second,
	}
}

func newTestWorker(t *testing.T, fn BuildFunc) (*Worker, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := testConfig()
	w := NewWorker(cfg, client, fn, NewStore(client, cfg.LastBuildKey), zap.NewNop())
	require.NoError(t, w.ensureConsumerGroup())
	return w, m
}

func okReport() *build.Report {
	return &build.Report{
		ID:       "b-1",
		Rendered: 2,
		Pages: []build.PageResult{
			{Page: "index", Lang: "en", Output: "index.html", Bytes: 10},
			{Page: "index", Lang: "de", Output: "de/index.html", Bytes: 12},
		},
	}
}

// streamData returns the "data" field of every entry in a stream
func streamData(t *testing.T, m *miniredis.Miniredis, key string) []string {
	t.Helper()
	entries, err := m.Stream(key)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		require.Len(t, e.Values, 2)
		require.Equal(t, "data", e.Values[0])
		out = append(out, e.Values[1])
	}
	return out
}

func TestParseBuildRequest(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]interface{}
		want    BuildRequest
		wantErr bool
	}{
		{
			name:   "json data",
			values: map[string]interface{}{"data": `{"request_id":"r1","reason":"edit","filter":"lang == 'en'"}`},
			want:   BuildRequest{RequestID: "r1", Reason: "edit", Filter: "lang == 'en'"},
		},
		{
			name:   "flat fields",
			values: map[string]interface{}{"request_id": "r2", "reason": "cron"},
			want:   BuildRequest{RequestID: "r2", Reason: "cron"},
		},
		{
			name:    "bad json",
			values:  map[string]interface{}{"data": `{"request_id":`},
			wantErr: true,
		},
		{
			name:    "data not a string",
			values:  map[string]interface{}{"data": 42},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBuildRequest(tt.values)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseBuildRequestGeneratesID(t *testing.T) {
	got, err := parseBuildRequest(map[string]interface{}{})
	require.NoError(t, err)
	assert.NotEmpty(t, got.RequestID)
}

func TestHandleMessagePublishesAndStores(t *testing.T) {
	var seen *BuildRequest
	w, m := newTestWorker(t, func(ctx context.Context, req *BuildRequest) (*build.Report, error) {
		seen = req
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return okReport(), nil
	})

	w.handleMessage(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"data": `{"request_id":"r1","reason":"edit"}`},
	})

	require.NotNil(t, seen)
	assert.Equal(t, "edit", seen.Reason)

	results := streamData(t, m, "built")
	require.Len(t, results, 1)
	event := results[0]
	assert.Equal(t, "r1", gjson.Get(event, "request_id").String())
	assert.Equal(t, "worker-a", gjson.Get(event, "worker_id").String())
	assert.Equal(t, "b-1", gjson.Get(event, "id").String())
	assert.True(t, gjson.Get(event, "ok").Bool())
	assert.Equal(t, int64(2), gjson.Get(event, "rendered").Int())
	assert.False(t, gjson.Get(event, "pages").Exists(), "result stream carries the summary only")

	stored, err := m.Get("build:last")
	require.NoError(t, err)
	assert.Equal(t, "r1", gjson.Get(stored, "request_id").String())
	assert.Equal(t, int64(2), gjson.Get(stored, "pages.#").Int())
	assert.Equal(t, "de/index.html", gjson.Get(stored, "pages.1.output").String())

	assert.Empty(t, streamData(t, m, "built.errors"))
}

func TestHandleMessageReportsPageFailures(t *testing.T) {
	w, m := newTestWorker(t, func(ctx context.Context, req *BuildRequest) (*build.Report, error) {
		report := okReport()
		report.Pages[1].Error = "boom"
		report.Rendered, report.Failed = 1, 1
		return report, errors.New("index/de: boom")
	})

	w.handleMessage(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"request_id": "r2"},
	})

	results := streamData(t, m, "built")
	require.Len(t, results, 1)
	assert.False(t, gjson.Get(results[0], "ok").Bool())
	assert.Equal(t, int64(1), gjson.Get(results[0], "failed").Int())

	errs := streamData(t, m, "built.errors")
	require.Len(t, errs, 1)
	assert.Equal(t, "r2", gjson.Get(errs[0], "request_id").String())
	assert.Equal(t, "index/de: boom", gjson.Get(errs[0], "error").String())
}

func TestHandleMessageBuildSetupFailure(t *testing.T) {
	w, m := newTestWorker(t, func(ctx context.Context, req *BuildRequest) (*build.Report, error) {
		return nil, errors.New("data directory \"data\" not found")
	})

	w.handleMessage(context.Background(), redis.XMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"request_id": "r3"},
	})

	assert.Empty(t, streamData(t, m, "built"))
	errs := streamData(t, m, "built.errors")
	require.Len(t, errs, 1)
	assert.Contains(t, gjson.Get(errs[0], "error").String(), "not found")
	assert.False(t, m.Exists("build:last"))
}

func TestHandleMessageBadRequest(t *testing.T) {
	called := false
	w, m := newTestWorker(t, func(ctx context.Context, req *BuildRequest) (*build.Report, error) {
		called = true
		return okReport(), nil
	})

	w.handleMessage(context.Background(), redis.XMessage{
		ID:     "7-0",
		Values: map[string]interface{}{"data": "not json"},
	})

	assert.False(t, called)
	errs := streamData(t, m, "built.errors")
	require.Len(t, errs, 1)
	assert.Equal(t, "7-0", gjson.Get(errs[0], "request_id").String())
}

func TestEnsureConsumerGroupIsIdempotent(t *testing.T) {
	w, _ := newTestWorker(t, nil)
	assert.NoError(t, w.ensureConsumerGroup())
}

func TestWorkerProcessesStream(t *testing.T) {
	builds := make(chan string, 4)
	w, m := newTestWorker(t, func(ctx context.Context, req *BuildRequest) (*build.Report, error) {
		builds <- req.RequestID
		return okReport(), nil
	})

	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })

	_, err := m.XAdd("build", "*", []string{"data", `{"request_id":"live"}`})
	require.NoError(t, err)

	select {
	case id := <-builds:
		assert.Equal(t, "live", id)
	case <-time.After(5 * time.Second):
		t.Fatal("build request was not consumed")
	}

	require.Eventually(t, func() bool {
		entries, err := m.Stream("built")
		return err == nil && len(entries) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStoreLast(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()

	store := NewStore(client, "last")
	ctx := context.Background()

	_, err := store.Last(ctx)
	assert.ErrorIs(t, err, ErrNoBuild)

	require.NoError(t, store.SaveLast(ctx, []byte(`{"id":"b-1"}`)))
	got, err := store.Last(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"b-1"}`, string(got))
}
