package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mapboard/mapboard/internal/config"
	"github.com/mapboard/mapboard/internal/ratelimit"
	"github.com/mapboard/mapboard/pkg/mapstore"
)

// testEnv bundles everything the handler tests need.
type testEnv struct {
	srv     *Server
	httpSrv *httptest.Server
	store   *mapstore.Store
	mr      *miniredis.Miniredis
}

// setupTestEnv starts a miniredis, a store and the full server handler
// mounted on httptest. The background hub is started so streaming tests work.
func setupTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	store, err := mapstore.NewStore(&redis.Options{Addr: mr.Addr()}, "test-instance", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if cfg == nil {
		cfg = config.Default()
	}

	limiter := ratelimit.New(cfg.RateLimitWindow(), cfg.RateLimit.MaxRequests)
	srv := New(cfg, store, limiter, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.startBackground(ctx))
	t.Cleanup(cancel)

	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)

	return &testEnv{srv: srv, httpSrv: httpSrv, store: store, mr: mr}
}

func testSet() mapstore.MapSet {
	return mapstore.MapSet{
		"CUAS": {
			ID:         "CUAS",
			Name:       "CUAS",
			Categories: []string{"Sensing"},
			Firms: []mapstore.Firm{
				{ID: "f1", Name: "Acme", Category: "Sensing", Subcategory: "Radar"},
			},
		},
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestGetData(t *testing.T) {
	t.Run("serves the seeded set on first read", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		resp, err := http.Get(env.httpSrv.URL + "/api/data")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		set := decodeBody[mapstore.MapSet](t, resp)
		assert.Equal(t, mapstore.Seed(), set)
	})

	t.Run("serves the latest written set", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		want := testSet()
		require.NoError(t, env.store.Set(context.Background(), want))

		resp, err := http.Get(env.httpSrv.URL + "/api/data")
		require.NoError(t, err)
		set := decodeBody[mapstore.MapSet](t, resp)
		assert.Equal(t, want, set)
	})
}

func TestSetData(t *testing.T) {
	t.Run("accepts a valid candidate via POST", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		resp := postJSON(t, env.httpSrv.URL+"/api/data", testSet())
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[successResponse](t, resp)
		assert.True(t, body.Success)

		got, err := env.store.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testSet(), got)
	})

	t.Run("accepts PUT as an alias for POST", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		payload, err := json.Marshal(testSet())
		require.NoError(t, err)
		req, err := http.NewRequest(http.MethodPut, env.httpSrv.URL+"/api/data", bytes.NewReader(payload))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("rejects a firm missing subcategory and leaves store unchanged", func(t *testing.T) {
		env := setupTestEnv(t, nil)
		ctx := context.Background()

		prior := testSet()
		require.NoError(t, env.store.Set(ctx, prior))

		sub, err := env.store.Subscribe(ctx)
		require.NoError(t, err)
		defer sub.Close()

		bad := testSet()
		m := bad["CUAS"]
		m.Firms[0].Subcategory = ""
		bad["CUAS"] = m

		resp := postJSON(t, env.httpSrv.URL+"/api/data", bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody[errorResponse](t, resp)
		assert.Equal(t, mapstore.ReasonInvalidFirm, body.Error)

		got, err := env.store.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, prior, got)

		assertNoEvent(t, sub)
	})

	t.Run("rejects a non-object body", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		resp, err := http.Post(env.httpSrv.URL+"/api/data", "application/json", bytes.NewReader([]byte(`"nope"`)))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody[errorResponse](t, resp)
		assert.Equal(t, mapstore.ReasonInvalidData, body.Error)
	})

	t.Run("rejects a malformed map", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		bad := testSet()
		m := bad["CUAS"]
		m.Categories = nil
		bad["CUAS"] = m

		resp := postJSON(t, env.httpSrv.URL+"/api/data", bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody[errorResponse](t, resp)
		assert.Equal(t, mapstore.ReasonInvalidMap, body.Error)
	})

	t.Run("rejects unsupported methods", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		req, err := http.NewRequest(http.MethodDelete, env.httpSrv.URL+"/api/data", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestRateLimiting(t *testing.T) {
	t.Run("first 100 requests succeed, the rest get 429", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		var ok, limited int
		for i := 0; i < 150; i++ {
			req, err := http.NewRequest(http.MethodGet, env.httpSrv.URL+"/api/data", nil)
			require.NoError(t, err)
			req.Header.Set("X-Forwarded-For", "203.0.113.7")
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			switch resp.StatusCode {
			case http.StatusOK:
				ok++
			case http.StatusTooManyRequests:
				limited++
			default:
				t.Fatalf("unexpected status %d on request %d", resp.StatusCode, i+1)
			}
			resp.Body.Close()
		}

		assert.Equal(t, 100, ok)
		assert.Equal(t, 50, limited)
	})

	t.Run("rate limited response is distinguishable", func(t *testing.T) {
		cfg := config.Default()
		cfg.RateLimit.MaxRequests = 1
		env := setupTestEnv(t, cfg)

		get := func() *http.Response {
			req, err := http.NewRequest(http.MethodGet, env.httpSrv.URL+"/api/data", nil)
			require.NoError(t, err)
			req.Header.Set("X-Forwarded-For", "203.0.113.9")
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			return resp
		}

		resp := get()
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = get()
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		body := decodeBody[errorResponse](t, resp)
		assert.Contains(t, body.Error, "Too many requests")
	})

	t.Run("write and read share the per-client bucket", func(t *testing.T) {
		cfg := config.Default()
		cfg.RateLimit.MaxRequests = 1
		env := setupTestEnv(t, cfg)

		req, err := http.NewRequest(http.MethodGet, env.httpSrv.URL+"/api/data", nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", "203.0.113.11")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		payload, err := json.Marshal(testSet())
		require.NoError(t, err)
		req, err = http.NewRequest(http.MethodPost, env.httpSrv.URL+"/api/data", bytes.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", "203.0.113.11")
		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	})
}

func TestCORS(t *testing.T) {
	t.Run("every response carries the headers", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		resp, err := http.Get(env.httpSrv.URL + "/api/data")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PUT")
	})

	t.Run("preflight gets an empty 200", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		req, err := http.NewRequest(http.MethodOptions, env.httpSrv.URL+"/api/data", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, int64(0), resp.ContentLength)
	})
}

func TestHealthz(t *testing.T) {
	t.Run("healthy while Redis responds", func(t *testing.T) {
		env := setupTestEnv(t, nil)

		resp, err := http.Get(env.httpSrv.URL + "/healthz")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[healthResponse](t, resp)
		assert.Equal(t, "healthy", body.Status)
	})

	t.Run("unhealthy when Redis is gone", func(t *testing.T) {
		env := setupTestEnv(t, nil)
		env.mr.Close()

		resp, err := http.Get(env.httpSrv.URL + "/healthz")
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		body := decodeBody[healthResponse](t, resp)
		assert.Equal(t, "unhealthy", body.Status)
		assert.NotEmpty(t, body.Error)
	})
}

func TestClientAddr(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"forwarded header wins", "10.0.0.1:1234", "203.0.113.5", "203.0.113.5"},
		{"first forwarded entry", "10.0.0.1:1234", "203.0.113.5, 10.0.0.2", "203.0.113.5"},
		{"remote addr fallback", "10.0.0.1:1234", "", "10.0.0.1"},
		{"unknown bucket", "", "", "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/data", nil)
			r.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			assert.Equal(t, tc.want, clientAddr(r))
		})
	}
}

// assertNoEvent fails if the subscription yields an event shortly after a
// rejected write.
func assertNoEvent(t *testing.T, sub *mapstore.Subscription) {
	t.Helper()
	select {
	case set := <-sub.Events():
		t.Fatalf("unexpected publish event: %v", set)
	case <-time.After(100 * time.Millisecond):
	}
}
