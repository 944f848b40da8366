package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"

	"github.com/go-redis/redismock/v9"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestRequestLogging_RequestID(t *testing.T) {
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "has space")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.NotEqual(t, "has space", seen)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, apperrors.CodeInternal, resp.Code)
	assert.NotContains(t, resp.Message, "boom")
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(http.HandlerFunc(ok))

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"json", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"text", http.MethodPost, `{}`, "text/plain", http.StatusUnsupportedMediaType},
		{"missing", http.MethodPut, `{}`, "", http.StatusUnsupportedMediaType},
		{"bodyless put", http.MethodPut, "", "", http.StatusOK},
		{"get", http.MethodGet, "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	h := MaxRequestSize(8)(http.HandlerFunc(ok))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"too long"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestTimeout(t *testing.T) {
	h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, apperrors.CodeTimeout, decodeError(t, w).Code)
}

func TestRequestTimeout_PanicReachesRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(RequestTimeout(time.Second)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateLimiter_Window(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute, nil, logger.Discard())
	defer limiter.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	allowed, _ := limiter.Allow("a")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("a")
	assert.True(t, allowed)

	allowed, retry := limiter.Allow("a")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retry)

	allowed, _ = limiter.Allow("b")
	assert.True(t, allowed, "keys are independent")

	now = now.Add(time.Minute)
	allowed, _ = limiter.Allow("a")
	assert.True(t, allowed, "window slid past the first requests")

	now = now.Add(2 * time.Minute)
	limiter.removeIdle()
	limiter.mu.Lock()
	assert.Empty(t, limiter.requests)
	limiter.mu.Unlock()
}

func TestRateLimit_KeysByCallerThenIP(t *testing.T) {
	keyFunc := func(r *http.Request) string {
		return r.Header.Get("X-Test-User")
	}
	limiter := NewRateLimiter(1, time.Hour, keyFunc, logger.Discard())
	defer limiter.Stop()
	h := RateLimit(limiter)(http.HandlerFunc(ok))

	send := func(user, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":5555"
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("user:1", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("user:2", "10.0.0.1").Code, "same IP, different user")
	w := send("user:1", "10.0.0.2")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("", "10.0.0.1").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))
}

func countingHandler(calls *int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int32{"id": n})
	})
}

func TestIdempotency_ReplaysFirstSuccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls int32
	keyFunc := func(r *http.Request) string { return r.Header.Get("X-Test-User") }
	h := Idempotency(store, keyFunc, logger.Discard())(countingHandler(&calls))

	send := func(user, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(`{}`))
		req.Header.Set("X-Test-User", user)
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	first := send("user:1", "k1")
	second := send("user:1", "k1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	send("user:2", "k1")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "keys are scoped per caller")

	send("user:1", "")
	send("user:1", "")
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "no key, no dedupe")
}

func TestIdempotency_FailuresAreNotCached(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls int32
	h := Idempotency(store, nil, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			apperrors.WriteError(w, apperrors.InsufficientSeats(2, 1))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPut, "/trips/1/bookings/2/confirm", nil)
		req.Header.Set(IdempotencyKeyHeader, "retry-me")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (*CachedResponse, error) {
	return nil, errors.New("down")
}
func (failingStore) Set(context.Context, string, *CachedResponse) error { return nil }
func (failingStore) Stop()                                              {}

func TestIdempotency_StoreUnavailable(t *testing.T) {
	var calls int32
	h := Idempotency(failingStore{}, nil, logger.Discard())(countingHandler(&calls))

	req := httptest.NewRequest(http.MethodPost, "/trips", strings.NewReader(`{}`))
	req.Header.Set(IdempotencyKeyHeader, "k")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", &CachedResponse{StatusCode: 201}))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)

	now = now.Add(2 * time.Minute)
	got, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisIdempotencyStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisIdempotencyStore(db, time.Minute)
	ctx := context.Background()

	mock.ExpectGet(idempotencyKeyPrefix + "miss").RedisNil()
	got, err := store.Get(ctx, "miss")
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.Regexp().ExpectSet(idempotencyKeyPrefix+"hit", `"status_code":201`, time.Minute).SetVal("OK")
	require.NoError(t, store.Set(ctx, "hit", &CachedResponse{StatusCode: 201, Body: []byte(`{}`)}))

	mock.ExpectGet(idempotencyKeyPrefix + "hit").SetVal(`{"status_code":201,"headers":{"Content-Type":["application/json"]},"body":"e30="}`)
	got, err = store.Get(ctx, "hit")
	require.NoError(t, err)
	assert.Equal(t, 201, got.StatusCode)
	assert.Equal(t, "{}", string(got.Body))

	mock.ExpectGet(idempotencyKeyPrefix + "err").SetErr(errors.New("connection refused"))
	_, err = store.Get(ctx, "err")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHTTPMetrics_RouteTemplate(t *testing.T) {
	router := httprouter.New()
	router.PUT("/trips/:id/bookings/:booking_id/confirm", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})

	route := RouteTemplate(router)
	assert.Equal(t, "/trips/:id/bookings/:booking_id/confirm",
		route(httptest.NewRequest(http.MethodPut, "/trips/4/bookings/9/confirm", nil)))
	assert.Equal(t, "unmatched", route(httptest.NewRequest(http.MethodGet, "/nope", nil)))

	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg, route)
	h := metrics.Middleware(router)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/trips/4/bookings/9/confirm", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/trips/5/bookings/1/confirm", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(
		metrics.requests.WithLabelValues(http.MethodPut, "/trips/:id/bookings/:booking_id/confirm", "200")))
}
