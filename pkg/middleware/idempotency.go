package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	apperrors "carpool/pkg/errors"
	"carpool/pkg/logger"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"
	maxIdempotencyKeyLen = 255
)

// IdempotencyStore keeps the first successful response per scoped key. Get
// returns nil, nil on a miss.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*CachedResponse, error)
	Set(ctx context.Context, key string, response *CachedResponse) error
	Stop()
}

type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Body       []byte      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

type InMemoryIdempotencyStore struct {
	mu       sync.RWMutex
	store    map[string]*CachedResponse
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		store:  make(map[string]*CachedResponse),
		ttl:    ttl,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	go store.cleanup(cleanupInterval(ttl))

	return store
}

func (s *InMemoryIdempotencyStore) Get(_ context.Context, key string) (*CachedResponse, error) {
	s.mu.RLock()
	response, exists := s.store[key]
	s.mu.RUnlock()

	if !exists {
		return nil, nil
	}

	if s.now().Sub(response.CreatedAt) > s.ttl {
		s.mu.Lock()
		delete(s.store, key)
		s.mu.Unlock()
		return nil, nil
	}

	return response, nil
}

func (s *InMemoryIdempotencyStore) Set(_ context.Context, key string, response *CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	response.CreatedAt = s.now()
	s.store[key] = response
	return nil
}

func (s *InMemoryIdempotencyStore) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) removeExpired() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, response := range s.store {
		if now.Sub(response.CreatedAt) > s.ttl {
			delete(s.store, key)
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the first 2xx response for a repeated Idempotency-Key.
// Keys are scoped by client, method and path so two users cannot collide, and
// a key that is still being processed is answered with 409.
func Idempotency(store IdempotencyStore, keyFunc KeyFunc, log *logger.Logger) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		inFlight = make(map[string]struct{})
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := r.Header.Get(IdempotencyKeyHeader)

			if idempotencyKey == "" || !isUnsafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if len(idempotencyKey) > maxIdempotencyKeyLen {
				apperrors.WriteError(w, apperrors.InvalidInput("Idempotency-Key is too long"))
				return
			}

			key := scopedKey(r, keyFunc, idempotencyKey)
			ctx := r.Context()

			cached, err := store.Get(ctx, key)
			if err != nil {
				log.WithContext(ctx).Error("Idempotency store lookup failed", "error", err)
				apperrors.WriteError(w, apperrors.Unavailable("Idempotency store"))
				return
			}
			if cached != nil {
				replayCachedResponse(w, cached)
				return
			}

			mu.Lock()
			if _, busy := inFlight[key]; busy {
				mu.Unlock()
				apperrors.WriteError(w, apperrors.Conflict("A request with this Idempotency-Key is already in progress"))
				return
			}
			inFlight[key] = struct{}{}
			mu.Unlock()
			defer func() {
				mu.Lock()
				delete(inFlight, key)
				mu.Unlock()
			}()

			capture := captureResponse(w)
			next.ServeHTTP(capture, r)

			if !shouldCacheResponse(capture.statusCode) {
				return
			}
			response := &CachedResponse{
				StatusCode: capture.statusCode,
				Headers:    w.Header().Clone(),
				Body:       capture.body.Bytes(),
			}
			response.Headers.Del(RequestIDHeader)
			if err := store.Set(context.WithoutCancel(ctx), key, response); err != nil {
				log.WithContext(ctx).Error("Failed to store idempotent response", "error", err)
			}
		})
	}
}

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func scopedKey(r *http.Request, keyFunc KeyFunc, idempotencyKey string) string {
	client := ""
	if keyFunc != nil {
		client = keyFunc(r)
	}
	if client == "" {
		client = "ip:" + ClientIP(r)
	}

	sum := sha256.Sum256([]byte(client + "\n" + r.Method + "\n" + r.URL.Path + "\n" + idempotencyKey))
	return hex.EncodeToString(sum[:])
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		w.Header().Del(key)
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

func captureResponse(w http.ResponseWriter) *responseCapture {
	return &responseCapture{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		body:           &bytes.Buffer{},
	}
}

func shouldCacheResponse(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
