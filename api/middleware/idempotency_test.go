package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/tradeflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradeflow-backend/pkg/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	// onWrite runs once, after Del removes keys or before Set overwrites one.
	onWrite func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.fireOnWrite()
	f.mu.Lock()
	defer f.mu.Unlock()
	str, _ := value.(string)
	f.data[key] = str
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	for _, key := range keys {
		delete(f.data, key)
		delete(f.ttls, key)
	}
	f.mu.Unlock()
	f.fireOnWrite()
	return nil
}

func (f *fakeStore) fireOnWrite() {
	f.mu.Lock()
	hook := f.onWrite
	f.onWrite = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

var retailerID = uuid.New()

func placeOrderRequest(key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/place-order", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req.WithContext(WithIdentity(req.Context(), retailerID, enums.UserTypeRetailer))
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CriticalIdempotencyTTL, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, placeOrderRequest("", `{"foo":"bar"}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CriticalIdempotencyTTL, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"orderIds":["a"]}}`))
	})

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, placeOrderRequest("abc", `{"foo":"bar"}`))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, placeOrderRequest("abc", `{"foo":"bar"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if rec.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay marker header")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"data":{"orderIds":["a"]}}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
	for key, ttl := range store.ttls {
		if ttl != CriticalIdempotencyTTL {
			t.Fatalf("expected %s stored for %v, got %v", key, CriticalIdempotencyTTL, ttl)
		}
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CriticalIdempotencyTTL, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mw(handler).ServeHTTP(httptest.NewRecorder(), placeOrderRequest("xyz", `{"foo":"bar"}`))

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, placeOrderRequest("xyz", `{"foo":"diff"}`))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}

func TestIdempotencyMiddlewareRejectsInFlightDuplicate(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CriticalIdempotencyTTL, nil)

	var inner *httptest.ResponseRecorder
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = httptest.NewRecorder()
		mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("duplicate request must not reach the handler")
		})).ServeHTTP(inner, placeOrderRequest("dup", `{}`))
		w.WriteHeader(http.StatusCreated)
	})

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, placeOrderRequest("dup", `{}`))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if inner == nil || inner.Code != http.StatusConflict {
		t.Fatalf("expected concurrent duplicate to be rejected with 409")
	}
}

func TestIdempotencyMiddlewareKeepsKeyReservedWhileStoring(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CriticalIdempotencyTTL, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"orderIds":["a"]}}`))
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"code":"EMPTY_CART"}}`))
	})

	dup := httptest.NewRecorder()
	store.onWrite = func() {
		mw(handler).ServeHTTP(dup, placeOrderRequest("settle", `{}`))
	}

	first := httptest.NewRecorder()
	mw(handler).ServeHTTP(first, placeOrderRequest("settle", `{}`))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", first.Code)
	}
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected duplicate during persist to be rejected with 409, got %d", dup.Code)
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}

	replay := httptest.NewRecorder()
	mw(handler).ServeHTTP(replay, placeOrderRequest("settle", `{}`))
	if replay.Code != http.StatusCreated {
		t.Fatalf("expected replay of the first response, got %d", replay.Code)
	}
	if !strings.Contains(replay.Body.String(), "orderIds") {
		t.Fatalf("expected stored order body, got %s", replay.Body.String())
	}
}

func TestIdempotencyMiddlewareDoesNotStoreServerErrors(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CriticalIdempotencyTTL, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	first := httptest.NewRecorder()
	mw(handler).ServeHTTP(first, placeOrderRequest("retry", `{}`))
	if first.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", first.Code)
	}
	if store.len() != 0 {
		t.Fatalf("expected no stored record after a server error")
	}

	second := httptest.NewRecorder()
	mw(handler).ServeHTTP(second, placeOrderRequest("retry", `{}`))
	if second.Code != http.StatusCreated {
		t.Fatalf("expected retry to reach the handler, got %d", second.Code)
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, CriticalIdempotencyTTL, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	mw(handler).ServeHTTP(httptest.NewRecorder(), placeOrderRequest("shared", `{}`))

	other := httptest.NewRequest(http.MethodPost, "/api/v1/cart/place-order", strings.NewReader(`{}`))
	other.Header.Set("Idempotency-Key", "shared")
	other = other.WithContext(WithIdentity(other.Context(), uuid.New(), enums.UserTypeRetailer))
	mw(handler).ServeHTTP(httptest.NewRecorder(), other)

	if calls != 2 {
		t.Fatalf("expected separate executions per user, got %d", calls)
	}
}
