package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newLimitedHandler(t *testing.T, limit int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	config := RateLimitConfig{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		KeyPrefix:         "catalog_rate_limit",
	}
	return RateLimitMiddleware(redisClient, config, zap.NewNop())(okHandler()), mr
}

// Feature: catalog-sync, Property 18: Rate limiting blocks excessive requests
func TestProperty_RateLimitingBlocksExcessiveRequests(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("excessive requests are blocked with 429", prop.ForAll(
		func(requestsPerWindow int, excessRequests int) bool {
			handler, _ := newLimitedHandler(t, requestsPerWindow)

			successCount, blockedCount := 0, 0
			for i := 0; i < requestsPerWindow+excessRequests; i++ {
				req := httptest.NewRequest("GET", "/api/products", nil)
				req.RemoteAddr = "192.168.1.100:40000"
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					successCount++
				case http.StatusTooManyRequests:
					blockedCount++
				}
			}

			return successCount == requestsPerWindow && blockedCount == excessRequests
		},
		gen.IntRange(5, 20),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRateLimitSharesBucketAcrossPorts(t *testing.T) {
	handler, _ := newLimitedHandler(t, 1)

	first := httptest.NewRequest("GET", "/api/products", nil)
	first.RemoteAddr = "10.0.0.5:1111"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, first)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	second := httptest.NewRequest("GET", "/api/products", nil)
	second.RemoteAddr = "10.0.0.5:2222"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, second)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimitWindowResets(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)

	serve := func() int {
		req := httptest.NewRequest("GET", "/api/products", nil)
		req.RemoteAddr = "10.0.0.9:5000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve())
	assert.Equal(t, http.StatusTooManyRequests, serve())
	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, serve())
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	handler, mr := newLimitedHandler(t, 1)
	mr.Close()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/products", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
