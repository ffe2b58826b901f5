package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func hit(h http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitPerIP(t *testing.T) {
	// 4 запроса в минуту -> burst 2
	h := RateLimit(4, time.Minute)(ok)

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1002"))

	// другой адрес со своим бакетом
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1000"))
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(0, time.Minute)(ok)
	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000"))
	}
}

func TestIPLimiterEvictsIdle(t *testing.T) {
	l := newIPLimiter(10, time.Second)
	now := time.Now()
	assert.True(t, l.allow("a", now))
	assert.True(t, l.allow("b", now.Add(10*time.Second)))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.limiters, "a")
	assert.Contains(t, l.limiters, "b")
}
