package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gamelog/auth"
	"gamelog/redisstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeAuth struct {
	err error
}

func (f fakeAuth) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	if f.err != nil {
		return auth.Identity{}, f.err
	}
	if token != "good" {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return auth.Identity{UserID: 42, Username: "ness"}, nil
}

func identityEcho(c *gin.Context) {
	id, ok := CurrentIdentity(c)
	fromCtx, _ := auth.IdentityFrom(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"ok": ok, "id": id.UserID, "ctx": fromCtx.UserID})
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r := gin.New()
	r.GET("/", Authenticate(fakeAuth{}, quietLogger()), identityEcho)

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
		{"bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		if w := do(r, tc.header); w.Code != tc.want {
			t.Errorf("%q: status %d, want %d", tc.header, w.Code, tc.want)
		}
	}

	w := do(r, "Bearer good")
	if body := w.Body.String(); body != `{"ctx":42,"id":42,"ok":true}` {
		t.Errorf("body = %s", body)
	}
}

func TestAuthenticateBackendFailure(t *testing.T) {
	r := gin.New()
	r.GET("/", Authenticate(fakeAuth{err: errors.New("redis down")}, quietLogger()), identityEcho)
	if w := do(r, "Bearer good"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status %d", w.Code)
	}
}

func TestOptionalAuthenticate(t *testing.T) {
	r := gin.New()
	r.GET("/", OptionalAuthenticate(fakeAuth{}), identityEcho)

	if body := do(r, "").Body.String(); body != `{"ctx":0,"id":0,"ok":false}` {
		t.Errorf("anonymous body = %s", body)
	}
	if body := do(r, "Bearer bad").Body.String(); body != `{"ctx":0,"id":0,"ok":false}` {
		t.Errorf("bad token body = %s", body)
	}
	if body := do(r, "Bearer good").Body.String(); body != `{"ctx":42,"id":42,"ok":true}` {
		t.Errorf("good token body = %s", body)
	}
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := gin.New()
	r.GET("/", RateLimit(redisstore.New(client), 2, time.Minute, quietLogger()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		if w := do(r, ""); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	w := do(r, "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Remaining") != "0" || w.Header().Get("Retry-After") != "60" {
		t.Errorf("headers = %v", w.Header())
	}
}

func TestRateLimitWithoutRedis(t *testing.T) {
	var store *redisstore.Store
	r := gin.New()
	r.GET("/", RateLimit(store, 1, time.Minute, quietLogger()), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	for i := 0; i < 3; i++ {
		if w := do(r, ""); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, "")
	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("headers = %v", w.Header())
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on plain http")
	}
}
