package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"session_tracker_backend/internal/config"
	"session_tracker_backend/internal/model"
	"session_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	testSecret = "middleware-test-secret"
	testIssuer = "https://auth.example.com"
)

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{Secret: testSecret, Issuer: testIssuer}}
}

func token(t *testing.T, subject, secret, issuer string, ttl time.Duration) string {
	t.Helper()
	tok, err := util.GenerateJWT(subject, util.Claims{Email: subject + "@example.com"}, secret, issuer, ttl)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := testConfig()
	r.Use(ConfigMiddleware(func() *config.Config { return cfg }), AuthMiddleware())
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, util.GetUserFromContext(c).Subject)
	})

	tests := []struct {
		name   string
		header string
		query  string
		code   int
		body   string
	}{
		{"missing token", "", "", http.StatusUnauthorized, ""},
		{"bearer header", "Bearer " + token(t, "user_1", testSecret, testIssuer, time.Hour), "", http.StatusOK, "user_1"},
		{"query token", "", token(t, "user_2", testSecret, testIssuer, time.Hour), http.StatusOK, "user_2"},
		{"wrong secret", "Bearer " + token(t, "user_1", "other-secret", testIssuer, time.Hour), "", http.StatusUnauthorized, ""},
		{"wrong issuer", "Bearer " + token(t, "user_1", testSecret, "https://evil.example.com", time.Hour), "", http.StatusUnauthorized, ""},
		{"expired", "Bearer " + token(t, "user_1", testSecret, testIssuer, -time.Minute), "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "/me"
			if tt.query != "" {
				url += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.code {
				t.Fatalf("code = %d want %d", w.Code, tt.code)
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Fatalf("body = %q want %q", w.Body.String(), tt.body)
			}
		})
	}
}

type fakeResolver struct {
	mu      sync.Mutex
	users   map[string]*model.User
	touched chan uint
	err     error
}

func (f *fakeResolver) Resolve(claims *util.Claims) (*model.User, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[claims.Subject]; ok {
		return u, false, nil
	}
	u := &model.User{ExternalID: claims.Subject, Email: claims.Email}
	u.ID = uint(len(f.users) + 1)
	f.users[claims.Subject] = u
	return u, true, nil
}

func (f *fakeResolver) Touch(userID uint, claims *util.Claims) error {
	f.touched <- userID
	return nil
}

func TestAccountMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resolver := &fakeResolver{users: map[string]*model.User{}, touched: make(chan uint, 4)}
	cfg := testConfig()
	r := gin.New()
	r.Use(ConfigMiddleware(func() *config.Config { return cfg }), AuthMiddleware(), AccountMiddleware(resolver))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": util.GetAccountFromContext(c).ID})
	})

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, "user_1", testSecret, testIssuer, time.Hour))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := do(); w.Code != http.StatusOK || w.Body.String() != `{"id":1}` {
		t.Fatalf("first = %d %s", w.Code, w.Body.String())
	}
	if w := do(); w.Code != http.StatusOK || w.Body.String() != `{"id":1}` {
		t.Fatalf("second = %d %s", w.Code, w.Body.String())
	}
	select {
	case id := <-resolver.touched:
		if id != 1 {
			t.Fatalf("touched = %d want 1", id)
		}
	case <-time.After(time.Second):
		t.Fatal("existing account was not touched")
	}

	resolver.err = errors.New("db down")
	if w := do(); w.Code != http.StatusInternalServerError {
		t.Fatalf("resolver error code = %d want 500", w.Code)
	}
}
