package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/fandom-backend/internal/auth"
	"github.com/tbourn/fandom-backend/internal/cache"
	"github.com/tbourn/fandom-backend/internal/config"
	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/http/middleware"
	"github.com/tbourn/fandom-backend/internal/repo"
)

const testSecret = "router-test-secret"

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		t.Cleanup(func() { _ = sqlDB.Close() })
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func baseConfig() config.Config {
	return config.Config{
		APIBasePath:     "/api",
		FeedPageSize:    10,
		FeedMaxPageSize: 50,
		LeaderboardSize: 5,
		RateRPS:         100,
		RateBurst:       100,
		IdempotencyTTL:  time.Hour,
		Auth:            config.AuthConfig{JWTSecret: testSecret},
		OTEL:            config.OTELConfig{ServiceName: "test-svc"},
	}
}

// newServer registers every route over a fresh database and returns the
// engine with a verifier able to mint tokens for it.
func newServer(t *testing.T, cfg config.Config) (*gin.Engine, *auth.Verifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v := auth.NewVerifier(cfg.Auth)
	RegisterRoutes(r, newTestDB(t), cache.Noop{}, v, cfg)
	return r, v
}

func token(t *testing.T, v *auth.Verifier, sub string) string {
	t.Helper()
	tok, err := v.Sign(sub, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func call(r http.Handler, method, path, tok string, body any, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newServer(t, baseConfig())

	// /health works
	w := call(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = call(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	if w = call(r, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	if w = call(r, http.MethodPost, "/health", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	// swagger stays off unless enabled
	if w = call(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := baseConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r, _ := newServer(t, cfg)

	w := call(r, http.MethodGet, "/health", "", nil, "Origin", "http://example.com")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	w = call(r, http.MethodGet, "/health", "", nil, "Origin", "http://evil.example")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected ACAO for foreign origin: %q", got)
	}
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	r, v := newServer(t, baseConfig())

	w := call(r, http.MethodGet, "/api/users/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d", w.Code)
	}

	other := auth.NewVerifier(config.AuthConfig{JWTSecret: "someone-else"})
	if w = call(r, http.MethodGet, "/api/users/me", token(t, other, "sub-x"), nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("foreign signature: got %d", w.Code)
	}

	expired, err := v.Sign("sub-x", -time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if w = call(r, http.MethodGet, "/api/users/me", expired, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: got %d", w.Code)
	}
}

func TestAPI_SyncThenResolve(t *testing.T) {
	r, v := newServer(t, baseConfig())
	tok := token(t, v, "idp|alice")

	// valid token but no user bound yet
	if w := call(r, http.MethodGet, "/api/users/me", tok, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unregistered subject: got %d body=%s", w.Code, w.Body.String())
	}

	w := call(r, http.MethodPost, "/api/users/sync", tok, map[string]string{"username": "alice", "displayName": "Alice"})
	if w.Code != http.StatusCreated {
		t.Fatalf("first sync: got %d body=%s", w.Code, w.Body.String())
	}
	var created domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if w = call(r, http.MethodPost, "/api/users/sync", tok, map[string]string{"username": "alice"}); w.Code != http.StatusOK {
		t.Fatalf("second sync: got %d", w.Code)
	}

	w = call(r, http.MethodGet, "/api/users/me", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /users/me: got %d body=%s", w.Code, w.Body.String())
	}
	var me domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.ID != created.ID || me.Username != "alice" {
		t.Fatalf("me = %+v; want id %s", me, created.ID)
	}
}

func TestAPI_IdempotentPostCreate(t *testing.T) {
	r, v := newServer(t, baseConfig())
	tok := token(t, v, "idp|bob")
	if w := call(r, http.MethodPost, "/api/users/sync", tok, map[string]string{"username": "bob"}); w.Code != http.StatusCreated {
		t.Fatalf("sync: %d", w.Code)
	}

	body := map[string]string{"content": "tip-off"}
	first := call(r, http.MethodPost, "/api/posts", tok, body, middleware.HeaderIdempotencyKey, "req-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("create: %d body=%s", first.Code, first.Body.String())
	}
	again := call(r, http.MethodPost, "/api/posts", tok, body, middleware.HeaderIdempotencyKey, "req-1")
	if again.Code != http.StatusCreated || again.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay: code=%d headers=%v", again.Code, again.Header())
	}
	var a, b struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(first.Body.Bytes(), &a)
	_ = json.Unmarshal(again.Body.Bytes(), &b)
	if a.ID == "" || a.ID != b.ID {
		t.Fatalf("replay returned %q; want %q", b.ID, a.ID)
	}
}

func TestAPI_RateLimitPerUser(t *testing.T) {
	cfg := baseConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 2
	r, v := newServer(t, cfg)
	tok := token(t, v, "idp|carol")

	if w := call(r, http.MethodPost, "/api/users/sync", tok, map[string]string{"username": "carol"}); w.Code != http.StatusCreated {
		t.Fatalf("sync: %d", w.Code)
	}
	for i := 0; i < 2; i++ {
		if w := call(r, http.MethodGet, "/api/users/me", tok, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	w := call(r, http.MethodGet, "/api/users/me", tok, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
}

func TestAPI_IdempotentReplayNotRateLimited(t *testing.T) {
	cfg := baseConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 2
	r, v := newServer(t, cfg)
	tok := token(t, v, "idp|erin")

	if w := call(r, http.MethodPost, "/api/users/sync", tok, map[string]string{"username": "erin"}); w.Code != http.StatusCreated {
		t.Fatalf("sync: %d", w.Code)
	}
	for _, key := range []string{"k1", "k2"} {
		w := call(r, http.MethodPost, "/api/posts", tok, map[string]string{"content": "post " + key}, middleware.HeaderIdempotencyKey, key)
		if w.Code != http.StatusCreated {
			t.Fatalf("create %s: %d body=%s", key, w.Code, w.Body.String())
		}
	}

	// bucket is empty; a replay is still served from the stored result
	replay := call(r, http.MethodPost, "/api/posts", tok, map[string]string{"content": "post k1"}, middleware.HeaderIdempotencyKey, "k1")
	if replay.Code != http.StatusCreated || replay.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay: code=%d replayed=%q", replay.Code, replay.Header().Get(middleware.HeaderIdempotencyReplayed))
	}

	// a fresh key is a new write and is charged
	if w := call(r, http.MethodPost, "/api/posts", tok, map[string]string{"content": "post k3"}, middleware.HeaderIdempotencyKey, "k3"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("new key: expected 429, got %d", w.Code)
	}
	// other routes share the same bucket
	if w := call(r, http.MethodGet, "/api/users/me", tok, nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("me: expected 429, got %d", w.Code)
	}
}

func TestAPI_RateLimitDisabled(t *testing.T) {
	cfg := baseConfig()
	cfg.RateRPS = 0
	cfg.RateBurst = 1
	r, v := newServer(t, cfg)
	tok := token(t, v, "idp|dave")

	if w := call(r, http.MethodPost, "/api/users/sync", tok, map[string]string{"username": "dave"}); w.Code != http.StatusCreated {
		t.Fatalf("sync: %d", w.Code)
	}
	for i := 0; i < 5; i++ {
		if w := call(r, http.MethodGet, "/sports", "", nil); w.Code != http.StatusNotFound {
			t.Fatalf("catalog must live under the API prefix, got %d", w.Code)
		}
		if w := call(r, http.MethodGet, "/api/sports", tok, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func Test_joinPath(t *testing.T) {
	cases := map[[2]string]string{
		{"", "/users/sync"}:     "/users/sync",
		{"/", "/users/sync"}:    "/users/sync",
		{"/api", "/users/sync"}: "/api/users/sync",
	}
	for in, want := range cases {
		if got := joinPath(in[0], in[1]); got != want {
			t.Fatalf("joinPath(%q, %q) = %q; want %q", in[0], in[1], got, want)
		}
	}
}

// Smoke test that a request traverses the otel + gzip + security headers pipeline.
func TestPipeline_Smoke(t *testing.T) {
	cfg := baseConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour}
	r, _ := newServer(t, cfg)

	w := call(r, http.MethodGet, "/health", "", nil, "Accept-Encoding", "gzip")
	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	if enc := w.Header().Get("Content-Encoding"); enc != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", enc)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing: %v", w.Header())
	}
}
