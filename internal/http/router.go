// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Every API route requires a bearer token
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/fandom-backend/internal/config"
	"github.com/tbourn/fandom-backend/internal/http/handlers"
	"github.com/tbourn/fandom-backend/internal/http/middleware"
	"github.com/tbourn/fandom-backend/internal/services"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

var (
	corsMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", middleware.HeaderIdempotencyReplayed}
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), CORS and security
// headers, health and metrics endpoints, and then mounts the authenticated
// API under cfg.APIBasePath.
//
// lb backs the leaderboard cache; pass cache.Noop{} to disable caching.
// verifier checks bearer tokens on every API route.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with token scrubbing
//  4. Recovery: capture panics after logger
//  5. Gzip and body size limiter
//  6. Metrics
//  7. CORS and Security headers
//
// API routes then run RequireAuth → ResolveUser → rate limiter. POST /posts
// runs the idempotency validator ahead of the limiter so replays of a stored
// result are not charged.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, lb services.LeaderboardCache, verifier middleware.TokenVerifier, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Compression and global body size limit
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(limitBody(maxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics("/metrics", "/health"))
	r.GET("/metrics", middleware.MetricsHandler())

	// 7) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist.
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     corsMethods,
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    corsExpose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/cache
	userSvc := &services.UserService{DB: db}
	postSvc := &services.PostService{
		DB:             db,
		PageSize:       cfg.FeedPageSize,
		MaxPageSize:    cfg.FeedMaxPageSize,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}
	h := handlers.New(handlers.Deps{
		Users:       userSvc,
		Friends:     &services.FriendshipService{DB: db},
		Posts:       postSvc,
		Ratings:     &services.RatingService{DB: db, Cache: lb},
		Taglines:    &services.TaglineService{DB: db},
		Rankings:    &services.RankingService{DB: db, Size: cfg.LeaderboardSize, Cache: lb},
		Catalog:     &services.CatalogService{DB: db},
		Sweepstakes: &services.SweepstakeService{DB: db},
	})

	// Authenticated API
	apiBase := cfg.APIBasePath // e.g. "/api"
	api := groupWithPrefix(r, apiBase)
	api.Use(
		middleware.RequireAuth(verifier),
		middleware.ResolveUser(userSvc, joinPath(apiBase, "/users/sync")),
	)

	// The limiter hangs off a sub-group so POST /posts can run the
	// idempotency validator first and let replays through uncharged.
	var limit []gin.HandlerFunc
	if cfg.RateRPS > 0 {
		rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
		limit = append(limit, rl.Handler())
	}
	limited := api.Group("", limit...)

	createPost := []gin.HandlerFunc{
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{
			Scope:  services.IdempotencyScopeCreatePost,
			MaxLen: 200,
		}, postSvc.HasIdempotentResult),
	}
	createPost = append(createPost, limit...)
	createPost = append(createPost, h.CreatePost)
	api.POST("/posts", createPost...)

	{
		// Users
		limited.POST("/users/sync", h.SyncUser)
		limited.GET("/users/me", h.GetMe)
		limited.PATCH("/users/me", h.UpdateMe)
		limited.GET("/users/search", h.SearchUsers)
		limited.GET("/users/:userId", h.GetProfile)

		// Friends
		limited.POST("/friends/request", h.SendFriendRequest)
		limited.PATCH("/friends/accept/:friendshipId", h.AcceptFriendRequest)
		limited.PATCH("/friends/reject/:friendshipId", h.RejectFriendRequest)
		limited.DELETE("/friends/cancel/:userId", h.CancelFriendRequest)
		limited.GET("/friends/pending", h.PendingRequests)
		limited.GET("/friends/outgoing", h.OutgoingRequests)
		limited.GET("/friends/status", h.FriendshipStatus)
		limited.GET("/friends", h.ListFriends)
		limited.GET("/friends/:userId", h.ListUserFriends)
		limited.DELETE("/friends/:friendId", h.RemoveFriend)

		// Posts (POST /posts is registered above)
		limited.GET("/posts", h.Feed)
		limited.GET("/posts/user/:userId", h.UserPosts)
		limited.PUT("/posts/:postId", h.UpdatePost)
		limited.DELETE("/posts/:postId", h.DeletePost)
		limited.POST("/posts/:postId/like", h.LikePost)
		limited.DELETE("/posts/:postId/like", h.UnlikePost)

		// Ratings and taglines
		limited.POST("/ratings", h.SaveRatings)
		limited.GET("/ratings", h.MyRatings)
		limited.GET("/ratings/user/:userId", h.UserRatings)
		limited.POST("/taglines", h.SaveTaglines)
		limited.GET("/taglines", h.MyTaglines)
		limited.GET("/taglines/user/:userId", h.UserTaglines)

		// Rankings and catalog
		limited.GET("/rankings/teams/top", h.TopTeams)
		limited.GET("/rankings/teams/bottom", h.BottomTeams)
		limited.GET("/rankings/athletes/top", h.TopAthletes)
		limited.GET("/rankings/athletes/bottom", h.BottomAthletes)
		limited.GET("/rankings/search", h.SearchRankings)
		limited.GET("/sports", h.ListSports)
		limited.GET("/teams", h.ListTeams)
		limited.GET("/athletes", h.ListAthletes)

		// Sweepstakes
		limited.GET("/sweepstakes", h.ListSweepstakes)
		limited.GET("/sweepstakes/:id", h.GetSweepstake)
		limited.POST("/sweepstakes/:id/entry", h.SubmitEntry)
		limited.GET("/sweepstakes/:id/entry", h.MyEntry)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath returns the full route of path mounted under prefix, as reported
// by gin.Context.FullPath.
func joinPath(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	return prefix + path
}
