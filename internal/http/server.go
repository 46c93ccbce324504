// Package http exposes the tracker's REST API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"github.com/Dennis-XXII/expense-tracker/internal/cache"
	"github.com/Dennis-XXII/expense-tracker/internal/core"
	"github.com/Dennis-XXII/expense-tracker/internal/log"
	"github.com/Dennis-XXII/expense-tracker/internal/middleware/ratelimit"
	"github.com/Dennis-XXII/expense-tracker/internal/middleware/security"
	"github.com/Dennis-XXII/expense-tracker/internal/middleware/trace"
	"github.com/Dennis-XXII/expense-tracker/internal/services"
	"github.com/Dennis-XXII/expense-tracker/internal/storage"
)

func init() {
	// Amounts serialize as JSON numbers, matching the historical API.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	cacheSize = 512
	cacheTTL  = 30 * time.Second
)

// Config holds the HTTP-facing settings.
type Config struct {
	Port        string
	CORSOrigins []string
	DevMode     bool
}

// Server serves the REST API. Per-user summaries and transaction lists
// are cached briefly and invalidated on every write for that user.
type Server struct {
	http.Server

	repo        *storage.Repository
	service     *services.TransactionService
	logger      *log.Logger
	location    *time.Location
	devMode     bool
	authLimiter *ratelimit.Limiter

	summaryCache *cache.LRUCache[core.Summary]
	listCache    *cache.LRUCache[[]core.Transaction]

	now func() time.Time
}

func NewServer(cfg Config, repo *storage.Repository, service *services.TransactionService, logger *log.Logger, location *time.Location) *Server {
	s := &Server{
		repo:         repo,
		service:      service,
		logger:       logger.WithComponent(log.ComponentHTTP),
		location:     location,
		devMode:      cfg.DevMode,
		authLimiter:  ratelimit.NewLimiter(ratelimit.AuthConfig()),
		summaryCache: cache.NewLRUCache[core.Summary](cacheSize, cacheTTL),
		listCache:    cache.NewLRUCache[[]core.Transaction](cacheSize, cacheTTL),
		now:          time.Now,
	}

	s.Server = http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.routes(cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(cfg Config) http.Handler {
	r := chi.NewRouter()

	traceMw := trace.NewMiddleware(clientIP)
	headersMw := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r.Use(traceMw.Middleware)
	r.Use(log.Middleware(s.logger))
	r.Use(headersMw.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	r.Use(s.recoverer)

	r.Get("/", s.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Use(s.authLimiter.Middleware(clientIP, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "60")
				writeMessage(w, http.StatusTooManyRequests, "Too many attempts, try again later")
			}))
			auth.Post("/register", s.handleRegister)
			auth.Post("/login", s.handleLogin)
		})

		api.Put("/users/{id}", s.handleUpdateUser)

		api.Route("/transactions", func(tx chi.Router) {
			tx.Get("/summary/{userId}", s.handleSummary)
			tx.Get("/{userId}", s.handleListTransactions)
			tx.Post("/", s.handleCreateTransaction)
			tx.Put("/{id}", s.handleUpdateTransaction)
			tx.Delete("/{id}", s.handleDeleteTransaction)
		})

		api.Route("/charts", func(charts chi.Router) {
			charts.Get("/balance/{userId}", s.handleBalanceChart)
			charts.Get("/daily/{userId}", s.handleDailyChart)
			charts.Get("/categories/{userId}", s.handleCategoryChart)
			charts.Get("/totals/{userId}", s.handleWindowTotals)
		})
	})

	notFound := func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "Expense Tracker API is running")
}

// recoverer turns panics into the API's generic 500, with the error
// detail included only in dev mode.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.ErrorContext(r.Context(), "Panic recovered",
					log.FieldPath, r.URL.Path,
					log.FieldError, fmt.Sprint(rec))

				payload := map[string]any{"message": "Something went wrong!"}
				if s.devMode {
					payload["error"] = fmt.Sprint(rec)
				}
				writeJSON(w, http.StatusInternalServerError, payload)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Start begins serving and runs the cache expiry sweep until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	cache.StartCleanup(ctx, time.Minute, s.summaryCache, s.listCache)

	s.logger.Info("HTTP server starting", "addr", s.Addr)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and releases the auth limiter.
func (s *Server) Stop(ctx context.Context) error {
	s.authLimiter.Stop()
	return s.Shutdown(ctx)
}

// invalidateUser drops every cached view of one user after a write.
func (s *Server) invalidateUser(userID string) {
	s.summaryCache.DeletePrefix(cache.UserKey("summary", userID))
	s.listCache.DeletePrefix(cache.UserKey("list", userID))
}

// cachedList returns the user's full history, from cache when fresh.
func (s *Server) cachedList(ctx context.Context, userID string) ([]core.Transaction, error) {
	key := cache.UserKey("list", userID)
	if list, ok := s.listCache.Get(key); ok {
		return list, nil
	}

	id, err := parseUUID(userID)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.listCache.Set(key, list)
	return list, nil
}
