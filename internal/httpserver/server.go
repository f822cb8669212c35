package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fdg312/mealcart/internal/auth"
	"github.com/fdg312/mealcart/internal/blob"
	"github.com/fdg312/mealcart/internal/config"
	"github.com/fdg312/mealcart/internal/grocery"
	"github.com/fdg312/mealcart/internal/ingredients"
	"github.com/fdg312/mealcart/internal/mealplans"
	"github.com/fdg312/mealcart/internal/recipes"
	"github.com/fdg312/mealcart/internal/storage"
	"github.com/fdg312/mealcart/internal/storage/memory"
	"github.com/fdg312/mealcart/internal/storage/postgres"
	"github.com/fdg312/mealcart/internal/units"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server wires storage, services and routes into one HTTP handler.
type Server struct {
	config         *config.Config
	logger         *zap.Logger
	mux            *http.ServeMux
	storage        storage.Storage
	blobs          blob.Store
	registry       *units.Registry
	authMiddleware *auth.Middleware
}

// New builds a server. Without a database URL, or when Postgres is
// unreachable outside production, storage falls back to memory.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Server {
	s := &Server{
		config:   cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		registry: units.Default(),
	}

	s.initStorage(ctx)
	s.initBlobStore(ctx)
	s.routes()
	return s
}

func (s *Server) initStorage(ctx context.Context) {
	if s.config.DatabaseURL == "" {
		s.logger.Info("using in-memory storage")
		s.storage = memory.New()
		return
	}

	s.logger.Info("connecting to PostgreSQL")
	pg, err := postgres.New(ctx, s.config.DatabaseURL)
	if err != nil {
		if s.config.Env == "production" {
			s.logger.Fatal("PostgreSQL connection failed", zap.Error(err))
		}
		s.logger.Warn("PostgreSQL connection failed, falling back to in-memory storage", zap.Error(err))
		s.storage = memory.New()
		return
	}
	s.logger.Info("PostgreSQL connected")
	s.storage = pg
}

func (s *Server) initBlobStore(ctx context.Context) {
	store, mode, err := blob.NewBlobStore(ctx, s.config.Blob, s.logger)
	if err != nil {
		s.logger.Fatal("blob store initialization failed", zap.String("mode", s.config.Blob.Mode), zap.Error(err))
	}
	s.logger.Info("blob store ready", zap.String("effective_mode", mode))
	s.blobs = store
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	authService := auth.NewService(s.config)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService, s.logger)

	// POST /v1/auth/dev - local dev token
	s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)

	// Units and quantity helpers
	s.mux.HandleFunc("GET /v1/units", s.handleUnits)
	s.mux.HandleFunc("POST /v1/quantity/parse", s.handleParseQuantity)
	s.mux.HandleFunc("POST /v1/quantity/sanitize", s.handleSanitizeQuantity)

	// Grocery store is the plan and recipe change listener, so it is built first.
	aggregator := grocery.NewAggregator(s.storage, s.registry, s.logger)
	cacheTTL := time.Duration(s.config.Grocery.CacheTTLSeconds) * time.Second
	groceryStore := grocery.NewStore(aggregator, s.storage, cacheTTL, s.logger)
	exporter := grocery.NewExporter(groceryStore, s.blobs, s.config.Grocery.ExportPresignSeconds, s.logger)
	groceryHandler := grocery.NewHandler(groceryStore, exporter, s.registry, s.config.Grocery.MaxRangeDays)

	// Ingredients API
	ingredientService := ingredients.NewService(s.storage, s.config.IngredientSearchLimit, s.logger)
	ingredientHandler := ingredients.NewHandler(ingredientService)
	s.mux.HandleFunc("GET /v1/ingredients", ingredientHandler.HandleSearch)
	s.mux.HandleFunc("POST /v1/ingredients", ingredientHandler.HandleCreate)
	s.mux.HandleFunc("POST /v1/ingredients/resolve", ingredientHandler.HandleResolve)
	s.mux.HandleFunc("DELETE /v1/ingredients/{id}", ingredientHandler.HandleDelete)

	// Recipe ingredient lines API
	recipeService := recipes.NewService(s.storage, s.registry, groceryStore, s.logger)
	recipeHandler := recipes.NewHandler(recipeService)
	s.mux.HandleFunc("PUT /v1/recipes/{id}/ingredients", recipeHandler.HandleSave)
	s.mux.HandleFunc("GET /v1/recipes/{id}/ingredients", recipeHandler.HandleGet)
	s.mux.HandleFunc("DELETE /v1/recipes/{id}/ingredients/{position}", recipeHandler.HandleRemoveLine)
	s.mux.HandleFunc("DELETE /v1/recipes/{id}", recipeHandler.HandleDelete)

	// Meal plan API
	planService := mealplans.NewService(s.storage, groceryStore, s.config.Grocery.MaxRangeDays, s.logger)
	planHandler := mealplans.NewHandler(planService)
	s.mux.HandleFunc("GET /v1/meal/plan", planHandler.HandleGet)
	s.mux.HandleFunc("GET /v1/meal/plan/recipes", planHandler.HandlePlannedRecipes)
	s.mux.HandleFunc("POST /v1/meal/plan/entries", planHandler.HandleAddEntry)
	s.mux.HandleFunc("DELETE /v1/meal/plan/entries", planHandler.HandleRemoveEntry)

	// Grocery API
	s.mux.HandleFunc("GET /v1/grocery", groceryHandler.HandleGet)
	s.mux.HandleFunc("POST /v1/grocery/manual", groceryHandler.HandleAddManual)
	s.mux.HandleFunc("DELETE /v1/grocery/manual/{id}", groceryHandler.HandleRemoveManual)
	s.mux.HandleFunc("POST /v1/grocery/check", groceryHandler.HandleCheck)
	s.mux.HandleFunc("POST /v1/grocery/clear-checked", groceryHandler.HandleClearChecked)
	s.mux.HandleFunc("GET /v1/grocery/export", groceryHandler.HandleExport)
}

// Handler returns the router wrapped in the middleware chain
// (outermost first): CORS, rate limit, auth, request log.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = RequestLogMiddleware(s.logger, handler)
	handler = s.authMiddleware.Authenticate(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("healthz", fmt.Sprintf("http://localhost%s/healthz", srv.Addr)),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases storage.
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
