package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cartwise/internal/composer"
	"github.com/kailas-cloud/cartwise/internal/config"
	"github.com/kailas-cloud/cartwise/internal/domain"
	logpkg "github.com/kailas-cloud/cartwise/internal/logger"
	"github.com/kailas-cloud/cartwise/internal/matcher"
	"github.com/kailas-cloud/cartwise/internal/metrics"
	"github.com/kailas-cloud/cartwise/internal/nlp/category"
	"github.com/kailas-cloud/cartwise/internal/nlp/classify"
	catalogrepo "github.com/kailas-cloud/cartwise/internal/repository/catalog"
	"github.com/kailas-cloud/cartwise/internal/repository/interaction"
	"github.com/kailas-cloud/cartwise/internal/session"
	"github.com/kailas-cloud/cartwise/internal/storelayout"
	chiTransport "github.com/kailas-cloud/cartwise/internal/transport/chi"
	openaiLLM "github.com/kailas-cloud/cartwise/internal/transport/openai"
	assistantuc "github.com/kailas-cloud/cartwise/internal/usecase/assistant"
	healthuc "github.com/kailas-cloud/cartwise/internal/usecase/health"
	"github.com/kailas-cloud/cartwise/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting cartwise API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_driver", cfg.Catalog.Driver),
	)

	// Load catalog via the configured provider
	ctx := context.Background()
	catalog, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	logger.Info("Catalog loaded", zap.Int("products", len(catalog)))

	metrics.RegisterLLMMetrics()

	// External LLM provider — classify, generate, transcribe
	llm := openaiLLM.NewClient(&openaiLLM.Config{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		TranscribeModel: cfg.LLM.TranscribeModel,
		Timeout:         time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Logger:          logger,
	})

	// Pipeline components
	vocab := domain.BuildVocabulary(catalog)
	categories := category.New(vocab.Categories, cfg.Assistant.CategoryAliases)
	match := matcher.New(categories, cfg.Assistant.BudgetThresholds)
	classifySvc := classify.New(llm, catalog, logger)
	composeSvc := composer.New(llm, logger)
	locator := storelayout.New(layoutEntries(cfg.Layout), catalog)

	sink, err := interaction.NewSink(cfg.Assistant.InteractionLog, logger)
	if err != nil {
		logger.Fatal("Failed to create interaction sink", zap.Error(err))
	}

	sessions := session.NewManager()

	assistantSvc := assistantuc.New(
		classifySvc, match, composeSvc, categories, locator, sink,
		sessions, catalog, cfg.Assistant.MaxRetries, logger,
	)
	healthSvc := healthuc.New(len(catalog), llm)

	server := chiTransport.NewServer(assistantSvc, healthSvc, llm, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/api/chat", server.Chat)
	r.Post("/api/voice", server.Voice)
	r.Get("/health", server.Health)
	r.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// loadCatalog builds the configured provider and loads products.
func loadCatalog(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]domain.Product, error) {
	switch cfg.Catalog.Driver {
	case "file":
		return catalogrepo.NewFileProvider(cfg.Catalog.Path).Load(ctx)
	case "redis":
		provider, err := catalogrepo.NewRedisProvider(catalogrepo.RedisConfig{
			Addrs:     cfg.Catalog.Addrs,
			Password:  cfg.Catalog.Password,
			KeyPrefix: cfg.Catalog.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		defer provider.Close()

		readiness := time.Duration(cfg.Catalog.ReadinessTimeout) * time.Second
		if err := provider.WaitForReady(ctx, readiness); err != nil {
			return nil, err
		}
		logger.Info("Connected to catalog store")
		return provider.Load(ctx)
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Catalog.Driver)
	}
}

func layoutEntries(entries []config.LayoutEntry) []storelayout.Entry {
	out := make([]storelayout.Entry, len(entries))
	for i, e := range entries {
		out[i] = storelayout.Entry{Zone: e.Zone, Aisle: e.Aisle, Section: e.Section, Shelf: e.Shelf}
	}
	return out
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.WithContext(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
