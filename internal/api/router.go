package api

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/powderplan/powderplan/internal/api/handlers"
	mw "github.com/powderplan/powderplan/internal/api/middleware"
	"github.com/powderplan/powderplan/internal/capability"
	"github.com/powderplan/powderplan/internal/config"
	"github.com/powderplan/powderplan/internal/domain"
	"github.com/powderplan/powderplan/internal/llm"
	"github.com/powderplan/powderplan/internal/service"
	"github.com/powderplan/powderplan/internal/store"
	"go.uber.org/zap"
)

// App holds the router and request counters for lifecycle management.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp wires the capability registry, model client, orchestrator, and
// detection engine onto a chi router. The session store is injected so the
// caller chooses the backend.
func NewApp(sessions domain.SessionStore, logger *zap.Logger) (*App, error) {
	client, err := llm.NewClient(config.ModelProvider(), config.ModelAPIKey())
	if err != nil {
		return nil, err
	}
	logger.Info("model client initialized", zap.String("provider", config.ModelProvider()))

	registry := capability.NewRegistry(logger)
	registry.Register(capability.WeatherDefinition(capability.NewWeatherClient()))
	registry.Register(capability.CurrencyDefinition(capability.NewCurrencyClient()))

	systemPrompt := promptOrDefault(config.SystemPromptPath(), llm.SystemPrompt, logger)
	judgePrompt := promptOrDefault(config.JudgePromptPath(), llm.JudgePrompt, logger)

	orchestrator := service.NewOrchestrator(sessions, client, registry, systemPrompt, logger)
	orchestrator.SetRoundLimit(config.RoundLimit())

	heuristic := service.NewHeuristicLayer(config.HeuristicBaseConfidence())
	judge := service.NewJudgeLayer("LLM Judge", client, judgePrompt, logger)

	var engine *service.Engine
	if config.DetectionMode() == "three" {
		quick := service.NewJudgeLayer("Quick Judge", client, llm.QuickJudgePrompt, logger)
		engine = service.NewThreeLayerEngine(heuristic, quick, judge, logger)
	} else {
		engine = service.NewEngine(heuristic, judge, config.HeuristicWeight(), config.JudgeWeight(), logger)
	}

	chatHandler := handlers.NewChatHandler(orchestrator, engine, logger)

	r := chi.NewRouter()
	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler)
	r.Get("/metrics", app.metricsHandler())

	r.Post("/chat", chatHandler.Send)
	r.Delete("/conversations/{id}", chatHandler.DeleteConversation)

	return app, nil
}

// promptOrDefault loads a prompt override from disk when a path is
// configured, falling back to the built-in template.
func promptOrDefault(path, fallback string, logger *zap.Logger) string {
	if path == "" {
		return fallback
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("prompt override unreadable, using built-in",
			zap.String("path", path),
			zap.Error(err))
		return fallback
	}
	return string(data)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.SessionStore = (*store.MemorySessionStore)(nil)
	_ domain.SessionStore = (*store.PostgresSessionStore)(nil)
	_ domain.ChatModel    = (*llm.OpenAIClient)(nil)
	_ domain.ChatModel    = (*llm.MockClient)(nil)
	_ domain.JudgeModel   = (*llm.OpenAIClient)(nil)
	_ domain.JudgeModel   = (*llm.MockClient)(nil)
	_ service.Layer       = (*service.HeuristicLayer)(nil)
	_ service.Layer       = (*service.JudgeLayer)(nil)
)
