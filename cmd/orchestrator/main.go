// cmd/orchestrator/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"query-orchestrator/internal/analyzer"
	"query-orchestrator/internal/cache"
	"query-orchestrator/internal/common/config"
	"query-orchestrator/internal/common/database"
	"query-orchestrator/internal/common/logger"
	"query-orchestrator/internal/common/observability"
	"query-orchestrator/internal/configstore"
	"query-orchestrator/internal/fusion"
	"query-orchestrator/internal/genai"
	"query-orchestrator/internal/orchestrator"
	"query-orchestrator/internal/router"
	"query-orchestrator/internal/search"
	"query-orchestrator/internal/search/providers"
	"query-orchestrator/internal/validator"
)

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting query orchestrator...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name).WithTracing(cfg.App.Name, os.Getenv("JAEGER_COLLECTOR_ENDPOINT"))
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage clients ---
	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis init failed", zap.Error(err))
	}
	defer redisClient.Close()

	postgresClient, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer postgresClient.Close()

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch init failed", zap.Error(err))
	}

	// --- Retrieval providers ---
	engine := search.NewEngine(
		config.GetDuration(cfg.Pipeline.ProviderTimeout),
		cfg.Pipeline.PerProviderLimit,
		log,
	)

	engine.Register(providers.NewWebSearch(providers.WebSearchConfig{
		BaseURL:      cfg.APIs.WebSearch.BaseURL,
		APIKey:       cfg.APIs.WebSearch.APIKey,
		EngineID:     cfg.APIs.WebSearch.EngineID,
		Timeout:      config.GetDuration(cfg.APIs.WebSearch.Timeout),
		MaxResults:   cfg.APIs.WebSearch.MaxResults,
		MinRelevance: cfg.APIs.WebSearch.MinRelevance,
	}, log))

	rag, err := providers.NewRAG(cfg.RAG.Endpoints, config.GetDuration(cfg.RAG.Timeout), log)
	if err != nil {
		zapLog.Fatal("rag provider init failed", zap.Error(err))
	}
	engine.Register(rag)
	engine.Register(providers.NewDeviceRegistry(postgresClient, log))
	engine.Register(providers.NewDocumentSearch("events", cfg.Database.Elasticsearch.EventIndex, esClient, log))
	engine.Register(providers.NewDocumentSearch("news", cfg.Database.Elasticsearch.NewsIndex, esClient, log))

	// --- Synthesis and validation ---
	generator := genai.NewClient(genai.Config{
		BaseURL:     cfg.APIs.GenAI.BaseURL,
		APIKey:      cfg.APIs.GenAI.APIKey,
		Timeout:     config.GetDuration(cfg.APIs.GenAI.Timeout),
		MaxRetries:  cfg.APIs.GenAI.MaxRetries,
		Temperature: cfg.APIs.GenAI.Temperature,
		MaxTokens:   cfg.APIs.GenAI.MaxTokens,
	}, log)

	answerValidator := validator.NewAnswerValidator(
		generator,
		cfg.Validation.NumericWeight,
		cfg.Validation.LexicalWeight,
		cfg.Validation.CrossCheckThreshold,
		log,
	)

	responseCache := cache.New(
		redisClient,
		cfg.Cache.KeyPrefix,
		cfg.Cache.TTLSeconds,
		config.GetDuration(cfg.Cache.DefaultTTL*1000),
		log,
	)

	pipeline := orchestrator.New(
		analyzer.New(cfg.Pipeline.ConfidenceFloor, cfg.Pipeline.MinSplitWords, log),
		router.New(log),
		engine,
		fusion.New(cfg.Fusion.SimilarityThreshold, cfg.Fusion.SourceBonus, cfg.Fusion.BonusCap, log),
		answerValidator,
		generator,
		responseCache,
		obs,
		orchestrator.Options{
			MinAnswerLength: cfg.Pipeline.MinAnswerLength,
			ResultLimit:     cfg.Pipeline.PerProviderLimit,
		},
		log,
	)

	// --- Configuration refresh loop ---
	if cfg.APIs.ConfigService.BaseURL != "" {
		poller := configstore.NewPoller(
			configstore.NewClient(cfg.APIs.ConfigService.BaseURL, config.GetDuration(cfg.APIs.ConfigService.Timeout), log),
			time.Duration(cfg.APIs.ConfigService.RefreshInterval)*time.Second,
			pipeline,
			log,
		)
		go poller.Run(ctx)
	}

	// --- HTTP API ---
	mux := http.NewServeMux()
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Query     string                 `json:"query"`
			SessionID string                 `json:"sessionId"`
			Session   map[string]interface{} `json:"session"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		resp := pipeline.Orchestrate(r.Context(), req.Query, req.SessionID, req.Session)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := redisClient.Ping(r.Context()); err != nil {
			http.Error(w, "redis not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "READY")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, draining...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("http server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Query orchestrator stopped")
}
