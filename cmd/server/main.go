// Command server starts the resume screening HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ai "github.com/fairyhunter13/resume-screener/internal/adapter/ai"
	"github.com/fairyhunter13/resume-screener/internal/adapter/ai/openrouter"
	"github.com/fairyhunter13/resume-screener/internal/adapter/ai/stub"
	"github.com/fairyhunter13/resume-screener/internal/adapter/ai/tokencount"
	httpserver "github.com/fairyhunter13/resume-screener/internal/adapter/httpserver"
	"github.com/fairyhunter13/resume-screener/internal/adapter/observability"
	"github.com/fairyhunter13/resume-screener/internal/adapter/readme"
	"github.com/fairyhunter13/resume-screener/internal/adapter/rediscache"
	"github.com/fairyhunter13/resume-screener/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/resume-screener/internal/adapter/sheets"
	tikaext "github.com/fairyhunter13/resume-screener/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/resume-screener/internal/app"
	"github.com/fairyhunter13/resume-screener/internal/config"
	"github.com/fairyhunter13/resume-screener/internal/domain"
	"github.com/fairyhunter13/resume-screener/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	jobRepo := postgres.NewJobRepo(pool)
	appRepo := postgres.NewApplicationRepo(pool)

	var aicl domain.AIClient
	switch cfg.AIProvider {
	case "stub":
		aicl = stub.New()
		slog.Info("AI client initialized", slog.String("provider", "stub"))
	default:
		aicl = openrouter.New(cfg)
		slog.Info("AI client initialized", slog.String("provider", "openrouter"), slog.String("model", cfg.ChatModel))
	}

	maxAttempts, initialDelay, multiplier := cfg.RetrySettings()
	exec := ai.NewRetryingPromptExecutor(aicl, ai.RetrySettings{
		MaxAttempts:  maxAttempts,
		InitialDelay: initialDelay,
		Multiplier:   multiplier,
	})
	cleaner := ai.NewResponseCleaner()
	schema := ai.NewSchemaValidator()
	budget := tokencount.NewBudgeter(cfg.TokenizerEncoding)

	examCache, err := rediscache.New(cfg.RedisURL, cfg.ExamCacheTTL)
	if err != nil {
		slog.Warn("redis unavailable, exam cache disabled", slog.Any("error", err))
		examCache, _ = rediscache.New("", cfg.ExamCacheTTL)
	}

	extractSvc := usecase.NewExtractionService(exec, schema, budget, cfg.PromptTokenBudget, cfg.ChatMaxTokens)
	insightSvc := usecase.NewInsightService(exec, schema, readme.New(""), budget, cfg.PromptTokenBudget, cfg.ChatMaxTokens)
	evalSvc := usecase.NewEvaluationService(exec, cleaner, cfg.Rubric(), cfg.ChatMaxTokens)
	narrateSvc := usecase.NewNarrativeService(exec, cfg.ChatMaxTokens)
	examSvc := usecase.NewExamService(exec, schema, appRepo, examCache, cfg.ExamQuestionCount, cfg.ChatMaxTokens)
	pipeline := usecase.NewApplicationPipeline(jobRepo, appRepo, extractSvc, insightSvc, evalSvc, narrateSvc, examSvc, sheets.New(cfg.SheetWebhookURL))
	jobSvc := usecase.NewJobService(jobRepo)

	ext := tikaext.New(cfg.TikaURL)
	dbCheck := func(ctx context.Context) error { return pool.Ping(ctx) }

	srv := httpserver.NewServer(cfg, jobSvc, pipeline, appRepo, ext, dbCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
