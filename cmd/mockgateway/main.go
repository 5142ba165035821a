// Package main runs the mock Backend Gateway used for local development of
// the client core.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openworkbench/chatcore/internal/auth"
	"github.com/openworkbench/chatcore/internal/config"
	"github.com/openworkbench/chatcore/internal/handler"
	"github.com/openworkbench/chatcore/internal/llm"
	"github.com/openworkbench/chatcore/internal/service"
	"github.com/openworkbench/chatcore/pkg/logger"
	"github.com/openworkbench/chatcore/pkg/tracing"
)

// DemoUserID is the subject of the dev token printed at startup.
const DemoUserID = "demo"

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting mock gateway")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chatcore-mockgateway", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	provider := llm.Provider(cfg.DefaultLLM)
	apiKey := ""
	switch provider {
	case llm.ProviderAnthropic:
		apiKey = cfg.AnthropicAPIKey
	case llm.ProviderOpenAI:
		apiKey = cfg.OpenAIAPIKey
	}
	llmClient, err := llm.NewClient(provider, apiKey)
	if err != nil {
		log.Warn("failed to create responder, falling back to static", zap.Error(err))
		llmClient = llm.NewStaticClient()
	}
	log.Info("responder ready", zap.String("provider", llmClient.Name()))

	conversationSvc := service.NewConversationService(log)
	projectSvc := service.NewProjectService(log)
	messageSvc := service.NewMessageService(conversationSvc, llmClient, log)
	templateSvc := service.NewTemplateService()

	if cfg.SeedDemoData {
		if err := service.Seed(ctx, DemoUserID, projectSvc, conversationSvc, messageSvc); err != nil {
			log.Warn("failed to seed demo data", zap.Error(err))
		}
	}

	// Print a ready-to-use token so chatctl works against this instance
	// without further setup.
	token, err := auth.MintDevToken(cfg.JWTSecret, DemoUserID, "", cfg.JWTExpiration)
	if err != nil {
		log.Error("failed to mint dev token", zap.Error(err))
		os.Exit(1)
	}
	fmt.Printf("dev token (AUTH_TOKEN): %s\n", token)

	r := handler.NewRouter(
		handler.RouterConfig{
			JWTSecret:         cfg.JWTSecret,
			RateLimitRequests: cfg.RateLimitRequests,
			RateLimitWindow:   cfg.RateLimitWindow,
		},
		handler.Services{
			Conversations: handler.NewConversationHandler(conversationSvc, log),
			Messages:      handler.NewMessageHandler(messageSvc, log),
			Projects:      handler.NewProjectHandler(projectSvc, log),
			Templates:     handler.NewTemplateHandler(templateSvc, log),
			Health:        handler.NewHealthHandler(),
		},
		log,
	)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
