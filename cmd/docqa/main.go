package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/embedcache"
	"github.com/xxxsen/docqa/internal/extract"
	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/handler"
	"github.com/xxxsen/docqa/internal/job"
	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/querylog"
	"github.com/xxxsen/docqa/internal/schedule"
	"github.com/xxxsen/docqa/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docqa",
		Short: "question answering over uploaded pdf documents",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docqa server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			// credentials may live in .env; a missing file is fine
			_ = godotenv.Load()
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildAIManager(cfg *config.Config) (*ai.Manager, error) {
	providers := append([]config.ProviderConfig{{
		Provider: cfg.AI.Provider,
		Model:    cfg.AI.Model,
		Data:     cfg.AI.Data,
	}}, cfg.AI.Fallbacks...)
	entries := make([]ai.GeneratorEntry, 0, len(providers))
	for _, item := range providers {
		p, err := ai.NewProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init ai provider %s: %w", item.Provider, err)
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      item.Provider + "/" + item.Model,
			Generator: ai.NewGenerator(p, item.Model, cfg.Temperature()),
		})
	}

	embedProvider, err := ai.NewEmbedProvider(cfg.AI.Embed.Provider, cfg.AI.Embed.Data)
	if err != nil {
		return nil, fmt.Errorf("init embed provider: %w", err)
	}
	embedder := ai.NewEmbedder(embedProvider, cfg.AI.Embed.Model)
	embedder = embedcache.Wrap(embedder, cfg.AI.EmbedCache.Size, time.Duration(cfg.AI.EmbedCache.TTL)*time.Second)

	return ai.NewManager(ai.NewGroupGenerator(entries), embedder, ai.ManagerConfig{
		Timeout:          cfg.AI.Timeout,
		EmbedConcurrency: cfg.AI.Embed.Concurrency,
	}), nil
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("query_log", cfg.QueryLog.Type),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model),
		zap.String("embed_provider", cfg.AI.Embed.Provider),
	)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	queryLog, err := querylog.New(cfg.QueryLog)
	if err != nil {
		return fmt.Errorf("init query log: %w", err)
	}
	defer queryLog.Close()
	manager, err := buildAIManager(cfg)
	if err != nil {
		return err
	}
	logutil.GetLogger(context.Background()).Info("ai manager ready", zap.String("embedding_model", manager.EmbeddingModelName()))

	texts := extract.NewTextCache(store, cfg.TextCache.Size, time.Duration(cfg.TextCache.TTL)*time.Second)
	documentService := service.NewDocumentService(store, texts)
	qaService := service.NewQAService(documentService, manager, queryLog)

	maxUpload := int64(cfg.MaxUploadMB) * 1024 * 1024
	deps := handler.RouterDeps{
		Documents:    handler.NewDocumentHandler(documentService, maxUpload),
		QA:           handler.NewQAHandler(qaService),
		Analytics:    handler.NewAnalyticsHandler(qaService),
		UI:           handler.NewUIHandler(documentService, qaService, maxUpload),
		AskRateLimit: time.Duration(cfg.AskRateLimitMs) * time.Millisecond,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WarmupCron != "" {
		scheduler := schedule.NewCronScheduler()
		if err := scheduler.AddJob(job.NewDocumentWarmupJob(documentService), cfg.WarmupCron); err != nil {
			return fmt.Errorf("schedule warmup: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	logutil.GetLogger(context.Background()).Info("http server listening",
		zap.String("addr", addr), zap.String("ui", fmt.Sprintf("http://127.0.0.1:%d/api/v1/ui", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
