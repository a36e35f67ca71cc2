package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"reel-ingest/config"
	"reel-ingest/constant"
	ingestHandler "reel-ingest/handler"
	"reel-ingest/pkg/rabbitmq"
	"reel-ingest/pkg/staging"
	"reel-ingest/pkg/streaming"
	"reel-ingest/repository"
	"reel-ingest/service"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	}

	repo := repository.NewRepo(cfg.DB)
	provider := streaming.NewClient(cfg.Streaming)
	stagingStore := staging.NewStore(cfg.Staging, cfg.MinIOBucket)
	orphans := rabbitmq.NewPublisher(conn, cfg.Queue)

	resolver := service.NewResolver(provider)
	poller := service.NewPoller(provider, resolver)
	reconciler := service.NewReconciler(repo, poller)
	submitter := service.NewSubmitter(repo, provider, stagingStore)
	deleter := service.NewDeleter(repo, provider, stagingStore, orphans)

	serviceDeps := ingestHandler.ServiceDependencies{
		Provider: provider,
	}

	// Sweep the assets whose provider-side delete failed during a cascade.
	sweepConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, cfg.Server.Workers, ingestHandler.OrphanSweepHandler)
	go func() {
		err := sweepConsumer.Consume(ctx, serviceDeps)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Orphan sweep consumer error")
		}
	}()

	r := gin.Default()
	addHealth(r)
	ingestHandler.NewHttp(submitter, reconciler, deleter, repo).Register(r)

	handler := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
		// Request contexts inherit the service logger.
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := handler.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := handler.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Log to standard output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
