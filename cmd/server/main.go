package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dryack/dndice/core/api"
	"github.com/dryack/dndice/core/config"
	"github.com/dryack/dndice/core/jobs"
	"github.com/dryack/dndice/core/logging"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logging.Setup(os.Stderr, cfg.String("log.level"), cfg.Bool("log.pretty")); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	if cfg.String("log.level") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := api.NewServer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}
	defer server.Close()

	if server.Cache() != nil && server.Database() != nil {
		syncJob := jobs.NewSyncJob(server.Cache(), server.Database(), cfg.Duration("sync.interval"))
		go syncJob.Start(ctx)
	}
	server.Sessions().StartCleanupTask(ctx, cfg.Duration("session.cleanup"), cfg.Duration("session.idle"))

	if err := server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}
