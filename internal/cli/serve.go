package cli

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

	"github.com/spf13/cobra"

	"github.com/avaldes/marsight/internal/config"
	"github.com/avaldes/marsight/internal/llm"
	"github.com/avaldes/marsight/internal/retrieval"
	"github.com/avaldes/marsight/internal/server"
	"github.com/avaldes/marsight/internal/service"
	"github.com/avaldes/marsight/internal/vision"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
		defer closeLog()
		slog.SetDefault(logger)

		logger.Info("starting marsight", "addr", cfg.ListenAddr, "version", Version)

		var encoder vision.Encoder
		if enc, err := vision.NewOllamaEncoder(cfg.OllamaHost, cfg.VisionModel, cfg.VisionDimension); err != nil {
			logger.Warn("vision encoder unavailable, embeddings disabled", "error", err)
		} else {
			encoder = enc
		}

		// A failed model constructor must leave the interface untyped-nil
		// so the unavailable-service fallbacks engage downstream.
		var completer llm.Completer
		if model, err := llm.NewModel(cfg); err != nil {
			logger.Warn("language model unavailable, enrichment degraded", "error", err)
		} else {
			completer = model
		}
		enricher := llm.NewEnricher(completer)

		objects := service.NewObjectService(dbClient, encoder)
		missions := service.NewMissionService(dbClient)
		chat := service.NewChatService(dbClient, completer, enricher)
		nearby := retrieval.NewNearbyResolver(dbClient)
		similar := retrieval.NewSimilarResolver(dbClient, encoder)

		handler := server.NewHandler(server.Deps{
			Objects:  objects,
			Missions: missions,
			Chat:     chat,
			Nearby:   nearby,
			Similar:  similar,
			Enricher: enricher,
			Encoder:  encoder,
			Token:    cfg.APIToken,
			Logger:   logger,
		})

		httpServer := &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second, // long for LLM responses
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("REST API available", "url", fmt.Sprintf("http://localhost%s/api", cfg.ListenAddr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		case sig := <-quit:
			logger.Info("shutting down", "signal", sig.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
