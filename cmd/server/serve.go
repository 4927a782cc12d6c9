package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/api"
	"github.com/jengzang/shelter-map/internal/config"
	"github.com/jengzang/shelter-map/internal/controller"
	"github.com/jengzang/shelter-map/internal/fileservice"
	"github.com/jengzang/shelter-map/internal/handler"
	"github.com/jengzang/shelter-map/internal/heat"
	"github.com/jengzang/shelter-map/internal/middleware"
	"github.com/jengzang/shelter-map/internal/models"
	"github.com/jengzang/shelter-map/internal/service"
	"github.com/jengzang/shelter-map/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the map API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, report, err := loadDataset(ctx, cfg, log)
	if err != nil {
		return err
	}

	sessions := session.NewManager(session.Config{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.SessionTTL,
		Controller: controller.Config{
			Tiles:    cfg.Tiles,
			IconBase: cfg.IconBase,
			Center:   cfg.Center,
		},
	}, ds, heatSource(cfg, log), log)
	go sessions.Run(ctx, time.Minute)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
		go limiter.Run(ctx)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(cfg, api.Deps{
		Sessions:    sessions,
		MapHandler:  handler.NewMapHandler(sessions, report),
		RateLimiter: limiter,
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loadDataset(ctx context.Context, cfg *config.Config, log *zap.Logger) (*models.Dataset, models.LoadReport, error) {
	svc := service.NewDatasetService(cfg.DBPath, log)
	if cfg.DatasetSource == config.SourceSQLite {
		return svc.LoadStored(ctx)
	}
	return svc.LoadJSON(cfg.DatasetPath)
}

func heatSource(cfg *config.Config, log *zap.Logger) heat.Source {
	reader := fileservice.New(&http.Client{}, cfg.FetchTimeout)
	switch cfg.HeatKind {
	case config.HeatGrid:
		return heat.NewGridSource(reader, cfg.HeatSource, log)
	case config.HeatFeatures:
		if cfg.HeatSource == config.BundledHeatSource {
			return heat.NewBundledFeatureSource()
		}
		return heat.NewFeatureSource(reader, cfg.HeatSource)
	default:
		return nil
	}
}
