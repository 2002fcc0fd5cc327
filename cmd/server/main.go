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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rongwang/deductible-server/internal/api"
	"github.com/rongwang/deductible-server/internal/config"
	"github.com/rongwang/deductible-server/internal/metrics"
	"github.com/rongwang/deductible-server/internal/registry"
	"github.com/rongwang/deductible-server/internal/repository"
	"github.com/rongwang/deductible-server/internal/service"
	"github.com/rongwang/deductible-server/internal/utils"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	log := utils.NewLogger(cfg.AppEnv)

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Set up database connection
	h, err := config.SetupDatabase(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database")
	}
	defer h.Close()

	repo := repository.New(h)
	reg := registry.NewClient(cfg.Registry.BaseURL, cfg.Registry.Timeout, log)
	svc := service.NewDefaultService(repo, reg, cfg.Auth.JWTSecret, log)
	handler := api.NewHandler(svc, log, cfg.DevLoginEnabled())

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
