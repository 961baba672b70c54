package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"cinequery/internal/di"
	"cinequery/internal/infra/config"
	"cinequery/internal/infra/logger"
)

func main() {
	// 1. Load .env (optional) and Config
	_ = godotenv.Load()
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New()
	slog.SetDefault(log)

	if cfg.GeminiAPIKey == "" {
		log.Warn("gemini api key not configured; every query will fail at the generation stage")
	}

	// 3. Wire Components
	components := di.NewApplicationComponents(cfg, log)
	if components.Catalog.Size() == 0 {
		log.Warn("catalog is empty; /query will return 503 until a valid catalog file is provided",
			slog.String("path", cfg.CatalogPath))
	}

	// 4. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// 5. Register Handlers
	components.Handler.RegisterRoutes(e)

	// 6. Health Checks
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		if components.Catalog.Size() == 0 {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "catalog not loaded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})

	// 7. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("Starting server", "addr", addr, "model", components.Generator.ModelName())
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 8. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}
