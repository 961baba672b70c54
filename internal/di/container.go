package di

import (
	"log/slog"
	"time"

	"cinequery/internal/adapter/catalog"
	"cinequery/internal/adapter/cine_http"
	"cinequery/internal/adapter/genai"
	"cinequery/internal/domain"
	"cinequery/internal/infra/config"
	"cinequery/internal/infra/httpclient"
	"cinequery/internal/usecase"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Catalog      domain.MovieCatalog
	Generator    domain.GenerationClient
	QueryUsecase usecase.MovieQueryUsecase
	Handler      *cine_http.Handler
}

// NewApplicationComponents wires all dependencies from config.
func NewApplicationComponents(cfg *config.Config, log *slog.Logger) *ApplicationComponents {
	store := catalog.NewStore(cfg.CatalogPath, log)

	genHTTP := httpclient.NewPooledClient(time.Duration(cfg.GeminiTimeout) * time.Second)
	generator := genai.NewGeminiClient(
		cfg.GeminiBaseURL,
		cfg.GeminiModel,
		cfg.GeminiAPIKey,
		time.Duration(cfg.GeminiTimeout)*time.Second,
		log,
		genHTTP,
		genai.WithRetryPolicy(cfg.GeminiMaxRetries, time.Duration(cfg.GeminiBaseDelay)*time.Second),
		genai.WithTemperature(cfg.Temperature),
		genai.WithRateLimit(cfg.RequestsPerSec, 1),
	)

	queryUsecase := usecase.NewMovieQueryUsecase(store, usecase.NewPromptBuilder(), generator, log)
	handler := cine_http.NewHandler(queryUsecase, log)

	return &ApplicationComponents{
		Catalog:      store,
		Generator:    generator,
		QueryUsecase: queryUsecase,
		Handler:      handler,
	}
}
