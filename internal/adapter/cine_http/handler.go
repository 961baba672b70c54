package cine_http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"cinequery/internal/domain"
	"cinequery/internal/usecase"
)

// QueryRequest is the POST body accepted by the query endpoint.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the JSON envelope returned for every outcome.
type QueryResponse struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Query     string         `json:"query,omitempty"`
	Data      []domain.Movie `json:"data,omitempty"`
	Answer    string         `json:"answer,omitempty"`
	LLMOutput string         `json:"llm_output,omitempty"`
}

// Handler exposes the query pipeline over HTTP.
type Handler struct {
	queryUsecase usecase.MovieQueryUsecase
	logger       *slog.Logger
}

// NewHandler constructs the HTTP handler.
func NewHandler(queryUsecase usecase.MovieQueryUsecase, logger *slog.Logger) *Handler {
	return &Handler{
		queryUsecase: queryUsecase,
		logger:       logger,
	}
}

// RegisterRoutes attaches the public routes to the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Home)
	e.GET("/query", h.HandleQuery)
	e.POST("/query", h.HandleQuery)
}

// Home returns a welcome envelope describing the service.
func (h *Handler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Welcome to CineQuery API. Use the /query endpoint to submit natural language movie queries.",
	})
}

// HandleQuery accepts a free-text query (query parameter on GET, JSON body on
// POST) and relays the pipeline outcome. Success maps to 200, an empty
// catalog to 503, and every other pipeline error to 500.
func (h *Handler) HandleQuery(c echo.Context) error {
	var query string
	if c.Request().Method == http.MethodPost {
		var req QueryRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, QueryResponse{
				Status:  "error",
				Message: "Invalid request body.",
			})
		}
		query = req.Query
	} else {
		query = c.QueryParam("query")
	}

	if query == "" {
		return c.JSON(http.StatusBadRequest, QueryResponse{
			Status:  "error",
			Message: "Missing 'query' parameter in request body.",
		})
	}

	h.logger.Info("query_received", slog.String("query", query))

	result, err := h.queryUsecase.Execute(c.Request().Context(), query)
	if err != nil {
		return h.writeError(c, err)
	}

	if result.Message != "" {
		return c.JSON(http.StatusOK, QueryResponse{
			Status:  "success",
			Message: result.Message,
		})
	}

	return c.JSON(http.StatusOK, QueryResponse{
		Status: "success",
		Query:  result.Query,
		Data:   result.Movies,
		Answer: result.Answer,
	})
}

func (h *Handler) writeError(c echo.Context, err error) error {
	var malformed *usecase.MalformedTranslationError
	switch {
	case errors.Is(err, usecase.ErrNotInitialized):
		return c.JSON(http.StatusServiceUnavailable, QueryResponse{
			Status:  "error",
			Message: "API service is unavailable. Database failed to load.",
		})
	case errors.As(err, &malformed):
		return c.JSON(http.StatusInternalServerError, QueryResponse{
			Status:    "error",
			Message:   "LLM returned improperly formatted JSON.",
			LLMOutput: malformed.Raw,
		})
	default:
		h.logger.Error("query_pipeline_failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, QueryResponse{
			Status:  "error",
			Message: err.Error(),
		})
	}
}
