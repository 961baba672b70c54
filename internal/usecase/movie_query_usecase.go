package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"cinequery/internal/domain"
)

// Pipeline-terminal errors. The transport layer maps ErrNotInitialized to 503
// and everything else to 500.
var (
	ErrNotInitialized    = errors.New("database not initialized or empty")
	ErrTranslationFailed = errors.New("failed to translate query into structured JSON format")
	ErrSynthesisFailed   = errors.New("failed to synthesize a final answer")
)

// MalformedTranslationError reports unparseable translation output and keeps
// the raw model text for diagnostics.
type MalformedTranslationError struct {
	Raw string
	Err error
}

func (e *MalformedTranslationError) Error() string {
	return "llm returned improperly formatted JSON"
}

func (e *MalformedTranslationError) Unwrap() error {
	return e.Err
}

const (
	emptyResultMessage = "I found no movies matching your criteria in the database."
	missingAnswerText  = "Could not generate final answer text."
)

// QueryResult is the success outcome of the pipeline. Either Message is set
// (zero matches, synthesis skipped) or Query/Movies/Answer are.
type QueryResult struct {
	Query   string         `json:"query,omitempty"`
	Movies  []domain.Movie `json:"movies,omitempty"`
	Answer  string         `json:"answer,omitempty"`
	Message string         `json:"message,omitempty"`
}

// MovieQueryUsecase runs the translate -> execute -> synthesize pipeline.
type MovieQueryUsecase interface {
	Execute(ctx context.Context, query string) (*QueryResult, error)
}

type movieQueryUsecase struct {
	catalog   domain.MovieCatalog
	prompts   PromptBuilder
	generator domain.GenerationClient
	logger    *slog.Logger
}

// NewMovieQueryUsecase wires the catalog, prompt builder, and generation
// client into a pipeline instance. Instances share only the read-only
// catalog, so concurrent Execute calls need no synchronization.
func NewMovieQueryUsecase(
	catalog domain.MovieCatalog,
	prompts PromptBuilder,
	generator domain.GenerationClient,
	logger *slog.Logger,
) MovieQueryUsecase {
	return &movieQueryUsecase{
		catalog:   catalog,
		prompts:   prompts,
		generator: generator,
		logger:    logger,
	}
}

func (u *movieQueryUsecase) Execute(ctx context.Context, query string) (*QueryResult, error) {
	if u.catalog.Size() == 0 {
		return nil, ErrNotInitialized
	}

	queryID := uuid.NewString()
	log := u.logger.With(slog.String("query_id", queryID))

	// Translation
	translation, err := u.generator.Generate(ctx, u.prompts.BuildTranslation(query))
	if err != nil {
		log.Warn("translation_failed", slog.String("error", err.Error()))
		return nil, ErrTranslationFailed
	}

	rawSpec := stripCodeFence(translation.Text)
	spec, err := domain.ParseFilterSpec(rawSpec)
	if err != nil {
		log.Warn("translation_unparseable",
			slog.String("error", err.Error()),
			slog.String("raw_output", truncateForLog(translation.Text)))
		return nil, &MalformedTranslationError{Raw: translation.Text, Err: err}
	}

	// Execution
	matches := domain.ApplyFilter(u.catalog.Movies(), *spec)
	log.Info("filter_executed",
		slog.Int("catalog_size", u.catalog.Size()),
		slog.Int("matches", len(matches)))

	// Zero matches skip the synthesis call entirely; that is a success
	// outcome, not an error.
	if len(matches) == 0 {
		return &QueryResult{Message: emptyResultMessage}, nil
	}

	// Synthesis
	synthesisReq, err := u.prompts.BuildSynthesis(query, matches)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	synthesis, err := u.generator.Generate(ctx, synthesisReq)
	if err != nil {
		log.Warn("synthesis_failed", slog.String("error", err.Error()))
		return nil, ErrSynthesisFailed
	}

	answer := synthesis.Text
	if strings.TrimSpace(answer) == "" {
		answer = missingAnswerText
	}

	return &QueryResult{
		Query:  query,
		Movies: matches,
		Answer: answer,
	}, nil
}

// stripCodeFence removes a leading markdown fence (```json or bare ```) and
// any trailing backticks or newlines before JSON parsing. Schema-constrained
// responses usually arrive bare, but fenced output still shows up.
func stripCodeFence(text string) string {
	if strings.HasPrefix(text, "```json") {
		return strings.TrimRight(strings.Replace(text, "```json", "", 1), "`\n")
	}
	if strings.HasPrefix(text, "```") {
		return strings.TrimRight(strings.Replace(text, "```", "", 1), "`\n")
	}
	return text
}

func truncateForLog(s string) string {
	const max = 300
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
