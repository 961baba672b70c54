package usecase

import (
	"encoding/json"
	"fmt"

	"cinequery/internal/domain"
)

const translationSystemInstruction = "You are a strict data retrieval engine. Your ONLY function is to convert the user's " +
	"natural language query into a valid JSON object matching the provided schema. " +
	"Do not include any text or conversation outside of the JSON object. " +
	"If a field is not mentioned by the user, omit it from the JSON. " +
	"Be aggressive in mapping concepts (e.g., 'best' or 'top' implies sort_by: 'rating', sort_order: 'desc', limit: 5)."

const synthesisSystemInstruction = "You are a helpful film analyst. Your task is to summarize the provided structured movie data " +
	"into natural, conversational language based on the original user query."

// filterSpecSchema constrains the translation output to the FilterSpec shape.
// Property names and enums must stay in sync with domain.FilterSpec.
var filterSpecSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"title_keywords": map[string]any{"type": "STRING", "description": "Keywords to match in the movie title."},
		"actor":          map[string]any{"type": "STRING", "description": "Name of the actor or actress to filter by."},
		"director":       map[string]any{"type": "STRING", "description": "Name of the director to filter by."},
		"genre":          map[string]any{"type": "STRING", "description": "Primary genre (e.g., Action, Comedy, Drama)."},
		"year_min":       map[string]any{"type": "INTEGER", "description": "Minimum release year (inclusive)."},
		"year_max":       map[string]any{"type": "INTEGER", "description": "Maximum release year (inclusive)."},
		"rating_min":     map[string]any{"type": "NUMBER", "description": "Minimum average rating (e.g., 7.5)."},
		"sort_by": map[string]any{
			"type": "STRING", "enum": []string{domain.SortByRating, domain.SortByYear},
			"description": "Field to sort results by ('rating' or 'year').",
		},
		"sort_order": map[string]any{
			"type": "STRING", "enum": []string{domain.SortOrderAsc, domain.SortOrderDesc},
			"description": "Sorting direction ('asc' or 'desc').",
		},
		"limit": map[string]any{"type": "INTEGER", "description": "Maximum number of results to return (default 5)."},
	},
	"propertyOrdering": []string{
		"title_keywords", "actor", "director", "genre",
		"year_min", "year_max", "rating_min",
		"sort_by", "sort_order", "limit",
	},
}

// PromptBuilder assembles the two generation requests of the pipeline.
type PromptBuilder interface {
	BuildTranslation(query string) domain.GenerationRequest
	BuildSynthesis(query string, results []domain.Movie) (domain.GenerationRequest, error)
}

type cinePromptBuilder struct{}

// NewPromptBuilder creates the default prompt builder.
func NewPromptBuilder() PromptBuilder {
	return cinePromptBuilder{}
}

// BuildTranslation requests schema-constrained JSON with web grounding off,
// which keeps the structured output reliable.
func (cinePromptBuilder) BuildTranslation(query string) domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt:            query,
		SystemInstruction: translationSystemInstruction,
		ResponseSchema:    filterSpecSchema,
		EnableSearch:      false,
	}
}

// BuildSynthesis embeds the original query and the filtered records as JSON
// and requests free-form text with web grounding enabled. The
// no-hallucination rule is a prompt contract only; nothing downstream
// verifies the answer against the data.
func (cinePromptBuilder) BuildSynthesis(query string, results []domain.Movie) (domain.GenerationRequest, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return domain.GenerationRequest{}, fmt.Errorf("failed to serialize results for synthesis: %w", err)
	}

	prompt := fmt.Sprintf(
		"The user asked: '%s'. "+
			"The following data was retrieved from the database:\n\n%s\n\n"+
			"Please use ONLY this data to generate a concise, conversational, and helpful summary. "+
			"Do not hallucinate any information not present in the provided JSON data.",
		query, string(data),
	)

	return domain.GenerationRequest{
		Prompt:            prompt,
		SystemInstruction: synthesisSystemInstruction,
		EnableSearch:      true,
	}, nil
}
