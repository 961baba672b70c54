package catalog

import (
	"encoding/json"
	"log/slog"
	"os"

	"cinequery/internal/domain"
)

// Store holds the in-memory movie list. It is loaded once at startup and
// read-only afterwards, so any number of concurrent readers is safe.
type Store struct {
	movies []domain.Movie
	logger *slog.Logger
}

// NewStore loads the catalog file at path. A missing or malformed file
// yields an empty store and a logged warning rather than an error; the
// orchestrator reports the empty catalog as a configuration problem.
func NewStore(path string, logger *slog.Logger) *Store {
	s := &Store{logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("catalog_load_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return s
	}

	var movies []domain.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		logger.Warn("catalog_decode_failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return s
	}

	s.movies = movies
	logger.Info("catalog_loaded",
		slog.String("path", path),
		slog.Int("records", len(movies)))
	return s
}

// Movies returns the full record list by reference. Callers must not mutate it.
func (s *Store) Movies() []domain.Movie {
	return s.movies
}

// Size returns the number of loaded records.
func (s *Store) Size() int {
	return len(s.movies)
}

var _ domain.MovieCatalog = (*Store)(nil)
