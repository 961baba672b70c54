package domain

import (
	"sort"
	"strings"
)

// ApplyFilter evaluates the spec against the catalog snapshot and returns the
// matching records, ordered and truncated. It is a pure function: the input
// slice is never mutated and the result is deterministic for identical inputs.
func ApplyFilter(movies []Movie, spec FilterSpec) []Movie {
	results := movies

	if director := spec.Director.normalized(); director != "" {
		results = filterMovies(results, func(m *Movie) bool {
			// Records without a director never match a director filter.
			if m.Director == nil || *m.Director == "" {
				return false
			}
			return strings.Contains(strings.ToLower(*m.Director), director)
		})
	}

	if actor := spec.Actor.normalized(); actor != "" {
		results = filterMovies(results, func(m *Movie) bool {
			return anyContains(m.Actors, actor)
		})
	}

	if genre := spec.Genre.normalized(); genre != "" {
		results = filterMovies(results, func(m *Movie) bool {
			return anyContains(m.Genres, genre)
		})
	}

	if keywords := spec.TitleKeywords.normalized(); keywords != "" {
		results = filterMovies(results, func(m *Movie) bool {
			return strings.Contains(strings.ToLower(m.Title), keywords)
		})
	}

	if spec.YearMin != nil {
		min := *spec.YearMin
		results = filterMovies(results, func(m *Movie) bool {
			return m.yearForMin() >= min
		})
	}

	if spec.YearMax != nil {
		max := *spec.YearMax
		results = filterMovies(results, func(m *Movie) bool {
			return m.yearForMax() <= max
		})
	}

	if spec.RatingMin != nil {
		min := *spec.RatingMin
		results = filterMovies(results, func(m *Movie) bool {
			return m.ratingOrDefault() >= min
		})
	}

	results = sortMovies(results, spec.SortBy, spec.SortOrder)

	if limit, ok := spec.ResolveLimit(); ok && len(results) > limit {
		results = results[:limit]
	}

	return results
}

// filterMovies returns the records satisfying pred, copying on first use so
// the caller's slice stays untouched.
func filterMovies(movies []Movie, pred func(*Movie) bool) []Movie {
	filtered := make([]Movie, 0, len(movies))
	for i := range movies {
		if pred(&movies[i]) {
			filtered = append(filtered, movies[i])
		}
	}
	return filtered
}

func anyContains(values []string, substr string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), substr) {
			return true
		}
	}
	return false
}

// sortMovies orders by rating or year, descending unless the order is exactly
// "asc". The sort is stable so ties keep their catalog order. An unknown
// sortBy leaves the slice as-is.
func sortMovies(movies []Movie, sortBy, sortOrder string) []Movie {
	if sortBy != SortByRating && sortBy != SortByYear {
		return movies
	}

	sorted := make([]Movie, len(movies))
	copy(sorted, movies)

	asc := sortOrder == SortOrderAsc

	sort.SliceStable(sorted, func(i, j int) bool {
		var less bool
		if sortBy == SortByRating {
			less = sorted[i].ratingOrDefault() < sorted[j].ratingOrDefault()
		} else {
			less = sorted[i].yearSortKey() < sorted[j].yearSortKey()
		}
		if asc {
			return less
		}
		if sortBy == SortByRating {
			return sorted[i].ratingOrDefault() > sorted[j].ratingOrDefault()
		}
		return sorted[i].yearSortKey() > sorted[j].yearSortKey()
	})

	return sorted
}
