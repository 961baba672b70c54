package domain

// Movie is a single catalog record. Year, Rating, and Director are pointers
// because the upstream dataset omits them for some titles, and the filter
// engine must tell "absent" apart from a genuine zero value.
type Movie struct {
	Title    string   `json:"title"`
	Year     *int     `json:"year,omitempty"`
	Rating   *float64 `json:"rating,omitempty"`
	Genres   []string `json:"genres,omitempty"`
	Actors   []string `json:"actors,omitempty"`
	Director *string  `json:"director,omitempty"`
}

// Sentinel defaults for absent numeric fields. A movie with no year fails
// both a min-bound filter (0 < any realistic year_min) and a tight max-bound
// filter (9999 > any realistic year_max).
const (
	yearDefaultForMin   = 0
	yearDefaultForMax   = 9999
	ratingDefaultForMin = 0.0
)

// yearForMin returns the year used when checking an inclusive lower bound.
func (m *Movie) yearForMin() int {
	if m.Year == nil {
		return yearDefaultForMin
	}
	return *m.Year
}

// yearForMax returns the year used when checking an inclusive upper bound.
func (m *Movie) yearForMax() int {
	if m.Year == nil {
		return yearDefaultForMax
	}
	return *m.Year
}

// ratingOrDefault returns the rating used for min-bound checks and sort keys.
func (m *Movie) ratingOrDefault() float64 {
	if m.Rating == nil {
		return ratingDefaultForMin
	}
	return *m.Rating
}

// yearSortKey returns the year used as a sort key (absent sorts as 0).
func (m *Movie) yearSortKey() int {
	if m.Year == nil {
		return yearDefaultForMin
	}
	return *m.Year
}

// MovieCatalog exposes the read-only movie list loaded at startup.
type MovieCatalog interface {
	Movies() []Movie
	Size() int
}
