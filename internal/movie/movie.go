// Package movie defines the cleaned movie record produced by the cleaner and
// consumed read-only by the analytics and report packages.
package movie

import "time"

// Movie is one merged and cleaned record. Pointer fields are nil when the
// source value was missing or invalid.
type Movie struct {
	ID    string
	Title string

	// Budget and Revenue are positive when set.
	Budget  *int64
	Revenue *int64

	Genres      []string
	ReleaseDate *time.Time
	Runtime     *float64
	VoteAverage *float64
	VoteCount   *int64
	Popularity  *float64

	SpokenLanguages     []string
	ProductionCountries []string
	ProductionCompanies []string
	Keywords            []string

	// Cast is ordered by billing order.
	Cast []CastMember
	Crew []CrewMember
}

// CastMember is one billed performer.
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember is one crew credit.
type CrewMember struct {
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// DirectorJob is the crew job that marks a director.
const DirectorJob = "Director"

// Financial reports whether both budget and revenue are known. Records that
// are not financial stay in every count but are left out of money figures.
func (m *Movie) Financial() bool {
	return m.Budget != nil && m.Revenue != nil
}

// ROI returns revenue divided by budget for financial records.
func (m *Movie) ROI() (float64, bool) {
	if !m.Financial() || *m.Budget <= 0 {
		return 0, false
	}
	return float64(*m.Revenue) / float64(*m.Budget), true
}

// Profit returns revenue minus budget for financial records.
func (m *Movie) Profit() (int64, bool) {
	if !m.Financial() {
		return 0, false
	}
	return *m.Revenue - *m.Budget, true
}

// Year returns the release year when the release date is known.
func (m *Movie) Year() (int, bool) {
	if m.ReleaseDate == nil {
		return 0, false
	}
	return m.ReleaseDate.Year(), true
}

// Directors returns the distinct names of crew credited as director, in
// crew order.
func (m *Movie) Directors() []string {
	var out []string
	seen := map[string]struct{}{}
	for _, c := range m.Crew {
		if c.Job != DirectorJob || c.Name == "" {
			continue
		}
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c.Name)
	}
	return out
}

// Actors returns the distinct names of the first n billed cast members. n <= 0
// returns the whole cast.
func (m *Movie) Actors(n int) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, c := range m.Cast {
		if n > 0 && len(out) == n {
			break
		}
		if c.Name == "" {
			continue
		}
		if _, dup := seen[c.Name]; dup {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c.Name)
	}
	return out
}

// HasGenre reports whether g is one of the movie's genres.
func (m *Movie) HasGenre(g string) bool {
	for _, x := range m.Genres {
		if x == g {
			return true
		}
	}
	return false
}
