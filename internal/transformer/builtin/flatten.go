package builtin

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"tmdbetl/internal/movie"
)

type named struct {
	Name string `json:"name"`
}

// Names flattens a JSON list of objects into their "name" values, e.g.
//
//	[{"id": 28, "name": "Action"}, {"id": 12, "name": "Adventure"}]
//
// becomes ["Action", "Adventure"]. Names are normalized; blanks and repeats
// are dropped. An empty string yields a nil slice and no error.
func Names(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var items []named
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("names: %w", err)
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		n := Normalize(it.Name)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

// Cast decodes the cast column and orders it by billing order. Entries with
// equal order keep their source order.
func Cast(s string) ([]movie.CastMember, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var cast []movie.CastMember
	if err := json.Unmarshal([]byte(s), &cast); err != nil {
		return nil, fmt.Errorf("cast: %w", err)
	}
	for i := range cast {
		cast[i].Name = Normalize(cast[i].Name)
		cast[i].Character = Normalize(cast[i].Character)
	}
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })
	return cast, nil
}

// Crew decodes the crew column.
func Crew(s string) ([]movie.CrewMember, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var crew []movie.CrewMember
	if err := json.Unmarshal([]byte(s), &crew); err != nil {
		return nil, fmt.Errorf("crew: %w", err)
	}
	for i := range crew {
		crew[i].Name = Normalize(crew[i].Name)
		crew[i].Job = Normalize(crew[i].Job)
		crew[i].Department = Normalize(crew[i].Department)
	}
	return crew, nil
}
