package location

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Option is one searchable city entry.
type Option struct {
	Value      string   `json:"value"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	Zips       []string `json:"zips"`
	Population int      `json:"population,omitempty"`
}

const (
	minQueryLength = 2
	popularCount   = 200
	maxResultZips  = 5
)

// Index is the in-memory city lookup backing the autocomplete API. Loaded
// once at startup and read-only afterwards, so no locking is needed.
type Index struct {
	options []Option
	popular []Option
}

// Load reads the city data file and builds the index.
func Load(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read location data: %w", err)
	}
	var options []Option
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, fmt.Errorf("parse location data: %w", err)
	}
	return NewIndex(options), nil
}

// NewIndex builds an index from already-loaded options.
func NewIndex(options []Option) *Index {
	popular := make([]Option, len(options))
	copy(popular, options)
	sort.SliceStable(popular, func(i, j int) bool {
		return popular[i].Population > popular[j].Population
	})
	if len(popular) > popularCount {
		popular = popular[:popularCount]
	}
	for i := range popular {
		popular[i] = trimZips(popular[i])
	}
	return &Index{options: options, popular: popular}
}

// Search matches by city, state, combined value, or ZIP prefix. Queries
// shorter than two characters return nothing.
func (i *Index) Search(query string, limit int) []Option {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLength {
		return nil
	}
	queryLower := strings.ToLower(query)

	var matches []Option
	for _, option := range i.options {
		if matchesQuery(option, queryLower) {
			matches = append(matches, trimZips(option))
			if limit > 0 && len(matches) >= limit {
				break
			}
		}
	}
	return matches
}

// Popular returns the highest-population entries.
func (i *Index) Popular(limit int) []Option {
	if limit <= 0 || limit > len(i.popular) {
		limit = len(i.popular)
	}
	out := make([]Option, limit)
	copy(out, i.popular[:limit])
	return out
}

// Len reports how many locations are indexed.
func (i *Index) Len() int {
	return len(i.options)
}

func matchesQuery(option Option, queryLower string) bool {
	if strings.Contains(strings.ToLower(option.City), queryLower) ||
		strings.Contains(strings.ToLower(option.State), queryLower) ||
		strings.Contains(strings.ToLower(option.Value), queryLower) {
		return true
	}
	for _, zip := range option.Zips {
		if strings.Contains(zip, queryLower) {
			return true
		}
	}
	return false
}

func trimZips(option Option) Option {
	if len(option.Zips) > maxResultZips {
		option.Zips = option.Zips[:maxResultZips]
	}
	return option
}
