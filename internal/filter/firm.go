// Package filter narrows CLI listings down to the firms a user asked about.
package filter

import (
	"path/filepath"
	"strings"

	"github.com/mapboard/mapboard/pkg/mapstore"
)

// Criteria defines filtering criteria for firms.
// All filters are ANDed together - a firm must match ALL criteria to pass.
type Criteria struct {
	NameGlob    string // Glob pattern for the firm name, empty = no filter
	Category    string // Exact match (case-insensitive), empty = no filter
	Subcategory string // Exact match (case-insensitive), empty = no filter
}

// Matches returns true if the firm matches all filter criteria.
// Empty criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(f mapstore.Firm) bool {
	if c.NameGlob != "" {
		matched, err := filepath.Match(strings.ToLower(c.NameGlob), strings.ToLower(f.Name))
		if err != nil || !matched {
			return false
		}
	}

	if c.Category != "" && !strings.EqualFold(c.Category, f.Category) {
		return false
	}

	if c.Subcategory != "" && !strings.EqualFold(c.Subcategory, f.Subcategory) {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.NameGlob != "" || c.Category != "" || c.Subcategory != ""
}

// Apply returns a copy of the map holding only the firms that match.
// The map's identity and category layout are untouched.
func (c *Criteria) Apply(m mapstore.MarketMap) mapstore.MarketMap {
	if !c.HasFilters() {
		return m
	}

	filtered := m
	filtered.Firms = make([]mapstore.Firm, 0, len(m.Firms))
	for _, f := range m.Firms {
		if c.Matches(f) {
			filtered.Firms = append(filtered.Firms, f)
		}
	}
	return filtered
}
