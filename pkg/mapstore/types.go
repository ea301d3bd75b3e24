package mapstore

// Firm is one entity placed into a category/subcategory cell of a market map.
// ID, Name, Category and Subcategory are required; everything else is
// optional free text. A firm never exists outside a MarketMap.
type Firm struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`    // must appear in the map's category list
	Subcategory  string `json:"subcategory"` // free-form, used for grouping/display
	Product      string `json:"product,omitempty"`
	Description  string `json:"description,omitempty"`
	Notes        string `json:"notes,omitempty"`
	IndustryCode string `json:"industry_code,omitempty"`
	Location     string `json:"location,omitempty"`
}

// MarketMap is one named market map: an ordered category list plus the firms
// placed into it. Category insertion order is display order.
type MarketMap struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Firms      []Firm   `json:"firms"`
}

// MapSet is the full persisted collection of market maps, keyed by map
// identifier. It is the whole unit of persistence: every write replaces the
// entire set.
type MapSet map[string]MarketMap

// Field length caps applied by Sanitize. Values come from the write-time
// sanitization rules of the API.
const (
	MaxFirmNameLen    = 200
	MaxProductLen     = 200
	MaxCategoryLen    = 100
	MaxSubcategoryLen = 100
	MaxMapNameLen     = 100
)

// Clone returns a deep copy of the set. Useful when a caller wants to mutate
// a copy without affecting the original (for example the seed data).
func (ms MapSet) Clone() MapSet {
	if ms == nil {
		return nil
	}
	out := make(MapSet, len(ms))
	for id, m := range ms {
		categories := make([]string, len(m.Categories))
		copy(categories, m.Categories)
		firms := make([]Firm, len(m.Firms))
		copy(firms, m.Firms)
		m.Categories = categories
		m.Firms = firms
		out[id] = m
	}
	return out
}

// FindFirm returns the firm with the given ID and true if it exists in the map.
func (m MarketMap) FindFirm(firmID string) (Firm, bool) {
	for _, f := range m.Firms {
		if f.ID == firmID {
			return f, true
		}
	}
	return Firm{}, false
}

// HasCategory reports whether name is present in the map's category list.
// Category membership is the write-time invariant enforced by editing
// clients before a firm is added.
func (m MarketMap) HasCategory(name string) bool {
	for _, c := range m.Categories {
		if c == name {
			return true
		}
	}
	return false
}
