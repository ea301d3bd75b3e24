package mapstore

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation reasons reported to API callers. The three reasons correspond to
// the three shapes that can be malformed: the top-level set, a map, or a firm.
const (
	ReasonInvalidData = "Invalid data format"
	ReasonInvalidMap  = "Invalid market map structure"
	ReasonInvalidFirm = "Invalid firm structure"
)

// ValidationError describes why a candidate MapSet was rejected.
// No partial write happens on a validation failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validate checks a candidate MapSet before it is accepted for persistence:
// the top-level value must be a non-nil map, every market map must have an
// identifier, a name and list-valued categories and firms fields, and every
// firm must have an identifier, name, category and subcategory.
// Returns a *ValidationError on the first violation found.
func Validate(ms MapSet) error {
	if ms == nil {
		return &ValidationError{Reason: ReasonInvalidData}
	}
	for _, m := range ms {
		// A nil slice means the field was absent from the submitted JSON.
		if m.ID == "" || m.Name == "" || m.Categories == nil || m.Firms == nil {
			return &ValidationError{Reason: ReasonInvalidMap}
		}
		for _, f := range m.Firms {
			if f.ID == "" || f.Name == "" || f.Category == "" || f.Subcategory == "" {
				return &ValidationError{Reason: ReasonInvalidFirm}
			}
		}
	}
	return nil
}

// Sanitize trims and length-caps the string fields of every map and firm in
// the set, mutating it in place. Applying Sanitize twice yields the same
// result as applying it once.
func Sanitize(ms MapSet) {
	for id, m := range ms {
		m.Name = capString(m.Name, MaxMapNameLen)
		for i, c := range m.Categories {
			m.Categories[i] = capString(c, MaxCategoryLen)
		}
		for i := range m.Firms {
			f := &m.Firms[i]
			f.Name = capString(f.Name, MaxFirmNameLen)
			f.Category = capString(f.Category, MaxCategoryLen)
			f.Subcategory = capString(f.Subcategory, MaxSubcategoryLen)
			if f.Product != "" {
				f.Product = capString(f.Product, MaxProductLen)
			}
		}
		ms[id] = m
	}
}

// capString trims surrounding whitespace and truncates to at most max bytes.
// The cut never splits a rune, and whitespace exposed by the cut is trimmed
// too, so applying capString to its own output changes nothing.
func capString(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimRightFunc(s[:cut], unicode.IsSpace)
	}
	return s
}
