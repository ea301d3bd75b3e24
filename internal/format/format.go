// Package format renders map sets for the CLI: fixed-width tables for
// humans, JSONL and pretty JSON for pipelines.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mapboard/mapboard/pkg/mapstore"
)

// FormatMaps writes a one-line-per-map summary table to the provided writer.
// Maps are sorted by ID so the output is stable. Returns the number of maps
// formatted.
func FormatMaps(w io.Writer, set mapstore.MapSet) int {
	if len(set) == 0 {
		fmt.Fprintf(w, "No market maps found\n")
		return 0
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Fprintf(w, "%-20s %-30s %-6s %s\n",
		"ID", "NAME", "FIRMS", "CATEGORIES")
	fmt.Fprintf(w, "%-20s %-30s %-6s %s\n",
		"--------------------", "------------------------------", "------", "----------------------------------------")

	for _, id := range ids {
		m := set[id]
		fmt.Fprintf(w, "%-20s %-30s %-6d %s\n",
			truncate(m.ID, 20),
			truncate(m.Name, 30),
			len(m.Firms),
			formatCategories(m.Categories),
		)
	}

	countMsg := "map"
	if len(set) != 1 {
		countMsg = "maps"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(set), countMsg)

	return len(set)
}

// FormatFirms writes one map's firms as a table to the provided writer.
// Firms keep their stored order, which is the order the editor shows them
// in. Returns the number of firms formatted.
func FormatFirms(w io.Writer, m mapstore.MarketMap) int {
	if len(m.Firms) == 0 {
		fmt.Fprintf(w, "No firms in map '%s'\n", m.ID)
		return 0
	}

	fmt.Fprintf(w, "Firms in map '%s':\n\n", m.ID)

	fmt.Fprintf(w, "%-14s %-24s %-16s %-16s %s\n",
		"ID", "NAME", "CATEGORY", "SUBCATEGORY", "PRODUCT")
	fmt.Fprintf(w, "%-14s %-24s %-16s %-16s %s\n",
		"--------------", "------------------------", "----------------", "----------------", "------------------------")

	for _, f := range m.Firms {
		fmt.Fprintf(w, "%-14s %-24s %-16s %-16s %s\n",
			truncate(f.ID, 14),
			truncate(f.Name, 24),
			truncate(f.Category, 16),
			truncate(f.Subcategory, 16),
			formatProduct(f.Product),
		)
	}

	countMsg := "firm"
	if len(m.Firms) != 1 {
		countMsg = "firms"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(m.Firms), countMsg)

	return len(m.Firms)
}

// firmLine is the JSONL record shape: one firm per line, tagged with the
// map it belongs to so the output stays useful after concatenation.
type firmLine struct {
	Map string `json:"map"`
	mapstore.Firm
}

// FormatJSONL writes every firm in the set as line-delimited JSON (JSONL)
// to the provided writer, one object per line, maps in ID order. This
// format is ideal for streaming and processing with tools like jq.
func FormatJSONL(w io.Writer, set mapstore.MapSet) error {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		for _, f := range set[id].Firms {
			data, err := json.Marshal(firmLine{Map: id, Firm: f})
			if err != nil {
				return fmt.Errorf("failed to marshal firm to JSON: %w", err)
			}
			if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
				return fmt.Errorf("failed to write JSONL output: %w", err)
			}
		}
	}

	return nil
}

// FormatJSON writes v as pretty-printed JSON to the provided writer. Used
// for whole-set and single-map dumps.
func FormatJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// truncate shortens s for fixed-width table cells, marking the cut with an
// ellipsis. Empty values display as "-".
func truncate(s string, max int) string {
	if s == "" {
		return "-"
	}
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// formatCategories joins a map's categories for the summary table.
func formatCategories(categories []string) string {
	if len(categories) == 0 {
		return "-"
	}
	joined := strings.Join(categories, ", ")
	if len(joined) > 60 {
		return joined[:57] + "..."
	}
	return joined
}

// formatProduct formats the product column. Empty values display as "-".
func formatProduct(product string) string {
	if product == "" {
		return "-"
	}
	if len(product) > 40 {
		return product[:37] + "..."
	}
	return product
}
