package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapboard/mapboard/internal/filter"
	"github.com/mapboard/mapboard/internal/format"
	"github.com/mapboard/mapboard/internal/printer"
	"github.com/mapboard/mapboard/pkg/mapclient"
)

var (
	getOutputFormat   string
	getFilterName     string
	getFilterCategory string
	getFilterSubcat   string
)

var getCmd = &cobra.Command{
	Use:   "get [MAP_ID]",
	Short: "Inspect market maps",
	Long: `Inspect the server's market maps in list or get mode.

List Mode (no MAP_ID):
  Displays an overview of every map as a table, a JSON object, or
  line-delimited JSON with one firm per line.

Get Mode (with MAP_ID):
  Displays a single map: its firms as a table, or the complete map as
  pretty-printed JSON.

Output Formats:
  default - Human-readable tables
  json    - Complete JSON (whole set in list mode, one map in get mode)
  jsonl   - One firm per line, tagged with its map ID (list mode only)

Examples:
  # Summarise all maps
  mapboard get

  # Dump everything as JSON for scripting
  mapboard get --output=json | jq 'keys'

  # Stream firms into jq
  mapboard get --output=jsonl | jq -r 'select(.category=="Sensing") | .name'

  # Show one map's firms
  mapboard get CUAS

  # Narrow one map down to a category
  mapboard get CUAS --category Sensing

  # Glob on firm names
  mapboard get CUAS --match 'acme*'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getOutputFormat, "output", "o", "default", "Output format: default, json, or jsonl")
	getCmd.Flags().StringVar(&getFilterName, "match", "", "Only show firms whose name matches this glob (get mode)")
	getCmd.Flags().StringVar(&getFilterCategory, "category", "", "Only show firms in this category (get mode)")
	getCmd.Flags().StringVar(&getFilterSubcat, "subcategory", "", "Only show firms in this subcategory (get mode)")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	switch getOutputFormat {
	case "default", "json", "jsonl":
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", getOutputFormat),
			[]string{"Valid formats: default, json, jsonl"},
		)
	}
	if len(args) > 0 && getOutputFormat == "jsonl" {
		return printer.Error(
			"jsonl is a list-mode format",
			"Line-delimited output streams firms across every map; a single map renders as a table or JSON.",
			[]string{
				"Drop the MAP_ID to stream all firms",
				"Use --output=json for one map",
			},
		)
	}

	set, err := newClient().Fetch(context.Background())
	if err != nil {
		return fetchError(err)
	}

	// Get mode: a single map.
	if len(args) > 0 {
		mapID := args[0]
		m, ok := set[mapID]
		if !ok {
			return printer.ErrorWithContext(
				"map not found",
				fmt.Sprintf("The server has no market map with ID '%s'.", mapID),
				map[string]string{"Server": serverURL},
				[]string{"Run 'mapboard get' to list available maps"},
			)
		}
		criteria := &filter.Criteria{
			NameGlob:    getFilterName,
			Category:    getFilterCategory,
			Subcategory: getFilterSubcat,
		}
		m = criteria.Apply(m)

		if getOutputFormat == "default" {
			format.FormatFirms(os.Stdout, m)
			return nil
		}
		return format.FormatJSON(os.Stdout, m)
	}

	// List mode: the whole set.
	switch getOutputFormat {
	case "json":
		return format.FormatJSON(os.Stdout, set)
	case "jsonl":
		return format.FormatJSONL(os.Stdout, set)
	default:
		format.FormatMaps(os.Stdout, set)
		return nil
	}
}

// fetchError turns client errors into actionable CLI errors.
func fetchError(err error) error {
	if errors.Is(err, mapclient.ErrRateLimited) {
		return printer.Error(
			"rate limited",
			"The server is rejecting requests from this client right now.",
			[]string{"Wait a minute and try again"},
		)
	}
	return printer.ErrorWithContext(
		"failed to reach server",
		err.Error(),
		map[string]string{"Server": serverURL},
		[]string{
			"Check that the mapboard server is running",
			"Point --server (or MAPBOARD_SERVER) at the right address",
		},
	)
}
