package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mapboard/mapboard/internal/printer"
	"github.com/mapboard/mapboard/pkg/mapstore"
)

var (
	addFirmName        string
	addFirmCategory    string
	addFirmSubcategory string
	addFirmProduct     string
	addFirmDescription string
	addFirmLocation    string
)

var addFirmCmd = &cobra.Command{
	Use:   "add-firm MAP_ID",
	Short: "Add a firm to a market map",
	Long: `Add one firm to an existing market map.

The firm's category must already exist on the map; the editor treats the
category list as the map's column layout and a firm outside it would be
invisible.

Examples:
  mapboard add-firm CUAS --name "Acme Radar" --category Sensing --subcategory Radar
  mapboard add-firm CUAS --name "Beta Optics" --category Sensing --subcategory "EO/IR" --product "BO-7 gimbal"`,
	Args: cobra.ExactArgs(1),
	RunE: runAddFirm,
}

func init() {
	addFirmCmd.Flags().StringVar(&addFirmName, "name", "", "Firm name (required)")
	addFirmCmd.Flags().StringVar(&addFirmCategory, "category", "", "Category the firm belongs to (required)")
	addFirmCmd.Flags().StringVar(&addFirmSubcategory, "subcategory", "", "Subcategory within the category (required)")
	addFirmCmd.Flags().StringVar(&addFirmProduct, "product", "", "Product or offering")
	addFirmCmd.Flags().StringVar(&addFirmDescription, "description", "", "Short description")
	addFirmCmd.Flags().StringVar(&addFirmLocation, "location", "", "Headquarters location")
	addFirmCmd.MarkFlagRequired("name")
	addFirmCmd.MarkFlagRequired("category")
	addFirmCmd.MarkFlagRequired("subcategory")
	rootCmd.AddCommand(addFirmCmd)
}

func runAddFirm(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	mapID := args[0]

	client := newClient()
	set, err := client.Fetch(ctx)
	if err != nil {
		return fetchError(err)
	}

	m, ok := set[mapID]
	if !ok {
		return printer.ErrorWithContext(
			"map not found",
			fmt.Sprintf("The server has no market map with ID '%s'.", mapID),
			map[string]string{"Server": serverURL},
			[]string{"Run 'mapboard get' to list available maps"},
		)
	}

	if !m.HasCategory(addFirmCategory) {
		return printer.ErrorWithContext(
			"unknown category",
			fmt.Sprintf("Map '%s' has no category '%s'.", mapID, addFirmCategory),
			map[string]string{"Categories": fmt.Sprintf("%v", m.Categories)},
			[]string{"Use one of the map's existing categories"},
		)
	}

	firm := mapstore.Firm{
		// Millisecond timestamps are what the editor uses for firm IDs.
		ID:          strconv.FormatInt(time.Now().UnixMilli(), 10),
		Name:        addFirmName,
		Category:    addFirmCategory,
		Subcategory: addFirmSubcategory,
		Product:     addFirmProduct,
		Description: addFirmDescription,
		Location:    addFirmLocation,
	}

	m.Firms = append(m.Firms, firm)
	set[mapID] = m

	if err := client.Save(ctx, set); err != nil {
		return fetchError(err)
	}

	printer.Success("Added firm '%s' to map '%s' (id: %s)\n", firm.Name, mapID, firm.ID)
	return nil
}
