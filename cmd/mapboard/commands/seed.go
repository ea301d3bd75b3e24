package commands

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mapboard/mapboard/internal/printer"
	"github.com/mapboard/mapboard/pkg/mapstore"
)

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Reset the server to the built-in starter map set",
	Long: `Replace the server's map set with the built-in starter data, the same
set a fresh server initialises itself with.

Refuses to overwrite existing data unless --force is given.

Examples:
  # Seed an empty server
  mapboard seed

  # Throw away current data and start over
  mapboard seed --force`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVarP(&seedForce, "force", "f", false, "Overwrite existing maps")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client := newClient()

	if !seedForce {
		set, err := client.Fetch(ctx)
		if err != nil {
			return fetchError(err)
		}
		if len(set) > 0 {
			return printer.ErrorWithContext(
				"server already has data",
				"Seeding would overwrite the existing map set.",
				map[string]string{"Maps": strconv.Itoa(len(set))},
				[]string{"Re-run with --force to overwrite"},
			)
		}
	}

	seed := mapstore.Seed()
	if err := client.Save(ctx, seed); err != nil {
		return fetchError(err)
	}

	printer.Success("Seeded server with %d starter maps\n", len(seed))
	return nil
}
