package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapboard/mapboard/internal/printer"
	"github.com/mapboard/mapboard/pkg/mapstore"
)

var putCmd = &cobra.Command{
	Use:   "put FILE",
	Short: "Replace the server's map set from a JSON file",
	Long: `Replace the entire map set with the contents of a JSON file.

The file must hold the same shape 'mapboard get --output=json' produces:
an object keyed by map ID. The set is validated locally before anything
is sent, so a malformed file never reaches the server.

Pass '-' to read from stdin.

Examples:
  # Back up, edit, restore
  mapboard get --output=json > maps.json
  vi maps.json
  mapboard put maps.json

  # Pipe a transformed set straight back
  mapboard get --output=json | jq 'del(.CUAS)' | mapboard put -`,
	Args: cobra.ExactArgs(1),
	RunE: runPut,
}

func init() {
	rootCmd.AddCommand(putCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return printer.Error(
			"failed to read input",
			err.Error(),
			nil,
		)
	}

	var set mapstore.MapSet
	if err := json.Unmarshal(data, &set); err != nil {
		return printer.Error(
			"invalid JSON",
			fmt.Sprintf("The input is not a valid map set: %v", err),
			[]string{"The file must hold the object shape 'mapboard get --output=json' produces"},
		)
	}

	// Validate locally before touching the server.
	if err := mapstore.Validate(set); err != nil {
		return printer.Error(
			"invalid map set",
			err.Error(),
			[]string{"Every map needs an id, a name, a categories list, and a firms list"},
		)
	}

	if err := newClient().Save(context.Background(), set); err != nil {
		return fetchError(err)
	}

	printer.Success("Replaced map set (%d maps)\n", len(set))
	return nil
}
