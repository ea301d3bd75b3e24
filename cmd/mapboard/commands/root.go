package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapboard/mapboard/pkg/mapclient"
)

var (
	version string
	commit  string
	date    string
)

var serverURL string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mapboard",
	Short: "Mapboard - collaborative market map editor",
	Long: `Mapboard is the command-line client for the mapboard server, a
collaborative editor for market maps: named groupings of firms organised
into categories and subcategories.

Every command talks to one server over its HTTP API; live commands follow
the same update stream the browser editor uses.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	defaultServer := os.Getenv("MAPBOARD_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServer, "Mapboard server URL (env: MAPBOARD_SERVER)")
}

// newClient builds an API client for the configured server.
func newClient() *mapclient.Client {
	return mapclient.New(serverURL)
}
