package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mapboard/mapboard/internal/printer"
	"github.com/mapboard/mapboard/pkg/mapstore"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow live map set updates",
	Long: `Follow the server's update stream and print a summary line for each
change, the same events the browser editor reacts to.

The stream reconnects automatically; if it keeps failing the command falls
back to polling and keeps reporting changes. Press Ctrl+C to stop.

Examples:
  mapboard watch`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher := newClient().Watch(ctx)
	defer watcher.Close()

	printer.Info("Watching %s for updates (Ctrl+C to stop)...\n", serverURL)

	for {
		select {
		case <-ctx.Done():
			printer.Info("\nStopped watching\n")
			return nil
		case set, ok := <-watcher.Events():
			if !ok {
				printer.Info("\nStream ended\n")
				return nil
			}
			printUpdate(set)
		case err, ok := <-watcher.Errors():
			if !ok {
				continue
			}
			printer.Warning("%v\n", err)
		}
	}
}

func printUpdate(set mapstore.MapSet) {
	firms := 0
	for _, m := range set {
		firms += len(m.Firms)
	}
	printer.Info("[%s] update: %d maps, %d firms\n",
		time.Now().Format("15:04:05"), len(set), firms)
}
