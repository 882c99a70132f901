package cmd

import (
	"context"
	"time"

	"github.com/roffe/canmux/pkg/jsoncodec"
	"github.com/roffe/canmux/pkg/signal"
	"github.com/spf13/cobra"
)

const flagFor = "for"

var signalsCmd = &cobra.Command{
	Use:   "signals [file]",
	Short: "Print a JSON snapshot of every signal",
	Long: `Replays the given candump log, or runs on the bus for --for when no
file is given, and prints the resulting signal values and stale flags.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var snap signal.Snapshot
		if len(args) == 1 {
			store, _, err := replayFile(cmd, args[0], false)
			if err != nil {
				return err
			}
			snap = store.Snapshot()
		} else {
			d, _ := cmd.Flags().GetDuration(flagFor)
			err := runEngine(cmd, func(ctx context.Context, store *signal.Store) error {
				select {
				case <-time.After(d):
				case <-ctx.Done():
				}
				snap = store.Snapshot()
				return nil
			})
			if err != nil {
				return err
			}
		}
		return jsoncodec.Encode(cmd.OutOrStdout(), snap)
	},
}

func init() {
	addRunFlags(signalsCmd)
	addReplayFlags(signalsCmd)
	signalsCmd.Flags().Duration(flagFor, 5*time.Second, "how long to run on the bus")
	rootCmd.AddCommand(signalsCmd)
}
