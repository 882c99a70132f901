package cmd

import (
	"fmt"
	"os"

	"github.com/roffe/canmux"
	"github.com/roffe/canmux/pkg/bar"
	"github.com/roffe/canmux/pkg/candump"
	"github.com/roffe/canmux/pkg/replay"
	"github.com/roffe/canmux/pkg/signal"
	"github.com/spf13/cobra"
)

const (
	flagPrint    = "print"
	flagTail     = "tail"
	flagRealtime = "realtime"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Feed a candump log through the multiplexer offline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		printFrames, _ := cmd.Flags().GetBool(flagPrint)
		store, res, err := replayFile(cmd, args[0], printFrames)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d ticks, %d frames received, %d frames sent, %d signals\n",
			res.Ticks, res.Received, res.Sent, len(store.Keys()))
		return nil
	},
}

func init() {
	addReplayFlags(replayCmd)
	replayCmd.Flags().Bool(flagPrint, false, "print transmitted frames")
	rootCmd.AddCommand(replayCmd)
}

func addReplayFlags(cmd *cobra.Command) {
	cmd.Flags().Duration(flagTail, 0, "keep ticking this long after the last record")
	cmd.Flags().Bool(flagRealtime, false, "replay at wall clock speed")
}

func replayFile(cmd *cobra.Command, path string, printFrames bool) (*signal.Store, replay.Result, error) {
	var res replay.Result
	f, err := os.Open(path)
	if err != nil {
		return nil, res, err
	}
	records, err := candump.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, res, fmt.Errorf("%s: %w", path, err)
	}

	store, err := newStore(cmd)
	if err != nil {
		return nil, res, err
	}
	period, _ := cmd.Flags().GetDuration(flagTick)
	tail, _ := cmd.Flags().GetDuration(flagTail)
	realtime, _ := cmd.Flags().GetBool(flagRealtime)

	opts := replay.Options{
		Bus:      store,
		Tick:     period,
		Tail:     tail,
		Realtime: realtime,
		Logger:   newLogger(cmd),
	}
	out := cmd.OutOrStdout()
	if printFrames {
		opts.Sent = func(tick uint64, f canmux.CANFrame) {
			fmt.Fprintf(out, "%8d %s\n", tick, f.ColorString())
		}
	} else {
		pb := bar.New(len(records), "replay")
		defer pb.Finish()
		opts.Fed = func(n int) {
			pb.Add(n)
		}
	}

	res, err = replay.Play(cmd.Context(), records, opts)
	return store, res, err
}
