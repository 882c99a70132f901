package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/roffe/canmux"
	"github.com/spf13/cobra"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List adapters and serial ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		bold := color.New(color.Bold)
		bold.Fprintln(out, "Adapters:")
		for _, a := range canmux.ListAdapters() {
			fmt.Fprintf(out, "  %s\n", a.String())
		}

		bold.Fprintln(out, "Serial ports:")
		ports, err := listPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Fprintln(out, "  none")
		}
		for _, p := range ports {
			fmt.Fprintf(out, "  %s\n", p.Name)
			if p.IsUSB {
				fmt.Fprintf(out, "     USB ID      %s:%s\n", p.VID, p.PID)
				fmt.Fprintf(out, "     USB serial  %s\n", p.SerialNumber)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adaptersCmd)
}
