package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/roffe/canmux/pkg/signal"
	"github.com/spf13/cobra"
)

var paramCmd = &cobra.Command{
	Use:   "param",
	Short: "Persisted parameter commands",
}

var paramListCmd = &cobra.Command{
	Use:   "list",
	Short: "List parameters and their values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		values, err := db.Repository().All()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tVALUE\tMAX\tUPDATED\tDESCRIPTION")
		for _, v := range values {
			updated := "-"
			if !v.UpdatedAt.IsZero() {
				updated = v.UpdatedAt.Local().Format(time.DateTime)
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", v.Name, v.Value, v.Max, updated, v.Description)
		}
		return w.Flush()
	},
}

var paramGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a parameter value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := signal.ParseParam(args[0])
		if err != nil {
			return err
		}
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		v, err := db.Repository().Get(p)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var paramSetCmd = &cobra.Command{
	Use:   "set <name> <value>",
	Short: "Store a parameter value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := signal.ParseParam(args[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[1], err)
		}
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		change, err := db.Repository().Set(p, uint32(v))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d -> %d (%s)\n", change.Name, change.OldValue, change.NewValue, change.ID)
		return nil
	},
}

var paramHistoryCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Show the change history of a parameter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := signal.ParseParam(args[0])
		if err != nil {
			return err
		}
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		changes, err := db.Repository().History(p, limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTIME\tOLD\tNEW")
		for _, c := range changes {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", c.ID, c.CreatedAt.Local().Format(time.DateTime), c.OldValue, c.NewValue)
		}
		return w.Flush()
	},
}

func init() {
	paramHistoryCmd.Flags().IntP("limit", "n", 20, "number of changes to show, 0 for all")
	paramCmd.AddCommand(paramListCmd, paramGetCmd, paramSetCmd, paramHistoryCmd)
	rootCmd.AddCommand(paramCmd)
}
