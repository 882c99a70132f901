package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/roffe/canmux/pkg/paramdb"
	"github.com/roffe/canmux/pkg/signal"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "canmux",
	Short:        "CAN signal multiplexer",
	Long:         `Decodes vehicle CAN traffic into named signals and transmits the periodic status frames built from them`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

const (
	flagAdapter  = "adapter"
	flagPort     = "port"
	flagBaudrate = "baudrate"
	flagCANRate  = "canrate"
	flagDebug    = "debug"
	flagDB       = "db"
	flagTick     = "tick"
)

func init() {
	log.SetFlags(log.Lshortfile | log.LstdFlags)

	pf := rootCmd.PersistentFlags()
	pf.StringP(flagAdapter, "a", "SLCan", "what adapter to use, * = choose")
	pf.StringP(flagPort, "p", "*", "com-port, * = choose")
	pf.IntP(flagBaudrate, "b", 115200, "serial baudrate")
	pf.Float64P(flagCANRate, "c", 500, "CAN rate in kbit/s")
	pf.BoolP(flagDebug, "d", false, "debug mode")
	pf.String(flagDB, "canmux.db", "parameter database, :memory: for none")
	pf.Duration(flagTick, time.Millisecond, "engine tick period")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool(flagDebug); debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openDB(cmd *cobra.Command) (*paramdb.DB, error) {
	path, err := cmd.Flags().GetString(flagDB)
	if err != nil {
		return nil, err
	}
	var l *log.Logger
	if debug, _ := cmd.Flags().GetBool(flagDebug); debug {
		l = log.Default()
	}
	db, err := paramdb.Open(paramdb.Config{Path: path}, l)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}

// newStore returns a signal store with the persisted parameters loaded.
func newStore(cmd *cobra.Command) (*signal.Store, error) {
	db, err := openDB(cmd)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	store := signal.NewStore()
	if err := db.Repository().Load(store); err != nil {
		return nil, err
	}
	return store, nil
}
