package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/roffe/canmux"
	"github.com/roffe/canmux/pkg/candump"
	"github.com/roffe/canmux/pkg/engine"
	"github.com/roffe/canmux/pkg/metrics"
	"github.com/roffe/canmux/pkg/signal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	flagListen = "listen"
	flagLog    = "log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the multiplexer on the bus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, nil)
	},
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagListen, ":9091", "metrics listen address, empty to disable")
	cmd.Flags().String(flagLog, "", "write all traffic to this candump log")
}

// runEngine opens the adapter and ticks the engine until the context ends or
// a worker fails. view, when set, runs alongside and ends the run when it
// returns.
func runEngine(cmd *cobra.Command, view func(ctx context.Context, store *signal.Store) error) error {
	gctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	period, err := cmd.Flags().GetDuration(flagTick)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)

	store, err := newStore(cmd)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if err := m.Register(); err != nil {
		return err
	}

	errg, ctx := errgroup.WithContext(gctx)

	client, err := openClient(ctx, cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	var transport canmux.Transport
	ct, err := client.Transport(ctx)
	if err != nil {
		return err
	}
	transport = ct
	if debug, _ := cmd.Flags().GetBool(flagDebug); debug {
		transport = canmux.NewLoggedTransport(transport, logger, slog.LevelDebug, canmux.LogAll)
	}

	if path, _ := cmd.Flags().GetString(flagLog); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w := candump.NewWriter(f, "can0")
		defer w.Flush()
		sub, err := client.Subscribe(ctx)
		if err != nil {
			return err
		}
		errg.Go(func() error {
			return logTraffic(ctx, w, sub)
		})
		transport = candump.TapSends(transport, w)
	}

	eng, err := engine.New(transport, store, engine.WithLogger(logger), engine.WithMetrics(m))
	if err != nil {
		return err
	}

	errg.Go(func() error {
		return eng.Run(ctx, period)
	})

	errg.Go(func() error {
		for {
			select {
			case err := <-client.Err():
				return fmt.Errorf("adapter: %w", err)
			case evt := <-client.Event():
				logger.Log(ctx, evt.Type.Level(), "adapter event", "details", evt.Details)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	if addr, _ := cmd.Flags().GetString(flagListen); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		errg.Go(func() error {
			log.Printf("metrics on http://%s/metrics", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		errg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if view != nil {
		errg.Go(func() error {
			defer cancel()
			return view(ctx, store)
		})
	}

	err = errg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// logTraffic writes every frame received from the bus to w.
func logTraffic(ctx context.Context, w *candump.Writer, sub *canmux.Subscriber) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-sub.Chan():
			if !ok {
				return nil
			}
			if err := w.Write(time.Now(), frame); err != nil {
				return err
			}
		}
	}
}
