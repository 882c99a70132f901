package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/jroimartin/gocui"
	"github.com/roffe/canmux/pkg/signal"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the multiplexer with a live signal view",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, watchView)
	},
}

func init() {
	addRunFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func watchView(ctx context.Context, store *signal.Store) error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return err
	}
	defer g.Close()

	g.SetManagerFunc(watchLayout)
	if err := watchKeybindings(g); err != nil {
		return err
	}

	go func() {
		t := time.NewTicker(200 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				g.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
				return
			case <-t.C:
				snap := store.Snapshot()
				g.Update(func(g *gocui.Gui) error {
					return renderSignals(g, snap)
				})
			}
		}
	}()

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

func watchLayout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	if v, err := g.SetView("params", 0, 0, 30, 6); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Parameters"
	}
	if v, err := g.SetView("help", 0, 7, 30, 12); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Help"
		fmt.Fprintln(v, "<Q, Ctrl-C> Quit")
		fmt.Fprintln(v, "<Up/Down> Scroll")
		fmt.Fprintln(v, color.RedString("red")+" = stale")
	}
	if v, err := g.SetView("signals", 31, 0, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Signals"
		if _, err := g.SetCurrentView("signals"); err != nil {
			return err
		}
	}
	return nil
}

func renderSignals(g *gocui.Gui, snap signal.Snapshot) error {
	v, err := g.View("signals")
	if err != nil {
		return err
	}
	v.Clear()
	for _, line := range signalLines(snap) {
		fmt.Fprintln(v, line)
	}

	p, err := g.View("params")
	if err != nil {
		return err
	}
	p.Clear()
	names := make([]string, 0, len(snap.Params))
	for name := range snap.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(p, "%-20s %d\n", name, snap.Params[name])
	}
	return nil
}

// signalLines renders one line per key, sorted. Keys that only carry a
// stale flag, such as request flags, show "-" as their value.
func signalLines(snap signal.Snapshot) []string {
	values := make(map[signal.Key]string, len(snap.Floats)+len(snap.Uints)+len(snap.Stale))
	for k, f := range snap.Floats {
		values[k] = fmt.Sprintf("%.3f", f)
	}
	for k, u := range snap.Uints {
		values[k] = fmt.Sprintf("%d (0x%X)", u, u)
	}
	for k := range snap.Stale {
		if _, ok := values[k]; !ok {
			values[k] = "-"
		}
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, name := range keys {
		k := signal.Key(name)
		lines[i] = signalLine(k, values[k], snap.Stale[k])
	}
	return lines
}

func signalLine(k signal.Key, value string, stale bool) string {
	line := fmt.Sprintf("%-42s %s", k, value)
	if stale {
		return color.RedString(line)
	}
	return line
}

func watchKeybindings(g *gocui.Gui) error {
	quit := func(g *gocui.Gui, v *gocui.View) error {
		return gocui.ErrQuit
	}
	if err := g.SetKeybinding("", 'q', gocui.ModNone, quit); err != nil {
		return err
	}
	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		return err
	}
	if err := g.SetKeybinding("signals", gocui.KeyArrowUp, gocui.ModNone,
		func(g *gocui.Gui, v *gocui.View) error {
			ox, oy := v.Origin()
			if oy > 0 {
				return v.SetOrigin(ox, oy-1)
			}
			return nil
		}); err != nil {
		return err
	}
	return g.SetKeybinding("signals", gocui.KeyArrowDown, gocui.ModNone,
		func(g *gocui.Gui, v *gocui.View) error {
			ox, oy := v.Origin()
			return v.SetOrigin(ox, oy+1)
		})
}
