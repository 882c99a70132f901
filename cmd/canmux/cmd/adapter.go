package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/avast/retry-go"
	"github.com/manifoldco/promptui"
	"github.com/roffe/canmux"
	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

func listPorts() ([]*enumerator.PortDetails, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}

func chooseAdapter() (string, error) {
	names := canmux.ListAdapterNames()
	if len(names) == 0 {
		return "", errors.New("no adapters registered")
	}
	prompt := promptui.Select{
		Label: "Adapter",
		Items: names,
	}
	_, result, err := prompt.Run()
	return result, err
}

func choosePort() (string, error) {
	ports, err := listPorts()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", errors.New("no serial ports found")
	}
	items := make([]string, len(ports))
	for i, p := range ports {
		items[i] = p.Name
		if p.IsUSB {
			items[i] = fmt.Sprintf("%s (USB %s:%s %s)", p.Name, p.VID, p.PID, p.SerialNumber)
		}
	}
	prompt := promptui.Select{
		Label: "Serial port",
		Items: items,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return ports[idx].Name, nil
}

// adapterConfig resolves the adapter flags, prompting for anything left as *.
func adapterConfig(cmd *cobra.Command) (string, *canmux.AdapterConfig, error) {
	f := cmd.Flags()
	name, err := f.GetString(flagAdapter)
	if err != nil {
		return "", nil, err
	}
	if name == "*" {
		if name, err = chooseAdapter(); err != nil {
			return "", nil, err
		}
	}
	info, ok := canmux.GetAdapterInfo(name)
	if !ok {
		return "", nil, fmt.Errorf("unknown adapter %q", name)
	}

	cfg := &canmux.AdapterConfig{}
	cfg.Debug, _ = f.GetBool(flagDebug)
	cfg.PortBaudrate, _ = f.GetInt(flagBaudrate)
	cfg.CANRate, _ = f.GetFloat64(flagCANRate)
	cfg.Port, _ = f.GetString(flagPort)
	if info.RequiresSerialPort && cfg.Port == "*" {
		if cfg.Port, err = choosePort(); err != nil {
			return "", nil, err
		}
	}
	return name, cfg, nil
}

// openClient opens the configured adapter, retrying transient failures.
func openClient(ctx context.Context, cmd *cobra.Command) (*canmux.Client, error) {
	name, cfg, err := adapterConfig(cmd)
	if err != nil {
		return nil, err
	}
	var c *canmux.Client
	err = retry.Do(
		func() error {
			dev, err := canmux.NewAdapter(name, cfg)
			if err != nil {
				return canmux.Unrecoverable(err)
			}
			c, err = canmux.New(ctx, dev)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(canmux.IsRecoverable),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("open %s failed, attempt %d: %v", name, n+1, err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
