//go:build linux

package canmux

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"go.einride.tech/can/pkg/candevice"
	"go.einride.tech/can/pkg/socketcan"
)

func init() {
	for _, dev := range FindDevices() {
		if err := RegisterAdapter(&AdapterInfo{
			Name:               "SocketCAN " + dev,
			Description:        "Linux SocketCAN interface " + dev,
			RequiresSerialPort: false,
			New:                NewSocketCANFromDevName(dev),
		}); err != nil {
			panic(err)
		}
	}
}

type SocketCAN struct {
	*BaseAdapter
	d    *candevice.Device
	conn net.Conn
	tx   *socketcan.Transmitter
	rx   *socketcan.Receiver

	mu      sync.RWMutex
	filters filterSet
}

func NewSocketCANFromDevName(dev string) func(cfg *AdapterConfig) (Adapter, error) {
	return func(cfg *AdapterConfig) (Adapter, error) {
		cfg.Port = dev
		return NewSocketCAN(cfg)
	}
}

func NewSocketCAN(cfg *AdapterConfig) (Adapter, error) {
	return &SocketCAN{
		BaseAdapter: NewBaseAdapter("SocketCAN", cfg),
		filters:     newFilterSet(cfg.CANFilter),
	}, nil
}

// SetFilter filters in software, the einride receiver has no kernel filter
// support.
func (a *SocketCAN) SetFilter(ids []FilterID) error {
	a.mu.Lock()
	a.filters = newFilterSet(ids)
	a.mu.Unlock()
	return nil
}

func (a *SocketCAN) Open(ctx context.Context) error {
	// vcan and interfaces configured by the system have no settable
	// bitrate, only bring the link up when a rate is requested
	if a.cfg.CANRate > 0 {
		d, err := candevice.New(a.cfg.Port)
		if err != nil {
			return fmt.Errorf("socketcan device %s: %w", a.cfg.Port, err)
		}
		if err := d.SetBitrate(uint32(a.cfg.CANRate * 1000)); err != nil {
			return fmt.Errorf("socketcan bitrate: %w", err)
		}
		if err := d.SetUp(); err != nil {
			return fmt.Errorf("socketcan up: %w", err)
		}
		a.d = d
	}

	conn, err := socketcan.DialContext(ctx, "can", a.cfg.Port)
	if err != nil {
		return fmt.Errorf("socketcan dial %s: %w", a.cfg.Port, err)
	}
	a.conn = conn
	a.tx = socketcan.NewTransmitter(conn)
	a.rx = socketcan.NewReceiver(conn)

	go a.recvManager()
	go a.sendManager(ctx)
	return nil
}

func (a *SocketCAN) Close() error {
	a.BaseAdapter.Close()
	var err error
	if a.conn != nil {
		err = a.conn.Close()
	}
	if a.d != nil {
		if derr := a.d.SetDown(); derr != nil && err == nil {
			err = derr
		}
	}
	return err
}

func (a *SocketCAN) recvManager() {
	for a.rx.Receive() {
		if a.rx.HasErrorFrame() {
			a.Warn(fmt.Sprintf("error frame: %v", a.rx.ErrorFrame()))
			continue
		}
		f := FromEinrideFrame(a.rx.Frame(), Incoming)
		a.mu.RLock()
		ok := a.filters.accepts(f)
		a.mu.RUnlock()
		if ok {
			a.deliver(f)
		}
	}
	if err := a.rx.Err(); err != nil && !a.closed() {
		a.Fatal(Unrecoverable(fmt.Errorf("socketcan receive: %w", err)))
	}
}

func (a *SocketCAN) sendManager(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.closeChan:
			return
		case f := <-a.sendChan:
			if err := a.tx.TransmitFrame(ctx, f.EinrideFrame()); err != nil {
				a.Error(fmt.Errorf("send error: %w", err))
			}
		}
	}
}

// FindDevices lists network interfaces that look like CAN interfaces.
func FindDevices() (dev []string) {
	iFaces, _ := net.Interfaces()
	for _, i := range iFaces {
		if strings.Contains(i.Name, "can") {
			dev = append(dev, i.Name)
		}
	}
	return
}
