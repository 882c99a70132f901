package canmux

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
)

type Adapter interface {
	Name() string
	Open(context.Context) error
	Close() error
	Send() chan<- CANFrame
	Recv() <-chan CANFrame
	Err() <-chan error
	Event() <-chan Event
	// SetFilter restricts delivered frames to the given identifiers. An
	// empty list accepts everything.
	SetFilter([]FilterID) error
}

type AdapterInfo struct {
	Name               string
	Description        string
	RequiresSerialPort bool
	New                func(*AdapterConfig) (Adapter, error)
}

func (a *AdapterInfo) String() string {
	return fmt.Sprintf("%s | %s, requires serial port: %v", a.Name, a.Description, a.RequiresSerialPort)
}

type AdapterConfig struct {
	Debug        bool
	Port         string
	PortBaudrate int
	CANRate      float64 // kbit/s
	CANFilter    []FilterID
	OnMessage    func(string)
}

var (
	adapterMu  sync.RWMutex
	adapterMap = make(map[string]*AdapterInfo)
)

func NewAdapter(adapterName string, cfg *AdapterConfig) (Adapter, error) {
	if cfg == nil {
		cfg = &AdapterConfig{}
	}
	if cfg.OnMessage == nil {
		cfg.OnMessage = func(msg string) {
			_, file, no, ok := runtime.Caller(1)
			if ok {
				log.Printf("%s#%d %v", filepath.Base(file), no, msg)
			} else {
				log.Println(msg)
			}
		}
	}
	adapterMu.RLock()
	adapter, found := adapterMap[adapterName]
	adapterMu.RUnlock()
	if found {
		return adapter.New(cfg)
	}
	return nil, fmt.Errorf("unknown adapter %q", adapterName)
}

func RegisterAdapter(adapter *AdapterInfo) error {
	adapterMu.Lock()
	defer adapterMu.Unlock()
	if _, found := adapterMap[adapter.Name]; !found {
		adapterMap[adapter.Name] = adapter
		return nil
	}
	return fmt.Errorf("adapter %s already registered", adapter.Name)
}

// GetAdapterInfo returns the registration for name.
func GetAdapterInfo(name string) (AdapterInfo, bool) {
	adapterMu.RLock()
	defer adapterMu.RUnlock()
	a, ok := adapterMap[name]
	if !ok {
		return AdapterInfo{}, false
	}
	return *a, true
}

func ListAdapterNames() []string {
	adapterMu.RLock()
	defer adapterMu.RUnlock()
	var out []string
	for name := range adapterMap {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

func ListAdapters() []AdapterInfo {
	var out []AdapterInfo
	for _, name := range ListAdapterNames() {
		if a, ok := GetAdapterInfo(name); ok {
			out = append(out, a)
		}
	}
	return out
}
