package canmux

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

type SLCan struct {
	*BaseAdapter
	port    serial.Port
	mu      sync.RWMutex
	filters filterSet
}

func init() {
	if err := RegisterAdapter(&AdapterInfo{
		Name:               "SLCan",
		Description:        "Canable/Lawicel SLCan adapter",
		RequiresSerialPort: true,
		New:                NewSLCan,
	}); err != nil {
		panic(err)
	}
}

func NewSLCan(cfg *AdapterConfig) (Adapter, error) {
	sl := &SLCan{
		BaseAdapter: NewBaseAdapter("SLCan", cfg),
		filters:     newFilterSet(cfg.CANFilter),
	}
	return sl, nil
}

// slcanBitrates maps kbit/s to the S command digit.
var slcanBitrates = map[float64]byte{
	10:   '0',
	20:   '1',
	50:   '2',
	100:  '3',
	125:  '4',
	250:  '5',
	500:  '6',
	800:  '7',
	1000: '8',
}

func (sl *SLCan) Open(ctx context.Context) error {
	rate, ok := slcanBitrates[sl.cfg.CANRate]
	if !ok {
		return fmt.Errorf("%w: unsupported CAN rate %.3f kbit/s", ErrInvalidValue, sl.cfg.CANRate)
	}
	mode := &serial.Mode{
		BaudRate: sl.cfg.PortBaudrate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(sl.cfg.Port, mode)
	if err != nil {
		return fmt.Errorf("failed to open com port %q : %v", sl.cfg.Port, err)
	}
	if err := p.SetReadTimeout(3 * time.Millisecond); err != nil {
		p.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}
	sl.port = p

	p.ResetOutputBuffer()
	p.ResetInputBuffer()

	// close any open channel before configuring it
	for _, cmd := range []string{"C", "S" + string(rate), "O"} {
		if _, err := p.Write([]byte(cmd + "\r")); err != nil {
			p.Close()
			return fmt.Errorf("failed to write %q: %w", cmd, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	go sl.sendManager(ctx)
	go sl.recvManager(ctx)
	return nil
}

// SetFilter filters in software, the hardware acceptance mask of SLCan
// devices cannot express an identifier list.
func (sl *SLCan) SetFilter(ids []FilterID) error {
	sl.mu.Lock()
	sl.filters = newFilterSet(ids)
	sl.mu.Unlock()
	return nil
}

func (sl *SLCan) Close() error {
	sl.BaseAdapter.Close()
	if sl.port == nil {
		return nil
	}
	time.Sleep(10 * time.Millisecond)
	sl.port.Write([]byte("C\r"))
	time.Sleep(10 * time.Millisecond)
	return sl.port.Close()
}

func (sl *SLCan) recvManager(ctx context.Context) {
	buf := make([]byte, 0, 64)
	readBuf := make([]byte, 32)
	for ctx.Err() == nil {
		n, err := sl.port.Read(readBuf)
		if err != nil {
			if !sl.closed() {
				sl.Fatal(Unrecoverable(fmt.Errorf("failed to read com port: %w", err)))
			}
			return
		}
		if n == 0 {
			continue
		}
		buf = sl.parse(buf, readBuf[:n])
	}
}

func (sl *SLCan) sendManager(ctx context.Context) {
	outBuf := make([]byte, 0, 32)
	status := time.NewTicker(slcanStatusInterval)
	defer status.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sl.closeChan:
			return
		case <-status.C:
			if _, err := sl.port.Write([]byte("F\r")); err != nil {
				sl.Error(fmt.Errorf("failed to write to com port: %w", err))
			}
		case frame := <-sl.sendChan:
			outBuf = encodeSLCan(outBuf[:0], frame)
			if _, err := sl.port.Write(outBuf); err != nil {
				sl.Error(fmt.Errorf("failed to write to com port: %w", err))
				continue
			}
			if sl.cfg.Debug {
				log.Println(">> " + string(outBuf[:len(outBuf)-1]))
			}
		}
	}
}

// parse processes the read data and returns any remaining partial data.
func (sl *SLCan) parse(buf, readBuf []byte) []byte {
	for _, b := range readBuf {
		switch b {
		case '\r':
			if len(buf) == 0 {
				continue
			}
			sl.handleLine(buf)
			buf = buf[:0]
		case 0x07:
			sl.Warn("adapter rejected command")
			buf = buf[:0]
		default:
			buf = append(buf, b)
		}
	}
	return buf
}

func (sl *SLCan) handleLine(line []byte) {
	switch line[0] {
	case 't', 'T', 'r', 'R':
		if sl.cfg.Debug {
			log.Printf("<< %s", string(line))
		}
		f, err := decodeSLCan(line)
		if err != nil {
			sl.Warn(fmt.Sprintf("%v: %q", err, line))
			return
		}
		sl.mu.RLock()
		ok := sl.filters.accepts(f)
		sl.mu.RUnlock()
		if ok {
			sl.deliver(f)
		}
	case 'z', 'Z':
		// transmit acknowledgements
	case 'F':
		st, err := parseSLCanStatus(line)
		if err != nil {
			sl.Warn(fmt.Sprintf("%v: %q", err, line))
			return
		}
		if st != 0 {
			sl.Warn("adapter status: " + st.String())
		}
	default:
		sl.Debug("unknown << " + string(line))
	}
}

var errSLCanLine = errors.New("malformed slcan frame")

const slcanStatusInterval = time.Second

// SLCanStatus holds the flags of the F command reply.
type SLCanStatus uint8

var slcanStatusBits = [8]string{
	"receive FIFO full",
	"transmit FIFO full",
	"error warning",
	"data overrun",
	"",
	"error passive",
	"arbitration lost",
	"bus error",
}

func (s SLCanStatus) String() string {
	if s == 0 {
		return "ok"
	}
	var parts []string
	for i, name := range slcanStatusBits {
		if s&(1<<i) != 0 && name != "" {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("flags %02X", uint8(s))
	}
	return strings.Join(parts, ", ")
}

func parseSLCanStatus(line []byte) (SLCanStatus, error) {
	if len(line) != 3 || line[0] != 'F' {
		return 0, errSLCanLine
	}
	v, err := strconv.ParseUint(string(line[1:]), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errSLCanLine, err)
	}
	return SLCanStatus(v), nil
}

// encodeSLCan appends the ASCII form of frame terminated by CR:
// t iii l dd.. for standard data frames, T iiiiiiii l dd.. for extended,
// r/R for remote requests.
func encodeSLCan(buf []byte, frame CANFrame) []byte {
	var cmd byte
	idLen := 3
	switch {
	case frame.Extended && frame.RTR:
		cmd, idLen = 'R', 8
	case frame.Extended:
		cmd, idLen = 'T', 8
	case frame.RTR:
		cmd = 'r'
	default:
		cmd = 't'
	}
	buf = append(buf, cmd)
	id := frame.Identifier
	for i := idLen - 1; i >= 0; i-- {
		buf = append(buf, nybbleToHex(byte(id>>(4*uint(i)))&0xF))
	}
	dlc := min(frame.DLC, 8)
	buf = append(buf, nybbleToHex(dlc))
	if !frame.RTR {
		for _, b := range frame.Data[:dlc] {
			buf = append(buf, nybbleToHex(b>>4), nybbleToHex(b&0xF))
		}
	}
	return append(buf, '\r')
}

// helper converts a 0..15 value to its ASCII hex nibble
func nybbleToHex(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'A' + (n - 10)
}

func decodeSLCan(line []byte) (CANFrame, error) {
	var f CANFrame
	idLen := 3
	switch line[0] {
	case 'T':
		f.Extended, idLen = true, 8
	case 'r':
		f.RTR = true
	case 'R':
		f.Extended, f.RTR, idLen = true, true, 8
	}
	if len(line) < 1+idLen+1 {
		return f, errSLCanLine
	}
	id, err := strconv.ParseUint(string(line[1:1+idLen]), 16, 32)
	if err != nil {
		return f, fmt.Errorf("failed to decode identifier: %v", err)
	}
	f.Identifier = uint32(id)
	dlc, err := strconv.ParseUint(string(line[1+idLen]), 16, 8)
	if err != nil {
		return f, fmt.Errorf("failed to decode data length: %v", err)
	}
	if dlc > 8 {
		return f, fmt.Errorf("invalid data length: %d", dlc)
	}
	f.DLC = uint8(dlc)
	if !f.RTR {
		body := line[2+idLen:]
		if len(body) < int(dlc)*2 {
			return f, errSLCanLine
		}
		for i := 0; i < int(dlc); i++ {
			b, err := strconv.ParseUint(string(body[i*2:i*2+2]), 16, 8)
			if err != nil {
				return f, fmt.Errorf("failed to decode frame body: %v", err)
			}
			f.Data[i] = byte(b)
		}
	}
	f.FrameType = Incoming
	return f, f.Validate()
}
