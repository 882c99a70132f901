// Package candump reads and writes can-utils log files:
//
//	(1436509052.249713) can0 171#0040000000000000
package candump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/roffe/canmux"
	"go.einride.tech/can"
)

var ErrSyntax = errors.New("candump: invalid line")

// Record is one logged frame.
type Record struct {
	Time      time.Time
	Interface string
	Frame     canmux.CANFrame
}

func (r Record) String() string {
	us := r.Time.UnixMicro()
	return fmt.Sprintf("(%d.%06d) %s %s", us/1e6, us%1e6, r.Interface, r.Frame.EinrideFrame().String())
}

// ParseRecord parses one log line. Frames are marked Incoming.
func ParseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("%w: %q", ErrSyntax, line)
	}
	ts, err := parseTimestamp(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	var ef can.Frame
	if err := ef.UnmarshalString(fields[2]); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if id, _, ok := strings.Cut(fields[2], "#"); ok && len(id) == 8 {
		ef.IsExtended = true
	}
	return Record{
		Time:      ts,
		Interface: fields[1],
		Frame:     canmux.FromEinrideFrame(ef, canmux.Incoming),
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if len(s) < 3 || s[0] != '(' || s[len(s)-1] != ')' {
		return time.Time{}, fmt.Errorf("timestamp %q", s)
	}
	secStr, fracStr, _ := strings.Cut(s[1:len(s)-1], ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	var nsec int64
	if fracStr != "" {
		if len(fracStr) > 9 {
			fracStr = fracStr[:9]
		}
		n, err := strconv.ParseInt(fracStr, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		for i := len(fracStr); i < 9; i++ {
			n *= 10
		}
		nsec = n
	}
	return time.Unix(sec, nsec), nil
}

// Reader reads records line by line. Empty lines and lines starting with
// '#' are skipped.
type Reader struct {
	sc   *bufio.Scanner
	line int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{sc: bufio.NewScanner(r)}
}

// Next returns the next record, or io.EOF at the end of input.
func (r *Reader) Next() (Record, error) {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rec, err := ParseRecord(text)
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return rec, nil
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, io.EOF
}

// ReadAll reads every record.
func ReadAll(r io.Reader) ([]Record, error) {
	rd := NewReader(r)
	var out []Record
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Writer appends records to w. It is safe for concurrent use.
type Writer struct {
	mu    sync.Mutex
	w     *bufio.Writer
	iface string
}

func NewWriter(w io.Writer, iface string) *Writer {
	return &Writer{w: bufio.NewWriter(w), iface: iface}
}

func (w *Writer) Write(t time.Time, f canmux.CANFrame) error {
	rec := Record{Time: t, Interface: w.iface, Frame: f}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.w.WriteString(rec.String() + "\n")
	return err
}

func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Flush()
}
