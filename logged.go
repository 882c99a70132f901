package canmux

import (
	"context"
	"log/slog"
)

// LogOption is a bitmask for selecting which operations to log.
type LogOption uint8

const (
	LogNone  LogOption = 0
	LogRead  LogOption = 1 << iota
	LogWrite
	LogAll = LogRead | LogWrite
)

// NewLoggedTransport wraps the given Transport and logs selected operations
// at the given level. Errors are always logged at error level when the
// operation is selected.
func NewLoggedTransport(inner Transport, logger *slog.Logger, level slog.Level, opts LogOption) Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &loggedTransport{
		inner:  inner,
		logger: logger,
		level:  level,
		opts:   opts,
	}
}

type loggedTransport struct {
	inner  Transport
	logger *slog.Logger
	level  slog.Level
	opts   LogOption
}

func (l *loggedTransport) Receive() (CANFrame, bool) {
	f, ok := l.inner.Receive()
	if ok && l.opts&LogRead != 0 {
		l.logger.Log(context.Background(), l.level, "can receive",
			"id", f.Identifier,
			"extended", f.Extended,
			"rtr", f.RTR,
			"len", int(f.DLC),
			"data", f.Payload(),
		)
	}
	return f, ok
}

func (l *loggedTransport) Send(f CANFrame) error {
	if l.opts&LogWrite != 0 {
		l.logger.Log(context.Background(), l.level, "can send",
			"id", f.Identifier,
			"extended", f.Extended,
			"rtr", f.RTR,
			"len", int(f.DLC),
			"data", f.Payload(),
		)
	}
	err := l.inner.Send(f)
	if l.opts&LogWrite != 0 && err != nil {
		l.logger.Log(context.Background(), slog.LevelError, "can send error",
			"id", f.Identifier,
			"error", err,
		)
	}
	return err
}

func (l *loggedTransport) ConfigureFilters(bank int, ids []FilterID) error {
	err := l.inner.ConfigureFilters(bank, ids)
	if err != nil {
		l.logger.Error("can filter bank rejected", "bank", bank, "ids", ids, "error", err)
		return err
	}
	l.logger.Info("can filter bank configured", "bank", bank, "ids", ids)
	return nil
}
