package canmux

import (
	"fmt"
	"log/slog"
)

// EventType grades an adapter notification.
type EventType int

const (
	EventTypeError EventType = iota
	EventTypeWarning
	EventTypeInfo
	EventTypeDebug
)

var eventTypeNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG"}

func (et EventType) String() string {
	if et < 0 || int(et) >= len(eventTypeNames) {
		return "UNKNOWN"
	}
	return eventTypeNames[et]
}

// Level maps the event type onto the slog level it is logged at.
func (et EventType) Level() slog.Level {
	switch et {
	case EventTypeError:
		return slog.LevelError
	case EventTypeWarning:
		return slog.LevelWarn
	case EventTypeInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Event is a non fatal adapter notification.
type Event struct {
	Type    EventType
	Details string
}

func (e Event) String() string {
	return fmt.Sprintf("[%s] %s", e.Type, e.Details)
}
