package candump

import (
	"log"
	"time"

	"github.com/roffe/canmux"
)

// TapSends returns a Transport that also writes every frame t accepts for
// sending to w. Frames t refuses are not logged.
func TapSends(t canmux.Transport, w *Writer) canmux.Transport {
	return &sendTap{Transport: t, w: w, now: time.Now}
}

type sendTap struct {
	canmux.Transport
	w   *Writer
	now func() time.Time
}

func (s *sendTap) Send(f canmux.CANFrame) error {
	if err := s.Transport.Send(f); err != nil {
		return err
	}
	if err := s.w.Write(s.now(), f); err != nil {
		log.Printf("candump: %v", err)
	}
	return nil
}
