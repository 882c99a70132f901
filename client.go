package canmux

import (
	"context"
	"fmt"
	"sync"
)

const defaultSubscriberBuffer = 1024

// Client owns an opened adapter and fans its incoming frames out to
// subscribers.
type Client struct {
	adapter   Adapter
	fh        *handler
	closeOnce sync.Once
}

// New opens the adapter and starts delivering its frames.
func New(ctx context.Context, adapter Adapter) (*Client, error) {
	if adapter == nil {
		return nil, ErrNilAdapter
	}
	if err := adapter.Open(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", adapter.Name(), err)
	}
	c := &Client{
		adapter: adapter,
		fh:      newHandler(adapter),
	}
	go c.fh.run(ctx)
	return c, nil
}

func (c *Client) Adapter() Adapter {
	return c.adapter
}

// Err returns the adapter's fatal error channel.
func (c *Client) Err() <-chan error {
	return c.adapter.Err()
}

// Event returns the adapter's event channel.
func (c *Client) Event() <-chan Event {
	return c.adapter.Event()
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.fh.stop()
		err = c.adapter.Close()
	})
	return err
}

// Send queues a frame without blocking. ErrBufferFull is returned when the
// adapter send queue is full.
func (c *Client) Send(frame CANFrame) error {
	if err := frame.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	frame.FrameType = Outgoing
	select {
	case c.adapter.Send() <- frame:
		return nil
	default:
		return ErrBufferFull
	}
}

// SendFrame is a short command to send a standard frame.
func (c *Client) SendFrame(identifier uint32, data []byte) error {
	return c.Send(NewFrame(identifier, data, Outgoing))
}

// Subscribe returns a subscriber receiving the given identifiers, or every
// frame when none are given. The subscription ends when ctx is done.
func (c *Client) Subscribe(ctx context.Context, identifiers ...uint32) (*Subscriber, error) {
	return c.SubscribeBuffered(ctx, defaultSubscriberBuffer, identifiers...)
}

func (c *Client) SubscribeBuffered(ctx context.Context, size int, identifiers ...uint32) (*Subscriber, error) {
	sub := &Subscriber{
		cl:           c,
		identifiers:  make(map[uint32]struct{}, len(identifiers)),
		responseChan: make(chan CANFrame, size),
	}
	for _, id := range identifiers {
		sub.identifiers[id] = struct{}{}
	}
	if err := c.fh.add(sub); err != nil {
		return nil, err
	}
	go func() {
		select {
		case <-ctx.Done():
		case <-c.fh.done:
		}
		sub.Close()
	}()
	return sub, nil
}

// Transport returns a non-blocking Transport reading from a dedicated
// subscriber and writing to the adapter. Filters configured on it are
// pushed to the adapter.
func (c *Client) Transport(ctx context.Context) (*ChannelTransport, error) {
	sub, err := c.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	return NewChannelTransport(sub.Chan(), c.adapter.Send(), c.adapter.SetFilter), nil
}
