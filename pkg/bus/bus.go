package bus

import (
	"context"
	"errors"
	"sync"
)

var ErrBusClosed = errors.New("message bus closed")

// MessageBus is a bounded queue of inbound events between channels and the
// dispatcher.
type MessageBus struct {
	inbound chan InboundMessage
	done    chan struct{}
	once    sync.Once
}

func NewMessageBus(buffer int) *MessageBus {
	if buffer < 0 {
		buffer = 0
	}
	return &MessageBus{
		inbound: make(chan InboundMessage, buffer),
		done:    make(chan struct{}),
	}
}

// PublishInbound enqueues msg, blocking while the queue is full.
func (b *MessageBus) PublishInbound(ctx context.Context, msg InboundMessage) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}
	select {
	case b.inbound <- msg:
		return nil
	case <-b.done:
		return ErrBusClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConsumeInbound returns the next event. ok is false once ctx is done or the
// bus is closed.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (msg InboundMessage, ok bool) {
	select {
	case msg = <-b.inbound:
		return msg, true
	case <-b.done:
		return InboundMessage{}, false
	case <-ctx.Done():
		return InboundMessage{}, false
	}
}

// Close stops the bus. Events still queued are dropped.
func (b *MessageBus) Close() {
	b.once.Do(func() { close(b.done) })
}
