// Package bus routes messages between channel adapters and the reply
// pipeline.
package bus

import (
	"context"
	"sync"
	"time"
)

// MessageBus carries inbound user messages to the pipeline and outbound
// replies back to their channel adapters.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
	debounce *InboundDebouncer

	handlerMu sync.RWMutex
	handlers  map[string]MessageHandler // channel name → handler

	subMu       sync.RWMutex
	subscribers map[string]EventHandler
}

func New() *MessageBus {
	return &MessageBus{
		inbound:     make(chan InboundMessage, 100),
		outbound:    make(chan OutboundMessage, 100),
		handlers:    make(map[string]MessageHandler),
		subscribers: make(map[string]EventHandler),
	}
}

// EnableDebounce routes inbound publishes through a merge window, so a
// burst of short messages from one sender becomes a single agent run.
// Call before any adapter starts publishing.
func (mb *MessageBus) EnableDebounce(window time.Duration) {
	mb.debounce = NewInboundDebouncer(window, func(msg InboundMessage) {
		mb.inbound <- msg
	})
}

// PublishInbound queues a message from a channel adapter.
func (mb *MessageBus) PublishInbound(msg InboundMessage) {
	if mb.debounce != nil {
		mb.debounce.Push(msg)
		return
	}
	mb.inbound <- msg
}

// ConsumeInbound blocks until a message is available or ctx is canceled.
func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case msg := <-mb.inbound:
		return msg, true
	case <-ctx.Done():
		return InboundMessage{}, false
	}
}

// PublishOutbound queues a reply for delivery.
func (mb *MessageBus) PublishOutbound(msg OutboundMessage) {
	mb.outbound <- msg
}

// ConsumeOutbound blocks until a reply is available or ctx is canceled.
func (mb *MessageBus) ConsumeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case msg := <-mb.outbound:
		return msg, true
	case <-ctx.Done():
		return OutboundMessage{}, false
	}
}

// RegisterHandler sets the delivery handler for a channel.
func (mb *MessageBus) RegisterHandler(channel string, handler MessageHandler) {
	mb.handlerMu.Lock()
	defer mb.handlerMu.Unlock()
	mb.handlers[channel] = handler
}

// Handler returns the delivery handler for a channel.
func (mb *MessageBus) Handler(channel string) (MessageHandler, bool) {
	mb.handlerMu.RLock()
	defer mb.handlerMu.RUnlock()
	handler, ok := mb.handlers[channel]
	return handler, ok
}

// Subscribe registers an event subscriber under an ID.
func (mb *MessageBus) Subscribe(id string, handler EventHandler) {
	mb.subMu.Lock()
	defer mb.subMu.Unlock()
	mb.subscribers[id] = handler
}

// Unsubscribe removes an event subscriber.
func (mb *MessageBus) Unsubscribe(id string) {
	mb.subMu.Lock()
	defer mb.subMu.Unlock()
	delete(mb.subscribers, id)
}

// Broadcast delivers an event to all subscribers.
func (mb *MessageBus) Broadcast(event Event) {
	mb.subMu.RLock()
	defer mb.subMu.RUnlock()
	for _, handler := range mb.subscribers {
		handler(event)
	}
}

// Close flushes any debounced messages and shuts down the bus channels.
func (mb *MessageBus) Close() {
	if mb.debounce != nil {
		mb.debounce.Stop()
	}
	close(mb.inbound)
	close(mb.outbound)
}
