package bus

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// InboundDebouncer buffers rapid consecutive messages from the same
// sender and merges them into one InboundMessage, so a burst of short
// messages triggers a single agent run.
type InboundDebouncer struct {
	window  time.Duration
	mu      sync.Mutex
	buffers map[string]*debounceBuffer
	flushFn func(InboundMessage)
}

type debounceBuffer struct {
	messages []InboundMessage
	timer    *time.Timer
}

// NewInboundDebouncer creates a debouncer. window <= 0 disables
// buffering; messages pass straight through.
func NewInboundDebouncer(window time.Duration, flushFn func(InboundMessage)) *InboundDebouncer {
	return &InboundDebouncer{
		window:  window,
		buffers: make(map[string]*debounceBuffer),
		flushFn: flushFn,
	}
}

// Push adds a message to the buffer. Voice messages bypass the window:
// any buffered text is flushed first, then the voice message goes through
// on its own so the inbound auto-TTS signal survives the merge.
func (d *InboundDebouncer) Push(msg InboundMessage) {
	if d.window <= 0 {
		d.flushFn(msg)
		return
	}

	key := debounceKey(msg)

	if msg.IsVoice {
		d.flushKey(key)
		d.flushFn(msg)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	buf, exists := d.buffers[key]
	if !exists {
		buf = &debounceBuffer{}
		d.buffers[key] = buf
	}
	buf.messages = append(buf.messages, msg)

	if buf.timer != nil {
		buf.timer.Stop()
	}
	buf.timer = time.AfterFunc(d.window, func() {
		d.flushKey(key)
	})

	slog.Debug("inbound debounce buffering", "key", key, "buffered", len(buf.messages))
}

// Stop flushes all pending buffers immediately.
func (d *InboundDebouncer) Stop() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.buffers))
	for k := range d.buffers {
		keys = append(keys, k)
	}
	d.mu.Unlock()
	for _, k := range keys {
		d.flushKey(k)
	}
}

func (d *InboundDebouncer) flushKey(key string) {
	d.mu.Lock()
	buf, ok := d.buffers[key]
	if !ok || len(buf.messages) == 0 {
		delete(d.buffers, key)
		d.mu.Unlock()
		return
	}
	if buf.timer != nil {
		buf.timer.Stop()
	}
	messages := buf.messages
	delete(d.buffers, key)
	d.mu.Unlock()

	merged := messages[len(messages)-1]
	if len(messages) > 1 {
		parts := make([]string, 0, len(messages))
		for _, m := range messages {
			if m.Text != "" {
				parts = append(parts, m.Text)
			}
		}
		merged.Text = strings.Join(parts, "\n")
		slog.Debug("inbound debounce merged", "key", key, "count", len(messages))
	}
	d.flushFn(merged)
}

func debounceKey(msg InboundMessage) string {
	return msg.Channel + ":" + msg.ChatID + ":" + msg.SenderID
}
