package bus

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPublishConsumeRoundTrip(t *testing.T) {
	mb := New()
	defer mb.Close()

	mb.PublishInbound(InboundMessage{Channel: "telegram", ChatID: "1", Text: "hi"})
	msg, ok := mb.ConsumeInbound(context.Background())
	if !ok || msg.Text != "hi" {
		t.Fatalf("got %+v ok=%v", msg, ok)
	}

	mb.PublishOutbound(OutboundMessage{Channel: "telegram", Text: "reply", Audio: []byte("a")})
	out, ok := mb.ConsumeOutbound(context.Background())
	if !ok || out.Text != "reply" || len(out.Audio) != 1 {
		t.Fatalf("got %+v ok=%v", out, ok)
	}
}

func TestPublishInboundDebounced(t *testing.T) {
	mb := New()
	defer mb.Close()
	mb.EnableDebounce(20 * time.Millisecond)

	mb.PublishInbound(InboundMessage{Channel: "telegram", ChatID: "1", SenderID: "u", Text: "first"})
	mb.PublishInbound(InboundMessage{Channel: "telegram", ChatID: "1", SenderID: "u", Text: "second"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := mb.ConsumeInbound(ctx)
	if !ok {
		t.Fatal("no message before deadline")
	}
	if msg.Text != "first\nsecond" {
		t.Errorf("merged text = %q, want %q", msg.Text, "first\nsecond")
	}
}

func TestPublishInboundDebouncedVoicePassesThrough(t *testing.T) {
	mb := New()
	defer mb.Close()
	mb.EnableDebounce(time.Minute)

	mb.PublishInbound(InboundMessage{Channel: "telegram", ChatID: "1", SenderID: "u", Text: "buffered"})
	mb.PublishInbound(InboundMessage{Channel: "telegram", ChatID: "1", SenderID: "u", IsVoice: true})

	msg, ok := mb.ConsumeInbound(context.Background())
	if !ok || msg.Text != "buffered" {
		t.Fatalf("expected buffered text first, got %+v", msg)
	}
	msg, ok = mb.ConsumeInbound(context.Background())
	if !ok || !msg.IsVoice {
		t.Fatalf("expected voice message second, got %+v", msg)
	}
}

func TestConsumeInboundCanceled(t *testing.T) {
	mb := New()
	defer mb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := mb.ConsumeInbound(ctx); ok {
		t.Fatal("expected ok=false on canceled context")
	}
}

func TestDedupeCache(t *testing.T) {
	d := NewDedupeCache(time.Minute, 10)
	if d.IsDuplicate("a") {
		t.Error("first sighting must not be a duplicate")
	}
	if !d.IsDuplicate("a") {
		t.Error("second sighting must be a duplicate")
	}
	if d.IsDuplicate("b") {
		t.Error("different key must not be a duplicate")
	}
}

func TestDedupeCacheTTLExpiry(t *testing.T) {
	d := NewDedupeCache(10*time.Millisecond, 10)
	d.IsDuplicate("a")
	time.Sleep(20 * time.Millisecond)
	if d.IsDuplicate("a") {
		t.Error("expired key must not be a duplicate")
	}
}

func TestDedupeCacheMaxSize(t *testing.T) {
	d := NewDedupeCache(time.Hour, 2)
	d.IsDuplicate("a")
	d.IsDuplicate("b")
	d.IsDuplicate("c") // evicts the oldest
	if len(d.entries) > 2 {
		t.Errorf("cache grew to %d entries, cap is 2", len(d.entries))
	}
}

func TestDebouncerMergesBurst(t *testing.T) {
	var mu sync.Mutex
	var flushed []InboundMessage
	d := NewInboundDebouncer(20*time.Millisecond, func(m InboundMessage) {
		mu.Lock()
		flushed = append(flushed, m)
		mu.Unlock()
	})

	base := InboundMessage{Channel: "telegram", ChatID: "1", SenderID: "u"}
	for _, text := range []string{"first", "second", "third"} {
		m := base
		m.Text = text
		d.Push(m)
	}

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(flushed) != 1 {
		t.Fatalf("got %d flushes, want 1", len(flushed))
	}
	if flushed[0].Text != "first\nsecond\nthird" {
		t.Errorf("merged text = %q", flushed[0].Text)
	}
}

func TestDebouncerVoiceBypasses(t *testing.T) {
	var mu sync.Mutex
	var flushed []InboundMessage
	d := NewInboundDebouncer(50*time.Millisecond, func(m InboundMessage) {
		mu.Lock()
		flushed = append(flushed, m)
		mu.Unlock()
	})

	d.Push(InboundMessage{Channel: "telegram", ChatID: "1", SenderID: "u", Text: "text"})
	d.Push(InboundMessage{Channel: "telegram", ChatID: "1", SenderID: "u", IsVoice: true})

	// Voice flushes synchronously: buffered text first, then the voice.
	mu.Lock()
	defer mu.Unlock()
	if len(flushed) != 2 {
		t.Fatalf("got %d flushes, want 2", len(flushed))
	}
	if flushed[0].Text != "text" || !flushed[1].IsVoice {
		t.Errorf("flush order wrong: %+v", flushed)
	}
}

func TestDebouncerDisabled(t *testing.T) {
	var flushed int
	d := NewInboundDebouncer(0, func(InboundMessage) { flushed++ })
	d.Push(InboundMessage{Text: "a"})
	d.Push(InboundMessage{Text: "b"})
	if flushed != 2 {
		t.Errorf("disabled debouncer flushed %d, want 2", flushed)
	}
}
