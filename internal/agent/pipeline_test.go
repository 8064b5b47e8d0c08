package agent

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/clawdbot/clawdbot/internal/bus"
	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/internal/providers"
	"github.com/clawdbot/clawdbot/internal/tts"
)

type cannedChat struct {
	reply string
}

func (c *cannedChat) Complete(context.Context, providers.ChatRequest) (string, error) {
	return c.reply, nil
}

type cannedProvider struct{}

func (cannedProvider) Name() string     { return "openai" }
func (cannedProvider) Configured() bool { return true }

func (cannedProvider) Synthesize(_ context.Context, text string, opts tts.Options) (*tts.SynthResult, error) {
	return &tts.SynthResult{
		Audio:     []byte(text),
		Extension: opts.Format.Extension,
		MimeType:  opts.Format.MimeType,
		Provider:  "openai",
	}, nil
}

func TestPipelineAttachesAudio(t *testing.T) {
	mb := bus.New()
	defer mb.Close()

	var mu sync.Mutex
	var delivered []bus.OutboundMessage
	var events []bus.Event
	mb.RegisterHandler("telegram", func(m bus.OutboundMessage) error {
		mu.Lock()
		delivered = append(delivered, m)
		mu.Unlock()
		return nil
	})
	mb.Subscribe("test", func(ev bus.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	cfg := config.TTSConfig{Enabled: true, Auto: "always", Mode: "final", Provider: "openai", MaxTextLength: 500, TimeoutMs: 5000}
	manager := tts.NewManager(cfg, tts.NewFilePrefs(filepath.Join(t.TempDir(), "tts.json")), nil, nil)
	manager.RegisterProvider(cannedProvider{})

	a := New(&cannedChat{reply: "Here is a spoken answer for you."}, config.AgentConfig{Model: "gpt-4o-mini"})
	p := NewPipeline(mb, a, manager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	mb.PublishInbound(bus.InboundMessage{Channel: "telegram", ChatID: "1", MessageID: "7", Text: "question"})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(delivered)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no delivery")
		case <-time.After(5 * time.Millisecond):
		}
	}

	for {
		mu.Lock()
		n := len(events)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no broadcast event")
		case <-time.After(5 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	out := delivered[0]
	if out.Text != "Here is a spoken answer for you." {
		t.Errorf("text = %q", out.Text)
	}
	if len(out.Audio) == 0 || out.AudioExt != ".opus" {
		t.Errorf("audio missing or wrong format: ext=%s bytes=%d", out.AudioExt, len(out.Audio))
	}
	if out.ReplyToID != "7" {
		t.Errorf("reply id = %s", out.ReplyToID)
	}
	ev := events[0]
	if ev.Name != "message.done" {
		t.Errorf("event name = %q", ev.Name)
	}
	if ev.Payload["decision"] != "within_limit" || ev.Payload["audio"] != true {
		t.Errorf("event payload = %+v", ev.Payload)
	}
}

func TestPipelineShortReplyStaysText(t *testing.T) {
	mb := bus.New()
	defer mb.Close()

	var mu sync.Mutex
	var delivered []bus.OutboundMessage
	mb.RegisterHandler("discord", func(m bus.OutboundMessage) error {
		mu.Lock()
		delivered = append(delivered, m)
		mu.Unlock()
		return nil
	})

	cfg := config.TTSConfig{Enabled: true, Auto: "always", Mode: "final", Provider: "openai", MaxTextLength: 500, TimeoutMs: 5000}
	manager := tts.NewManager(cfg, nil, nil, nil)
	manager.RegisterProvider(cannedProvider{})

	a := New(&cannedChat{reply: "ok"}, config.AgentConfig{Model: "gpt-4o-mini"})
	p := NewPipeline(mb, a, manager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	mb.PublishInbound(bus.InboundMessage{Channel: "discord", ChatID: "c", Text: "hi"})

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(delivered)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no delivery")
		case <-time.After(5 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(delivered[0].Audio) != 0 {
		t.Error("two-char reply must not get audio")
	}
	if delivered[0].Text != "ok" {
		t.Errorf("text = %q", delivered[0].Text)
	}
}
