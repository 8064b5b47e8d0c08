package channels

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/internal/tts"
)

type stubProvider struct {
	name string
}

func (p *stubProvider) Name() string     { return p.name }
func (p *stubProvider) Configured() bool { return true }

func (p *stubProvider) Synthesize(_ context.Context, text string, opts tts.Options) (*tts.SynthResult, error) {
	return &tts.SynthResult{
		Audio:     []byte(text),
		Extension: opts.Format.Extension,
		MimeType:  opts.Format.MimeType,
		Provider:  p.name,
	}, nil
}

func newTestManager(t *testing.T) *tts.Manager {
	t.Helper()
	cfg := config.TTSConfig{Enabled: true, Provider: "openai", MaxTextLength: 500, TimeoutMs: 5000}
	prefs := tts.NewFilePrefs(filepath.Join(t.TempDir(), "tts.json"))
	m := tts.NewManager(cfg, prefs, nil, nil)
	m.RegisterProvider(&stubProvider{name: "openai"})
	m.RegisterProvider(&stubProvider{name: "elevenlabs"})
	return m
}

func TestHandleTtsCommandNotACommand(t *testing.T) {
	m := newTestManager(t)
	for _, text := range []string{"hello", "/start", "/ttsx on", ""} {
		if _, handled := HandleTtsCommand(context.Background(), m, "telegram", text); handled {
			t.Errorf("%q should not be handled", text)
		}
	}
}

func TestHandleTtsCommandStatus(t *testing.T) {
	m := newTestManager(t)
	resp, handled := HandleTtsCommand(context.Background(), m, "telegram", "/tts status")
	if !handled {
		t.Fatal("not handled")
	}
	if !strings.Contains(resp.Text, "TTS: on") || !strings.Contains(resp.Text, "Provider: openai") {
		t.Errorf("status text = %q", resp.Text)
	}

	// Bare /tts is also status.
	resp2, handled := HandleTtsCommand(context.Background(), m, "telegram", "/tts")
	if !handled || resp2.Text != resp.Text {
		t.Errorf("bare /tts should match /tts status")
	}
}

func TestHandleTtsCommandOnOff(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if resp, _ := HandleTtsCommand(ctx, m, "telegram", "/tts off"); !strings.Contains(resp.Text, "disabled") {
		t.Errorf("off reply = %q", resp.Text)
	}
	if m.Settings(ctx).Enabled {
		t.Error("prefs not updated to disabled")
	}
	HandleTtsCommand(ctx, m, "telegram", "/tts on")
	if !m.Settings(ctx).Enabled {
		t.Error("prefs not updated to enabled")
	}
}

func TestHandleTtsCommandProvider(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if resp, _ := HandleTtsCommand(ctx, m, "telegram", "/tts provider elevenlabs"); !strings.Contains(resp.Text, "elevenlabs") {
		t.Errorf("reply = %q", resp.Text)
	}
	if m.Settings(ctx).Provider != "elevenlabs" {
		t.Error("provider pref not updated")
	}

	if resp, _ := HandleTtsCommand(ctx, m, "telegram", "/tts provider nope"); !strings.Contains(resp.Text, "Unknown provider") {
		t.Errorf("reply = %q", resp.Text)
	}
	if m.Settings(ctx).Provider != "elevenlabs" {
		t.Error("invalid provider must not change prefs")
	}
}

func TestHandleTtsCommandLimit(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	HandleTtsCommand(ctx, m, "telegram", "/tts limit 800")
	if m.Settings(ctx).MaxLength != 800 {
		t.Errorf("limit = %d, want 800", m.Settings(ctx).MaxLength)
	}

	if resp, _ := HandleTtsCommand(ctx, m, "telegram", "/tts limit zero"); !strings.Contains(resp.Text, "positive number") {
		t.Errorf("reply = %q", resp.Text)
	}
	if resp, _ := HandleTtsCommand(ctx, m, "telegram", "/tts limit -5"); !strings.Contains(resp.Text, "positive number") {
		t.Errorf("reply = %q", resp.Text)
	}
}

func TestHandleTtsCommandSummary(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	HandleTtsCommand(ctx, m, "telegram", "/tts summary on")
	if !m.Settings(ctx).Summarize {
		t.Error("summary pref not enabled")
	}
	HandleTtsCommand(ctx, m, "telegram", "/tts summary off")
	if m.Settings(ctx).Summarize {
		t.Error("summary pref not disabled")
	}
}

func TestHandleTtsCommandAudio(t *testing.T) {
	m := newTestManager(t)
	resp, handled := HandleTtsCommand(context.Background(), m, "telegram", "/tts audio say this aloud")
	if !handled {
		t.Fatal("not handled")
	}
	if resp.Audio == nil {
		t.Fatalf("expected audio, got %q", resp.Text)
	}
	if string(resp.Audio.Audio) != "say this aloud" {
		t.Errorf("synthesized %q", resp.Audio.Audio)
	}
	if resp.Audio.Extension != ".opus" {
		t.Errorf("telegram audio extension = %s", resp.Audio.Extension)
	}
}

func TestHandleTtsCommandMentionSuffix(t *testing.T) {
	m := newTestManager(t)
	if _, handled := HandleTtsCommand(context.Background(), m, "telegram", "/tts@clawdbot status"); !handled {
		t.Error("mention-suffixed command should be handled")
	}
}

func TestHandleTtsCommandBangForm(t *testing.T) {
	m := newTestManager(t)
	if _, handled := HandleTtsCommand(context.Background(), m, "discord", "!tts status"); !handled {
		t.Error("!tts form should be handled")
	}
}
