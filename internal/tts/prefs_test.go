package tts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/clawdbot/clawdbot/internal/config"
)

func TestFilePrefs_MissingFileIsEmpty(t *testing.T) {
	fp := NewFilePrefs(filepath.Join(t.TempDir(), "tts.json"))
	p, err := fp.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Enabled != nil || p.Provider != "" || p.MaxLength != 0 || p.Summarize != nil {
		t.Errorf("expected zero prefs, got %+v", p)
	}
}

func TestFilePrefs_SetGetRoundTrip(t *testing.T) {
	fp := NewFilePrefs(filepath.Join(t.TempDir(), "settings", "tts.json"))
	ctx := context.Background()

	want := Prefs{Enabled: boolPtr(true), Provider: "elevenlabs", MaxLength: 2000}
	if err := fp.Set(ctx, want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := fp.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Enabled == nil || !*got.Enabled {
		t.Error("enabled lost")
	}
	if got.Provider != "elevenlabs" || got.MaxLength != 2000 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestFilePrefs_FullRewrite(t *testing.T) {
	fp := NewFilePrefs(filepath.Join(t.TempDir(), "tts.json"))
	ctx := context.Background()

	fp.Set(ctx, Prefs{Provider: "elevenlabs", MaxLength: 2000})
	// Second write carries only one field; the file is rewritten in full,
	// so the earlier maxLength must be gone.
	fp.Set(ctx, Prefs{Provider: "openai"})

	got, _ := fp.Get(ctx)
	if got.MaxLength != 0 {
		t.Errorf("expected full rewrite to drop maxLength, got %d", got.MaxLength)
	}
	if got.Provider != "openai" {
		t.Errorf("provider: %q", got.Provider)
	}
}

func TestFilePrefs_CorruptFileIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tts.json")
	os.WriteFile(path, []byte("{not json"), 0600)

	fp := NewFilePrefs(path)
	p, err := fp.Get(context.Background())
	if err != nil {
		t.Fatalf("corrupt prefs must not error: %v", err)
	}
	if p.Provider != "" {
		t.Errorf("expected empty prefs, got %+v", p)
	}
}

func TestResolveSettings_Precedence(t *testing.T) {
	cfg := config.TTSConfig{
		Enabled:       false,
		Provider:      "openai",
		MaxTextLength: 1500,
		Summarize:     true,
	}
	prefs := Prefs{
		Enabled:  boolPtr(true),
		Provider: "elevenlabs",
	}

	s := ResolveSettings(cfg, prefs)
	if !s.Enabled {
		t.Error("prefs enabled should win over file config")
	}
	if s.Provider != "elevenlabs" {
		t.Errorf("prefs provider should win, got %q", s.Provider)
	}
	if s.MaxLength != 1500 {
		t.Errorf("unset pref falls through to config, got %d", s.MaxLength)
	}
	if !s.Summarize {
		t.Error("unset pref falls through to config summarize")
	}
}

func TestResolveSettings_Defaults(t *testing.T) {
	s := ResolveSettings(config.TTSConfig{}, Prefs{})
	if s.Provider != "openai" || s.MaxLength != 1500 || s.TimeoutMs != 30000 {
		t.Errorf("defaults: %+v", s)
	}
	if s.Auto != AutoOff || s.Mode != ModeFinal {
		t.Errorf("mode defaults: auto=%q mode=%q", s.Auto, s.Mode)
	}
}
