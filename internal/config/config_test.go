package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Messages.TTS.MaxTextLength != 1500 {
		t.Errorf("expected default maxTextLength 1500, got %d", cfg.Messages.TTS.MaxTextLength)
	}
	if cfg.Messages.TTS.TimeoutMs != 30000 {
		t.Errorf("expected default timeoutMs 30000, got %d", cfg.Messages.TTS.TimeoutMs)
	}
	if cfg.Messages.TTS.Provider != "openai" {
		t.Errorf("expected default provider openai, got %q", cfg.Messages.TTS.Provider)
	}
}

func TestLoad_JSON5WithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	raw := `{
		// tts settings
		"messages": {
			"tts": {
				"enabled": true,
				"provider": "elevenlabs",
				"maxTextLength": 4000,
			},
		},
	}`
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Messages.TTS.Enabled {
		t.Error("expected tts enabled")
	}
	if cfg.Messages.TTS.Provider != "elevenlabs" {
		t.Errorf("expected provider elevenlabs, got %q", cfg.Messages.TTS.Provider)
	}
	if cfg.Messages.TTS.MaxTextLength != 4000 {
		t.Errorf("expected maxTextLength 4000, got %d", cfg.Messages.TTS.MaxTextLength)
	}
}

func TestApplyEnvOverrides_XIKeyFallback(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "")
	t.Setenv("XI_API_KEY", "xi-key-123")
	t.Setenv("OPENAI_API_KEY", "oa-key-456")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Messages.TTS.ElevenLabs.APIKey != "xi-key-123" {
		t.Errorf("expected XI_API_KEY fallback, got %q", cfg.Messages.TTS.ElevenLabs.APIKey)
	}
	if cfg.Messages.TTS.OpenAI.APIKey != "oa-key-456" {
		t.Errorf("expected OPENAI_API_KEY, got %q", cfg.Messages.TTS.OpenAI.APIKey)
	}
}

func TestApplyEnvOverrides_FileConfigWins(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "env-key")

	cfg := Default()
	cfg.Messages.TTS.ElevenLabs.APIKey = "file-key"
	cfg.ApplyEnvOverrides()

	if cfg.Messages.TTS.ElevenLabs.APIKey != "file-key" {
		t.Errorf("file config should win over env, got %q", cfg.Messages.TTS.ElevenLabs.APIKey)
	}
}

func TestMaskedCopy(t *testing.T) {
	cfg := Default()
	cfg.Messages.TTS.ElevenLabs.APIKey = "sk-verysecretkey99"
	cfg.Gateway.Token = "tok"

	masked := cfg.MaskedCopy()
	messages := masked["messages"].(map[string]interface{})
	tts := messages["tts"].(map[string]interface{})
	el := tts["elevenlabs"].(map[string]interface{})

	if el["apiKey"] == "sk-verysecretkey99" {
		t.Error("apiKey not masked")
	}
	if el["apiKey"] != "sk-v****ey99" {
		t.Errorf("unexpected mask shape: %v", el["apiKey"])
	}
	gw := masked["gateway"].(map[string]interface{})
	if gw["token"] != "****" {
		t.Errorf("short secret should mask fully, got %v", gw["token"])
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json5")
	cfg := Default()
	cfg.Messages.TTS.Enabled = true
	cfg.Messages.TTS.SummaryModel = "gpt-4o-mini"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !loaded.Messages.TTS.Enabled || loaded.Messages.TTS.SummaryModel != "gpt-4o-mini" {
		t.Errorf("round trip mismatch: %+v", loaded.Messages.TTS)
	}
}

func TestHashChangesWithContent(t *testing.T) {
	a := Default()
	b := Default()
	if a.Hash() != b.Hash() {
		t.Error("identical configs should hash equal")
	}
	b.Messages.TTS.MaxTextLength = 999
	if a.Hash() == b.Hash() {
		t.Error("different configs should hash differently")
	}
}
