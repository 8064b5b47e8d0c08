package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clawdbot/clawdbot/internal/config"
)

// OpenAIProvider synthesizes speech via the OpenAI audio/speech API.
type OpenAIProvider struct {
	apiKey    string
	apiBase   string
	model     string
	voice     string
	timeoutMs int
	client    *http.Client
}

// NewOpenAIProvider creates an OpenAI TTS provider.
func NewOpenAIProvider(cfg config.OpenAITTSConfig, timeoutMs int) *OpenAIProvider {
	p := &OpenAIProvider{
		apiKey:    cfg.APIKey,
		apiBase:   cfg.APIBase,
		model:     cfg.Model,
		voice:     cfg.Voice,
		timeoutMs: timeoutMs,
	}
	if p.apiBase == "" {
		p.apiBase = "https://api.openai.com/v1"
	}
	if p.model == "" {
		p.model = "gpt-4o-mini-tts"
	}
	if p.voice == "" {
		p.voice = "alloy"
	}
	if p.timeoutMs <= 0 {
		p.timeoutMs = 30000
	}
	p.client = &http.Client{Timeout: time.Duration(p.timeoutMs) * time.Millisecond}
	return p
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Configured() bool { return p.apiKey != "" }

// Synthesize calls POST {apiBase}/audio/speech. Directive overrides replace
// the configured voice and model; speed rides along when set.
func (p *OpenAIProvider) Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error) {
	ov := opts.Overrides.OpenAI

	voice := ov.Voice
	if voice == "" {
		voice = p.voice
	}
	model := ov.Model
	if model == "" {
		model = p.model
	}

	body := map[string]interface{}{
		"model":           model,
		"input":           text,
		"voice":           voice,
		"response_format": opts.Format.Name,
	}
	if v := opts.Overrides.ElevenLabs.VoiceSettings.Speed; v != nil {
		// OpenAI accepts 0.25–4.0; the directive vocabulary shares one
		// speed key across providers.
		body["speed"] = *v
	}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal openai speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/audio/speech", bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("create openai speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai speech request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openai speech error %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openai speech response: %w", err)
	}

	return &SynthResult{
		Audio:     audio,
		Extension: opts.Format.Extension,
		MimeType:  opts.Format.MimeType,
		Provider:  p.Name(),
	}, nil
}
