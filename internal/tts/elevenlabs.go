package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/clawdbot/clawdbot/internal/config"
)

// ElevenLabsProvider synthesizes speech via the ElevenLabs API.
type ElevenLabsProvider struct {
	apiKey    string
	baseURL   string
	voiceID   string
	modelID   string
	timeoutMs int
	client    *http.Client
}

// NewElevenLabsProvider creates an ElevenLabs TTS provider.
func NewElevenLabsProvider(cfg config.ElevenLabsTTSConfig, timeoutMs int) *ElevenLabsProvider {
	p := &ElevenLabsProvider{
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		voiceID:   cfg.VoiceID,
		modelID:   cfg.ModelID,
		timeoutMs: timeoutMs,
	}
	if p.baseURL == "" {
		p.baseURL = "https://api.elevenlabs.io"
	}
	if p.voiceID == "" {
		p.voiceID = "pMsXgVXv3BLzUgSXRplE"
	}
	if p.modelID == "" {
		p.modelID = "eleven_multilingual_v2"
	}
	if p.timeoutMs <= 0 {
		p.timeoutMs = 30000
	}
	p.client = &http.Client{Timeout: time.Duration(p.timeoutMs) * time.Millisecond}
	return p
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

func (p *ElevenLabsProvider) Configured() bool { return p.apiKey != "" }

// elevenLabsRequest is the POST body for /v1/text-to-speech/{voiceId}.
type elevenLabsRequest struct {
	Text                   string                  `json:"text"`
	ModelID                string                  `json:"model_id,omitempty"`
	LanguageCode           string                  `json:"language_code,omitempty"`
	Seed                   *int                    `json:"seed,omitempty"`
	ApplyTextNormalization string                  `json:"apply_text_normalization,omitempty"`
	VoiceSettings          elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	Speed           float64 `json:"speed,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// Synthesize calls POST {baseUrl}/v1/text-to-speech/{voiceId}. Directive
// overrides replace the configured voice/model and voice-settings defaults.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error) {
	ov := opts.Overrides.ElevenLabs

	voiceID := ov.VoiceID
	if voiceID == "" {
		voiceID = p.voiceID
	}
	modelID := ov.ModelID
	if modelID == "" {
		modelID = p.modelID
	}

	// Defaults per the vendor docs; overridden field by field.
	settings := elevenLabsVoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.0,
		UseSpeakerBoost: true,
	}
	if v := ov.VoiceSettings.Stability; v != nil {
		settings.Stability = *v
	}
	if v := ov.VoiceSettings.SimilarityBoost; v != nil {
		settings.SimilarityBoost = *v
	}
	if v := ov.VoiceSettings.Style; v != nil {
		settings.Style = *v
	}
	if v := ov.VoiceSettings.Speed; v != nil {
		settings.Speed = *v
	}
	if v := ov.VoiceSettings.UseSpeakerBoost; v != nil {
		settings.UseSpeakerBoost = *v
	}

	body := elevenLabsRequest{
		Text:                   text,
		ModelID:                modelID,
		LanguageCode:           ov.LanguageCode,
		Seed:                   ov.Seed,
		ApplyTextNormalization: ov.ApplyTextNormalization,
		VoiceSettings:          settings,
	}
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal elevenlabs request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		p.baseURL, url.PathEscape(voiceID), opts.Format.ElevenLabsFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("create elevenlabs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevenlabs error %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read elevenlabs response: %w", err)
	}

	return &SynthResult{
		Audio:     audio,
		Extension: opts.Format.Extension,
		MimeType:  opts.Format.MimeType,
		Provider:  p.Name(),
	}, nil
}
