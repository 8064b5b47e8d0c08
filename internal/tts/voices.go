package tts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// VoiceInfo describes one selectable voice.
type VoiceInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Category string `json:"category,omitempty"`
}

// ProviderModels lists the known synthesis models for a provider.
func ProviderModels(provider string) []string {
	switch provider {
	case "openai":
		return []string{"gpt-4o-mini-tts", "tts-1", "tts-1-hd"}
	case "elevenlabs":
		return []string{"eleven_multilingual_v2", "eleven_turbo_v2_5", "eleven_flash_v2_5"}
	}
	return nil
}

// OpenAIVoices is the fixed voice set of the OpenAI speech endpoint.
func OpenAIVoices() []VoiceInfo {
	names := []string{"alloy", "ash", "ballad", "coral", "echo", "fable", "nova", "onyx", "sage", "shimmer"}
	out := make([]VoiceInfo, 0, len(names))
	for _, n := range names {
		out = append(out, VoiceInfo{ID: n, Name: n, Provider: "openai"})
	}
	return out
}

// ElevenLabsPresets are well-known premade voices, usable without an API
// call when the remote listing is unavailable.
func ElevenLabsPresets() []VoiceInfo {
	return []VoiceInfo{
		{ID: "pMsXgVXv3BLzUgSXRplE", Name: "Serena", Provider: "elevenlabs", Category: "premade"},
		{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Provider: "elevenlabs", Category: "premade"},
		{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Sarah", Provider: "elevenlabs", Category: "premade"},
		{ID: "JBFqnCBsd6RMkjVDRZzb", Name: "George", Provider: "elevenlabs", Category: "premade"},
		{ID: "TxGEqnHWrfWFTfGW9XjX", Name: "Josh", Provider: "elevenlabs", Category: "premade"},
		{ID: "onwK4e9ZLuTAKqWW03F9", Name: "Daniel", Provider: "elevenlabs", Category: "premade"},
	}
}

const voiceCacheTTL = 10 * time.Minute

// VoiceCatalog lists voices per provider, caching remote listings.
type VoiceCatalog struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *expirable.LRU[string, []VoiceInfo]
}

// NewVoiceCatalog builds a catalog. apiKey may be empty; remote listing
// then falls back to the preset set.
func NewVoiceCatalog(apiKey, baseURL string) *VoiceCatalog {
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}
	return &VoiceCatalog{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   expirable.NewLRU[string, []VoiceInfo](8, nil, voiceCacheTTL),
	}
}

// Voices returns the voice list for a provider. Unknown providers get an
// empty list, not an error.
func (c *VoiceCatalog) Voices(ctx context.Context, provider string) []VoiceInfo {
	switch provider {
	case "openai":
		return OpenAIVoices()
	case "elevenlabs":
		return c.elevenLabsVoices(ctx)
	}
	return nil
}

func (c *VoiceCatalog) elevenLabsVoices(ctx context.Context) []VoiceInfo {
	if cached, ok := c.cache.Get("elevenlabs"); ok {
		return cached
	}
	if c.apiKey == "" {
		return ElevenLabsPresets()
	}
	voices, err := c.fetchElevenLabs(ctx)
	if err != nil {
		return ElevenLabsPresets()
	}
	c.cache.Add("elevenlabs", voices)
	return voices
}

func (c *VoiceCatalog) fetchElevenLabs(ctx context.Context) ([]VoiceInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/voices", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs voices: status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Voices []struct {
			VoiceID  string `json:"voice_id"`
			Name     string `json:"name"`
			Category string `json:"category"`
		} `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	out := make([]VoiceInfo, 0, len(payload.Voices))
	for _, v := range payload.Voices {
		out = append(out, VoiceInfo{ID: v.VoiceID, Name: v.Name, Provider: "elevenlabs", Category: v.Category})
	}
	return out, nil
}
