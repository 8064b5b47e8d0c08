package tts

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/clawdbot/clawdbot/internal/config"
)

// MiniMaxProvider synthesizes speech via the MiniMax T2A v2 API. Audio
// comes back hex-encoded inside the JSON response. MiniMax sits outside
// the directive-override vocabulary; it is fallback-only.
type MiniMaxProvider struct {
	apiKey    string
	groupID   string
	apiBase   string
	model     string
	voiceID   string
	timeoutMs int
	client    *http.Client
}

// NewMiniMaxProvider creates a MiniMax TTS provider.
func NewMiniMaxProvider(cfg config.MiniMaxTTSConfig, timeoutMs int) *MiniMaxProvider {
	p := &MiniMaxProvider{
		apiKey:    cfg.APIKey,
		groupID:   cfg.GroupID,
		apiBase:   cfg.APIBase,
		model:     cfg.Model,
		voiceID:   cfg.VoiceID,
		timeoutMs: timeoutMs,
	}
	if p.apiBase == "" {
		p.apiBase = "https://api.minimax.io/v1"
	}
	if p.model == "" {
		p.model = "speech-02-hd"
	}
	if p.voiceID == "" {
		p.voiceID = "Wise_Woman"
	}
	if p.timeoutMs <= 0 {
		p.timeoutMs = 30000
	}
	p.client = &http.Client{Timeout: time.Duration(p.timeoutMs) * time.Millisecond}
	return p
}

func (p *MiniMaxProvider) Name() string { return "minimax" }

func (p *MiniMaxProvider) Configured() bool { return p.apiKey != "" && p.groupID != "" }

type miniMaxResponse struct {
	BaseResp struct {
		StatusCode int    `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp"`
	Data struct {
		Audio string `json:"audio"` // hex-encoded audio bytes
	} `json:"data"`
}

// Synthesize calls POST {apiBase}/t2a_v2 (non-streaming).
func (p *MiniMaxProvider) Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error) {
	body := map[string]interface{}{
		"text":   text,
		"model":  p.model,
		"stream": false,
		"voice_setting": map[string]interface{}{
			"voice_id": p.voiceID,
			"speed":    1.0,
			"pitch":    0,
		},
		"audio_setting": map[string]interface{}{
			"format": "mp3", // MiniMax has no opus output
		},
	}
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal minimax request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/t2a_v2?GroupId=%s", p.apiBase, url.QueryEscape(p.groupID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("create minimax request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("minimax request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read minimax response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("minimax error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp miniMaxResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parse minimax response: %w", err)
	}
	if apiResp.BaseResp.StatusCode != 0 {
		return nil, fmt.Errorf("minimax api error %d: %s", apiResp.BaseResp.StatusCode, apiResp.BaseResp.StatusMsg)
	}
	if apiResp.Data.Audio == "" {
		return nil, fmt.Errorf("minimax returned empty audio")
	}

	audio, err := hex.DecodeString(apiResp.Data.Audio)
	if err != nil {
		return nil, fmt.Errorf("decode minimax audio hex: %w", err)
	}

	return &SynthResult{
		Audio:     audio,
		Extension: ".mp3",
		MimeType:  "audio/mpeg",
		Provider:  p.Name(),
	}, nil
}
