package methods

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/clawdbot/clawdbot/internal/artifact"
	"github.com/clawdbot/clawdbot/internal/gateway"
	"github.com/clawdbot/clawdbot/internal/history"
	"github.com/clawdbot/clawdbot/internal/tts"
	"github.com/clawdbot/clawdbot/pkg/protocol"
)

// Broadcaster pushes event frames to connected gateway clients.
type Broadcaster interface {
	Broadcast(event protocol.EventFrame)
}

// TtsMethods handles the tts.* RPC surface.
type TtsMethods struct {
	manager   *tts.Manager
	artifacts artifact.Store
	voices    *tts.VoiceCatalog
	history   *history.Store // nil when the log is disabled
	events    Broadcaster    // nil when event push is disabled
}

func NewTtsMethods(manager *tts.Manager, artifacts artifact.Store, voices *tts.VoiceCatalog, hist *history.Store, events Broadcaster) *TtsMethods {
	return &TtsMethods{manager: manager, artifacts: artifacts, voices: voices, history: hist, events: events}
}

// broadcastState pushes the current enabled/provider state to all
// clients after a preference mutation.
func (m *TtsMethods) broadcastState(ctx context.Context) {
	if m.events == nil {
		return
	}
	s := m.manager.Settings(ctx)
	m.events.Broadcast(*protocol.NewEvent(protocol.EventTtsState, map[string]interface{}{
		"enabled":  s.Enabled,
		"provider": s.Provider,
	}))
}

func (m *TtsMethods) Register(router *gateway.MethodRouter) {
	router.Register(protocol.MethodTtsStatus, m.handleStatus)
	router.Register(protocol.MethodTtsEnable, m.handleEnable)
	router.Register(protocol.MethodTtsDisable, m.handleDisable)
	router.Register(protocol.MethodTtsConvert, m.handleConvert)
	router.Register(protocol.MethodTtsSetProvider, m.handleSetProvider)
	router.Register(protocol.MethodTtsProviders, m.handleProviders)
}

func (m *TtsMethods) handleStatus(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	s := m.manager.Settings(ctx)
	providers := map[string]bool{}
	for _, p := range m.manager.Providers() {
		providers[p.Name()] = p.Configured()
	}
	out := map[string]interface{}{
		"enabled":   s.Enabled,
		"provider":  s.Provider,
		"maxLength": s.MaxLength,
		"summarize": s.Summarize,
		"timeoutMs": s.TimeoutMs,
		"auto":      string(s.Auto),
		"mode":      string(s.Mode),
		"providers": providers,
	}
	if m.history != nil {
		if recent, err := m.history.Recent(ctx, 5); err == nil {
			out["recent"] = recent
		}
	}
	client.SendResponse(protocol.NewOKResponse(req.ID, out))
}

func (m *TtsMethods) handleEnable(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	m.setEnabled(ctx, client, req, true)
}

func (m *TtsMethods) handleDisable(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	m.setEnabled(ctx, client, req, false)
}

func (m *TtsMethods) setEnabled(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame, enabled bool) {
	err := m.manager.UpdatePrefs(ctx, func(p *tts.Prefs) {
		p.Enabled = &enabled
	})
	if err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInternal, "update preferences: "+err.Error()))
		return
	}
	m.broadcastState(ctx)
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"enabled": enabled,
	}))
}

// convertParams are the tts.convert arguments. Text is trimmed before
// validation so whitespace-only input is rejected as a bad request, not
// as a synthesis failure.
type convertParams struct {
	Text    string `json:"text"`
	Channel string `json:"channel"`
}

func parseConvertParams(raw json.RawMessage) (convertParams, error) {
	var p convertParams
	if raw != nil {
		json.Unmarshal(raw, &p)
	}
	p.Text = strings.TrimSpace(p.Text)
	if p.Text == "" {
		return p, errors.New("text is required")
	}
	return p, nil
}

func (m *TtsMethods) handleConvert(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	params, err := parseConvertParams(req.Params)
	if err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, err.Error()))
		return
	}

	result, format, err := m.manager.Convert(ctx, params.Text, params.Channel)
	if err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrUnavailable, "synthesis failed: "+err.Error()))
		return
	}

	ref, err := m.artifacts.Put(ctx, result.Extension, result.MimeType, result.Audio)
	if err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInternal, "store audio: "+err.Error()))
		return
	}

	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"audioPath":       ref,
		"provider":        result.Provider,
		"outputFormat":    format.Name,
		"voiceCompatible": format.VoiceCompatible,
		"mimeType":        result.MimeType,
		"bytes":           len(result.Audio),
	}))
}

func (m *TtsMethods) handleSetProvider(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	var params struct {
		Provider string `json:"provider"`
	}
	if req.Params != nil {
		json.Unmarshal(req.Params, &params)
	}
	if _, ok := m.manager.Provider(params.Provider); !ok {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidArgument, "unknown provider: "+params.Provider))
		return
	}

	err := m.manager.UpdatePrefs(ctx, func(p *tts.Prefs) {
		p.Provider = params.Provider
	})
	if err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInternal, "update preferences: "+err.Error()))
		return
	}
	m.broadcastState(ctx)
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"provider": params.Provider,
	}))
}

func (m *TtsMethods) handleProviders(ctx context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	type providerInfo struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Configured bool            `json:"configured"`
		Models     []string        `json:"models,omitempty"`
		Voices     []tts.VoiceInfo `json:"voices,omitempty"`
	}
	var out []providerInfo
	for _, p := range m.manager.Providers() {
		info := providerInfo{
			ID:         p.Name(),
			Name:       p.Name(),
			Configured: p.Configured(),
			Models:     tts.ProviderModels(p.Name()),
		}
		if m.voices != nil {
			info.Voices = m.voices.Voices(ctx, p.Name())
		}
		out = append(out, info)
	}
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"providers": out,
		"active":    m.manager.Settings(ctx).Provider,
	}))
}
