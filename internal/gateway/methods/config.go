package methods

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/titanous/json5"

	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/internal/gateway"
	"github.com/clawdbot/clawdbot/pkg/protocol"
)

// ConfigMethods handles config.get and config.patch.
type ConfigMethods struct {
	mu      sync.Mutex
	cfg     *config.Config
	cfgPath string
	onApply func(*config.Config) // notifies the server and TTS manager
}

func NewConfigMethods(cfg *config.Config, cfgPath string, onApply func(*config.Config)) *ConfigMethods {
	return &ConfigMethods{cfg: cfg, cfgPath: cfgPath, onApply: onApply}
}

func (m *ConfigMethods) Register(router *gateway.MethodRouter) {
	router.Register(protocol.MethodConfigGet, m.handleGet)
	router.Register(protocol.MethodConfigPatch, m.handlePatch)
}

func (m *ConfigMethods) handleGet(_ context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"config": m.cfg.MaskedCopy(),
		"hash":   m.cfg.Hash(),
		"path":   m.cfgPath,
	}))
}

// handlePatch merges a partial JSON5 config on top of the current one,
// saves, and applies it in-process. BaseHash enables optimistic
// concurrency against concurrent editors.
func (m *ConfigMethods) handlePatch(_ context.Context, client *gateway.Client, req *protocol.RequestFrame) {
	var params struct {
		Raw      string `json:"raw"`
		BaseHash string `json:"baseHash"`
	}
	if req.Params != nil {
		json.Unmarshal(req.Params, &params)
	}
	if params.Raw == "" {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "raw patch is required"))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if params.BaseHash != "" && params.BaseHash != m.cfg.Hash() {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "config has changed (hash mismatch)"))
		return
	}

	// Merge: clone current, deserialize the patch on top.
	currentJSON, err := json.Marshal(m.cfg)
	if err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInternal, "failed to serialize current config"))
		return
	}
	merged := config.Default()
	if err := json.Unmarshal(currentJSON, merged); err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInternal, "failed to clone config"))
		return
	}
	if err := json5.Unmarshal([]byte(params.Raw), merged); err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInvalidRequest, "invalid patch: "+err.Error()))
		return
	}

	// Clients patch against masked output; masked values mean unchanged.
	merged.RestoreMaskedSecrets(m.cfg)

	if err := config.Save(m.cfgPath, merged); err != nil {
		client.SendResponse(protocol.NewErrorResponse(req.ID, protocol.ErrInternal, "failed to save config: "+err.Error()))
		return
	}

	merged.ApplyEnvOverrides()
	m.cfg = merged
	if m.onApply != nil {
		m.onApply(merged)
	}

	client.SendResponse(protocol.NewOKResponse(req.ID, map[string]interface{}{
		"ok":     true,
		"path":   m.cfgPath,
		"config": m.cfg.MaskedCopy(),
		"hash":   m.cfg.Hash(),
	}))
}
