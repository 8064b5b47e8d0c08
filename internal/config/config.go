// Package config loads and resolves Clawdbot configuration.
//
// The config file is JSON5 (comments and trailing commas allowed). API keys
// may also arrive via environment variables; ApplyEnvOverrides layers them
// in after load. Per-host TTS preference overrides live in a separate JSON
// file (see internal/tts prefs) and are resolved at request time, so the
// effective precedence is: prefs > file config > environment > defaults.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/titanous/json5"
)

// Config is the root configuration.
type Config struct {
	Gateway   GatewayConfig   `json:"gateway"`
	Agent     AgentConfig     `json:"agent"`
	Messages  MessagesConfig  `json:"messages"`
	Channels  ChannelsConfig  `json:"channels"`
	Artifacts ArtifactsConfig `json:"artifacts"`
	History   HistoryConfig   `json:"history"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// GatewayConfig controls the WebSocket RPC server.
type GatewayConfig struct {
	Host            string `json:"host"`
	Port            int    `json:"port"`
	Token           string `json:"token"`
	RateLimitPerMin int    `json:"rateLimitPerMin"`
}

// AgentConfig identifies the primary chat model. The summarizer falls back
// to this model when messages.tts.summaryModel is unset.
type AgentConfig struct {
	Provider string `json:"provider"` // "openai" or any OpenAI-compatible endpoint
	Model    string `json:"model"`
	APIKey   string `json:"apiKey"`
	APIBase  string `json:"apiBase"`
}

// MessagesConfig groups outbound-message features.
type MessagesConfig struct {
	TTS TTSConfig `json:"tts"`
	// InboundDebounceMs merges rapid consecutive messages from one
	// sender into a single agent run. 0 disables merging.
	InboundDebounceMs int `json:"inboundDebounceMs"`
}

// TTSConfig is the static TTS configuration (messages.tts.*).
type TTSConfig struct {
	Enabled       bool   `json:"enabled"`
	Mode          string `json:"mode"` // "final" (default) or "all"
	Auto          string `json:"auto"` // "off", "always", "inbound", "tagged"
	Provider      string `json:"provider"`
	SummaryModel  string `json:"summaryModel"`
	Summarize     bool   `json:"summarize"`
	MaxTextLength int    `json:"maxTextLength"`
	TimeoutMs     int    `json:"timeoutMs"`
	PrefsPath     string `json:"prefsPath"`
	PrefsRedisURL string `json:"prefsRedisUrl"` // optional: Redis-backed prefs instead of the JSON file

	ModelOverrides ModelOverridesConfig `json:"modelOverrides"`

	OpenAI     OpenAITTSConfig     `json:"openai"`
	ElevenLabs ElevenLabsTTSConfig `json:"elevenlabs"`
	Edge       EdgeTTSConfig       `json:"edge"`
	MiniMax    MiniMaxTTSConfig    `json:"minimax"`
}

// ModelOverridesConfig controls which [[tts:...]] directive fields the model
// may set. Enabled and each Allow* default to true when omitted (nil).
type ModelOverridesConfig struct {
	Enabled *bool `json:"enabled"`

	AllowProvider      *bool `json:"allowProvider"`
	AllowVoice         *bool `json:"allowVoice"`
	AllowModel         *bool `json:"allowModel"`
	AllowVoiceSettings *bool `json:"allowVoiceSettings"`
	AllowLanguage      *bool `json:"allowLanguage"`
	AllowSeed          *bool `json:"allowSeed"`
	AllowNormalization *bool `json:"allowNormalization"`
}

// OpenAITTSConfig configures the OpenAI speech provider.
type OpenAITTSConfig struct {
	APIKey  string `json:"apiKey"`
	APIBase string `json:"apiBase"`
	Model   string `json:"model"`
	Voice   string `json:"voice"`
}

// ElevenLabsTTSConfig configures the ElevenLabs provider.
type ElevenLabsTTSConfig struct {
	APIKey  string `json:"apiKey"`
	BaseURL string `json:"baseUrl"`
	VoiceID string `json:"voiceId"`
	ModelID string `json:"modelId"`
}

// EdgeTTSConfig configures the keyless edge-tts CLI provider.
type EdgeTTSConfig struct {
	Enabled bool   `json:"enabled"`
	Voice   string `json:"voice"`
	Rate    string `json:"rate"`
}

// MiniMaxTTSConfig configures the MiniMax T2A provider.
type MiniMaxTTSConfig struct {
	APIKey  string `json:"apiKey"`
	GroupID string `json:"groupId"`
	APIBase string `json:"apiBase"`
	Model   string `json:"model"`
	VoiceID string `json:"voiceId"`
}

// ChannelsConfig holds per-channel adapter settings.
type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
	Slack    SlackConfig    `json:"slack"`
}

type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"botToken"`
}

type DiscordConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"botToken"`
}

type SlackConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"botToken"`
	AppToken string `json:"appToken"`
}

// ArtifactsConfig controls where synthesized audio files are written.
type ArtifactsConfig struct {
	Dir      string `json:"dir"`      // local directory; empty → os.TempDir()
	S3Bucket string `json:"s3Bucket"` // when set, audio is uploaded to S3
	S3Prefix string `json:"s3Prefix"`
	S3Region string `json:"s3Region"`
}

// HistoryConfig controls the synthesis history log.
type HistoryConfig struct {
	Path string `json:"path"` // SQLite file; empty → ~/.clawdbot/data/tts-history.db
}

// TelemetryConfig controls optional OTLP trace export.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled"`
	Endpoint    string `json:"endpoint"`
	Insecure    bool   `json:"insecure"`
	ServiceName string `json:"serviceName"`
}

// Default returns a config with built-in defaults applied.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host:            "127.0.0.1",
			Port:            8790,
			RateLimitPerMin: 120,
		},
		Agent: AgentConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			APIBase:  "https://api.openai.com/v1",
		},
		Messages: MessagesConfig{
			TTS: TTSConfig{
				Mode:          "final",
				Auto:          "off",
				Provider:      "openai",
				MaxTextLength: 1500,
				TimeoutMs:     30000,
			},
			InboundDebounceMs: 1000,
		},
	}
}

// HomeDir returns the Clawdbot home directory (~/.clawdbot).
func HomeDir() string {
	if v := os.Getenv("CLAWDBOT_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clawdbot"
	}
	return filepath.Join(home, ".clawdbot")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(HomeDir(), "config.json5")
}

// DefaultPrefsPath returns the default TTS preferences file path.
func DefaultPrefsPath() string {
	return filepath.Join(HomeDir(), "settings", "tts.json")
}

// DefaultHistoryPath returns the default synthesis history database path.
func DefaultHistoryPath() string {
	return filepath.Join(HomeDir(), "data", "tts-history.db")
}

// Load reads and parses the config file, then applies env overrides.
// A missing file yields defaults, not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Save writes the config as indented JSON (valid JSON5).
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides fills empty API keys and tokens from the environment.
// File-config values win over env; env wins over nothing.
func (c *Config) ApplyEnvOverrides() {
	if c.Messages.TTS.ElevenLabs.APIKey == "" {
		if v := os.Getenv("ELEVENLABS_API_KEY"); v != "" {
			c.Messages.TTS.ElevenLabs.APIKey = v
		} else if v := os.Getenv("XI_API_KEY"); v != "" {
			c.Messages.TTS.ElevenLabs.APIKey = v
		}
	}
	if c.Messages.TTS.OpenAI.APIKey == "" {
		c.Messages.TTS.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Messages.TTS.MiniMax.APIKey == "" {
		c.Messages.TTS.MiniMax.APIKey = os.Getenv("MINIMAX_API_KEY")
	}
	if c.Agent.APIKey == "" {
		c.Agent.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Gateway.Token == "" {
		c.Gateway.Token = os.Getenv("CLAWDBOT_GATEWAY_TOKEN")
	}
}

// ResolvedPrefsPath returns the preferences file path, defaulted.
func (c *Config) ResolvedPrefsPath() string {
	if c.Messages.TTS.PrefsPath != "" {
		return c.Messages.TTS.PrefsPath
	}
	return DefaultPrefsPath()
}

// ResolvedHistoryPath returns the history database path, defaulted.
func (c *Config) ResolvedHistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return DefaultHistoryPath()
}

// Hash returns a short content hash of the config, used for optimistic
// concurrency on config.patch.
func (c *Config) Hash() string {
	data, _ := json.Marshal(c)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// MaskedCopy returns a JSON-safe copy with secrets masked for display.
func (c *Config) MaskedCopy() map[string]interface{} {
	data, _ := json.Marshal(c)
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	maskSecrets(raw)
	return raw
}

// RestoreMaskedSecrets replaces masked secret values in c with the real
// values from prev. config.patch clients edit MaskedCopy output, so a
// value still containing the mask means "unchanged".
func (c *Config) RestoreMaskedSecrets(prev *Config) {
	restoreSecret(&c.Gateway.Token, prev.Gateway.Token)
	restoreSecret(&c.Agent.APIKey, prev.Agent.APIKey)
	restoreSecret(&c.Messages.TTS.OpenAI.APIKey, prev.Messages.TTS.OpenAI.APIKey)
	restoreSecret(&c.Messages.TTS.ElevenLabs.APIKey, prev.Messages.TTS.ElevenLabs.APIKey)
	restoreSecret(&c.Messages.TTS.MiniMax.APIKey, prev.Messages.TTS.MiniMax.APIKey)
	restoreSecret(&c.Channels.Telegram.BotToken, prev.Channels.Telegram.BotToken)
	restoreSecret(&c.Channels.Discord.BotToken, prev.Channels.Discord.BotToken)
	restoreSecret(&c.Channels.Slack.BotToken, prev.Channels.Slack.BotToken)
	restoreSecret(&c.Channels.Slack.AppToken, prev.Channels.Slack.AppToken)
}

func restoreSecret(field *string, prev string) {
	if strings.Contains(*field, "****") {
		*field = prev
	}
}

var secretKeys = map[string]bool{
	"apiKey": true, "token": true, "botToken": true, "appToken": true,
}

func maskSecrets(m map[string]interface{}) {
	for k, v := range m {
		if secretKeys[k] {
			if s, ok := v.(string); ok && s != "" {
				if len(s) > 8 {
					m[k] = s[:4] + "****" + s[len(s)-4:]
				} else {
					m[k] = "****"
				}
			}
			continue
		}
		if sub, ok := v.(map[string]interface{}); ok {
			maskSecrets(sub)
		}
	}
}
