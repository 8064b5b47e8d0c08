package tts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/clawdbot/clawdbot/internal/config"
)

// Prefs are the per-host preference overrides mutated by slash-command and
// RPC handlers. Unset pointer fields fall through to file config.
type Prefs struct {
	Enabled   *bool  `json:"enabled,omitempty"`
	Provider  string `json:"provider,omitempty"`
	MaxLength int    `json:"maxLength,omitempty"`
	Summarize *bool  `json:"summarize,omitempty"`
}

// PrefsStore is a narrow read/write interface over the preference record.
// Implementations must rewrite the record in full on each mutation.
type PrefsStore interface {
	Get(ctx context.Context) (Prefs, error)
	Set(ctx context.Context, p Prefs) error
}

// FilePrefs persists preferences as a small JSON file, rewritten in full on
// each change. Writes are serialized within this process by the mutex;
// concurrent writers in other processes are last-write-wins (writes only
// originate from serialized slash-command handling).
type FilePrefs struct {
	path string
	mu   sync.Mutex
}

// NewFilePrefs creates a file-backed preference store at path
// (e.g. ~/.clawdbot/settings/tts.json).
func NewFilePrefs(path string) *FilePrefs {
	return &FilePrefs{path: path}
}

func (f *FilePrefs) Get(_ context.Context) (Prefs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Prefs{}, nil
		}
		return Prefs{}, fmt.Errorf("read tts prefs: %w", err)
	}

	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt prefs file must not take TTS down; start fresh.
		slog.Warn("tts prefs file unreadable, ignoring", "path", f.path, "error", err)
		return Prefs{}, nil
	}
	return p, nil
}

func (f *FilePrefs) Set(_ context.Context, p Prefs) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal tts prefs: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("write tts prefs: %w", err)
	}
	return nil
}

// redisPrefsKey holds the serialized Prefs record in Redis deployments.
const redisPrefsKey = "clawdbot:tts:prefs"

// RedisPrefs stores the preference record in Redis for multi-host
// deployments. Same full-rewrite contract as FilePrefs.
type RedisPrefs struct {
	rdb *redis.Client
}

// NewRedisPrefs creates a Redis-backed preference store from a redis:// URL.
func NewRedisPrefs(url string) (*RedisPrefs, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisPrefs{rdb: redis.NewClient(opts)}, nil
}

func (r *RedisPrefs) Get(ctx context.Context) (Prefs, error) {
	data, err := r.rdb.Get(ctx, redisPrefsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Prefs{}, nil
		}
		return Prefs{}, fmt.Errorf("read tts prefs from redis: %w", err)
	}
	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("tts prefs in redis unreadable, ignoring", "error", err)
		return Prefs{}, nil
	}
	return p, nil
}

func (r *RedisPrefs) Set(ctx context.Context, p Prefs) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal tts prefs: %w", err)
	}
	if err := r.rdb.Set(ctx, redisPrefsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("write tts prefs to redis: %w", err)
	}
	return nil
}

// OpenPrefsStore picks the preference backend from config: Redis when a
// prefsRedisUrl is set, the JSON file otherwise.
func OpenPrefsStore(cfg config.TTSConfig, filePath string) (PrefsStore, error) {
	if cfg.PrefsRedisURL != "" {
		return NewRedisPrefs(cfg.PrefsRedisURL)
	}
	return NewFilePrefs(filePath), nil
}

// ResolveSettings layers per-host preferences over file config over
// built-in defaults. Evaluated fresh per call, never cached.
func ResolveSettings(cfg config.TTSConfig, p Prefs) Settings {
	s := Settings{
		Enabled:   cfg.Enabled,
		Provider:  cfg.Provider,
		MaxLength: cfg.MaxTextLength,
		Summarize: cfg.Summarize,
		TimeoutMs: cfg.TimeoutMs,
		Auto:      AutoMode(cfg.Auto),
		Mode:      Mode(cfg.Mode),
	}
	if s.Provider == "" {
		s.Provider = "openai"
	}
	if s.MaxLength <= 0 {
		s.MaxLength = 1500
	}
	if s.TimeoutMs <= 0 {
		s.TimeoutMs = 30000
	}
	if s.Auto == "" {
		s.Auto = AutoOff
	}
	if s.Mode == "" {
		s.Mode = ModeFinal
	}

	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.Provider != "" {
		s.Provider = p.Provider
	}
	if p.MaxLength > 0 {
		s.MaxLength = p.MaxLength
	}
	if p.Summarize != nil {
		s.Summarize = *p.Summarize
	}
	return s
}
