package tts

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clawdbot/clawdbot/internal/config"
)

// minSpeakableLength is the shortest trimmed reply worth synthesizing.
const minSpeakableLength = 10

// mediaMarker flags replies that already carry media; those never get audio.
const mediaMarker = "MEDIA:"

// Decision is the auto-TTS gate outcome for one outbound reply. Computed
// fresh per reply, never persisted.
type Decision int

const (
	DecisionSkipMedia Decision = iota // reply already carries media — send text only
	DecisionSkipShort                 // too short to speak — send text only
	DecisionWithinLimit               // synthesize directly
	DecisionOverLimitNoSummary        // over limit, no summarization path — send text only
	DecisionOverLimitSummarize        // summarize, then synthesize the summary
	DecisionSkipGate                  // auto/mode/inbound/tag gate declined before evaluation
)

func (d Decision) String() string {
	switch d {
	case DecisionSkipMedia:
		return "skip_media"
	case DecisionSkipShort:
		return "skip_short"
	case DecisionWithinLimit:
		return "within_limit"
	case DecisionOverLimitNoSummary:
		return "over_limit_no_summary"
	case DecisionOverLimitSummarize:
		return "over_limit_summarize"
	case DecisionSkipGate:
		return "skip_gate"
	}
	return "unknown"
}

// SynthRecord is one row of the synthesis history log.
type SynthRecord struct {
	At         time.Time
	Channel    string
	Provider   string
	Decision   string
	InputChars int
	AudioBytes int
	Summarized bool
	LatencyMs  int64
	Outcome    string // "ok" or "error"
	Error      string
}

// Recorder receives synthesis history records. Implementations must not
// block; failures are the recorder's problem, never the pipeline's.
type Recorder interface {
	Record(ctx context.Context, rec SynthRecord)
}

// Manager orchestrates the reply → audio pipeline: directive parsing,
// provider selection with one-shot fallback, summarization, and the
// auto-TTS decision gate.
type Manager struct {
	mu        sync.RWMutex
	cfg       config.TTSConfig
	providers map[string]Provider
	order     []string // registration order, used for fallback

	prefs      PrefsStore
	summarizer *Summarizer
	recorder   Recorder
	tracer     trace.Tracer
}

// NewManager creates a TTS manager. prefs may be nil (no per-host
// overrides), summarizer may be nil (no summarization path), recorder may
// be nil (no history).
func NewManager(cfg config.TTSConfig, prefs PrefsStore, summarizer *Summarizer, recorder Recorder) *Manager {
	return &Manager{
		cfg:        cfg,
		providers:  make(map[string]Provider),
		prefs:      prefs,
		summarizer: summarizer,
		recorder:   recorder,
		tracer:     otel.Tracer("clawdbot/tts"),
	}
}

// RegisterProvider adds a synthesis provider. Registration order is the
// fallback order.
func (m *Manager) RegisterProvider(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.providers[p.Name()]; !dup {
		m.order = append(m.order, p.Name())
	}
	m.providers[p.Name()] = p
}

// Provider returns a provider by name.
func (m *Manager) Provider(name string) (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[name]
	return p, ok
}

// Providers returns all providers in registration order.
func (m *Manager) Providers() []Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Provider, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.providers[name])
	}
	return out
}

// SetConfig swaps the static config (hot reload).
func (m *Manager) SetConfig(cfg config.TTSConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

// Config returns the current static config.
func (m *Manager) Config() config.TTSConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Settings resolves the effective settings for one request: per-host
// preferences layered over the static config, evaluated fresh.
func (m *Manager) Settings(ctx context.Context) Settings {
	cfg := m.Config()
	var p Prefs
	if m.prefs != nil {
		var err error
		if p, err = m.prefs.Get(ctx); err != nil {
			slog.Warn("tts prefs read failed, using config only", "error", err)
		}
	}
	return ResolveSettings(cfg, p)
}

// UpdatePrefs runs a read-modify-write cycle on the preference store.
func (m *Manager) UpdatePrefs(ctx context.Context, mutate func(*Prefs)) error {
	if m.prefs == nil {
		return fmt.Errorf("no preference store configured")
	}
	p, err := m.prefs.Get(ctx)
	if err != nil {
		return err
	}
	mutate(&p)
	return m.prefs.Set(ctx, p)
}

// Policy resolves the directive override policy from the current config.
func (m *Manager) Policy() Policy {
	return ResolvePolicy(m.Config().ModelOverrides)
}

// SelectProvider picks the synthesis provider for the given settings.
// Selection-time fallback, applied once: when the configured primary lacks
// credentials but the other keyed provider has them, swap. When nothing is
// configured, TTS is unavailable.
func (m *Manager) SelectProvider(settings Settings) (Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.providers[settings.Provider]; ok && p.Configured() {
		return p, nil
	}

	// Primary unusable: swap openai ↔ elevenlabs first.
	other := map[string]string{"openai": "elevenlabs", "elevenlabs": "openai"}[settings.Provider]
	if p, ok := m.providers[other]; ok && p.Configured() {
		return p, nil
	}

	// Then anything configured, in registration order.
	for _, name := range m.order {
		if p := m.providers[name]; p.Configured() {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no tts provider configured")
}

// Evaluate runs the auto-TTS decision gate over already-cleaned text.
// canSummarize is whether a summarization path exists (summarizer wired
// and summary-model credentials present).
func (m *Manager) Evaluate(text string, settings Settings, canSummarize bool) Decision {
	if strings.Contains(text, mediaMarker) {
		return DecisionSkipMedia
	}
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minSpeakableLength {
		return DecisionSkipShort
	}
	if len(trimmed) <= settings.MaxLength {
		return DecisionWithinLimit
	}
	if !settings.Summarize || !canSummarize {
		return DecisionOverLimitNoSummary
	}
	return DecisionOverLimitSummarize
}

// SynthesizeWithFallback tries the given primary, then every other
// configured provider once, in registration order. Single attempt per
// provider, no retries.
func (m *Manager) SynthesizeWithFallback(ctx context.Context, primary Provider, text string, opts Options) (*SynthResult, error) {
	result, err := primary.Synthesize(ctx, text, opts)
	if err == nil {
		return result, nil
	}
	slog.Warn("tts primary provider failed, trying fallback", "provider", primary.Name(), "error", err)

	for _, p := range m.Providers() {
		if p.Name() == primary.Name() || !p.Configured() {
			continue
		}
		result, ferr := p.Synthesize(ctx, text, opts)
		if ferr == nil {
			slog.Info("tts fallback succeeded", "provider", p.Name())
			return result, nil
		}
		slog.Warn("tts fallback provider failed", "provider", p.Name(), "error", ferr)
	}
	return nil, fmt.Errorf("all tts providers failed: %w", err)
}

// ApplyRequest describes one outbound reply offered to the auto-TTS gate.
type ApplyRequest struct {
	Text           string
	Channel        string
	IsVoiceInbound bool   // the user's message was audio/voice
	Kind           string // "final", "tool", or "block"
}

// ApplyResult is the outcome of MaybeApply. Audio is nil whenever the
// reply stays text-only; CleanedText is always safe to send.
type ApplyResult struct {
	CleanedText string
	Audio       *SynthResult
	Decision    Decision
	Summarized  bool
}

// MaybeApply runs the full pipeline for one outbound reply. Audio is
// best-effort: every failure path degrades to the text reply, never to an
// error shown to the chat user.
func (m *Manager) MaybeApply(ctx context.Context, req ApplyRequest) ApplyResult {
	settings := m.Settings(ctx)
	parsed := ParseDirectives(req.Text, m.Policy())
	res := ApplyResult{CleanedText: parsed.CleanedText}

	if !settings.Enabled || settings.Auto == AutoOff {
		res.Decision = DecisionSkipGate
		return res
	}
	if settings.Mode == ModeFinal && (req.Kind == "tool" || req.Kind == "block") {
		res.Decision = DecisionSkipGate
		return res
	}
	switch settings.Auto {
	case AutoInbound:
		if !req.IsVoiceInbound {
			res.Decision = DecisionSkipGate
			return res
		}
	case AutoTagged:
		if parsed.Status != DirectiveMatched {
			res.Decision = DecisionSkipGate
			return res
		}
	}

	speak := parsed.TtsText
	if speak == "" {
		speak = stripMarkdown(parsed.CleanedText)
	}
	speak = strings.TrimSpace(speak)

	res.Decision = m.Evaluate(speak, settings, m.summarizer != nil)
	switch res.Decision {
	case DecisionSkipMedia, DecisionSkipShort, DecisionOverLimitNoSummary:
		m.record(ctx, req.Channel, "", res.Decision, len(speak), nil, false, 0, nil)
		return res
	case DecisionOverLimitSummarize:
		sum, err := m.summarizer.SummarizeText(ctx, SummarizeRequest{
			Text:         speak,
			TargetLength: clampSummaryTarget(settings.MaxLength),
			Model:        m.Config().SummaryModel,
			TimeoutMs:    settings.TimeoutMs,
		})
		if err != nil {
			slog.Warn("tts summarization failed, sending text only", "error", err)
			m.record(ctx, req.Channel, "", res.Decision, len(speak), nil, true, 0, err)
			return res
		}
		speak = sum.Summary
		res.Summarized = true
	}

	audio, err := m.synthesize(ctx, speak, req.Channel, settings, parsed.Overrides)
	if err != nil {
		slog.Warn("tts auto-apply failed, sending text only", "channel", req.Channel, "error", err)
		return res
	}
	res.Audio = audio
	return res
}

// Convert synthesizes text on explicit request (tts.convert, /tts audio),
// bypassing the auto gate but honoring directives and provider selection.
func (m *Manager) Convert(ctx context.Context, text, channel string) (*SynthResult, OutputFormat, error) {
	format := ResolveOutputFormat(channel)
	if strings.TrimSpace(text) == "" {
		return nil, format, fmt.Errorf("text is required")
	}

	parsed := ParseDirectives(text, m.Policy())
	speak := parsed.TtsText
	if speak == "" {
		speak = stripMarkdown(parsed.CleanedText)
	}

	settings := m.Settings(ctx)
	audio, err := m.synthesize(ctx, strings.TrimSpace(speak), channel, settings, parsed.Overrides)
	return audio, format, err
}

// synthesize resolves provider + format and runs one synthesis with
// fallback, recording the outcome.
func (m *Manager) synthesize(ctx context.Context, text, channel string, settings Settings, overrides Overrides) (*SynthResult, error) {
	if overrides.Provider != "" {
		settings.Provider = overrides.Provider
	}
	primary, err := m.SelectProvider(settings)
	if err != nil {
		return nil, err
	}

	opts := Options{
		Format:    ResolveOutputFormat(channel),
		Overrides: overrides,
	}

	ctx, span := m.tracer.Start(ctx, "tts.synthesize", trace.WithAttributes(
		attribute.String("tts.provider", primary.Name()),
		attribute.String("tts.channel", channel),
		attribute.Int("tts.input_chars", len(text)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(settings.TimeoutMs)*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := m.SynthesizeWithFallback(ctx, primary, text, opts)
	latency := time.Since(start).Milliseconds()
	m.record(ctx, channel, primary.Name(), DecisionWithinLimit, len(text), result, false, latency, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

func (m *Manager) record(ctx context.Context, channel, provider string, d Decision, inputChars int, result *SynthResult, summarized bool, latencyMs int64, err error) {
	if m.recorder == nil {
		return
	}
	rec := SynthRecord{
		At:         time.Now(),
		Channel:    channel,
		Provider:   provider,
		Decision:   d.String(),
		InputChars: inputChars,
		Summarized: summarized,
		LatencyMs:  latencyMs,
		Outcome:    "ok",
	}
	if result != nil {
		rec.AudioBytes = len(result.Audio)
		rec.Provider = result.Provider
	}
	if err != nil {
		rec.Outcome = "error"
		rec.Error = err.Error()
	}
	m.recorder.Record(ctx, rec)
}

// clampSummaryTarget maps the configured max length into the summarizer's
// accepted target range.
func clampSummaryTarget(maxLength int) int {
	if maxLength < MinSummaryTarget {
		return MinSummaryTarget
	}
	if maxLength > MaxSummaryTarget {
		return MaxSummaryTarget
	}
	return maxLength
}

// --- Text helpers ---

var (
	codeBlockRe  = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]+)\*`)
	underBoldRe  = regexp.MustCompile("__([^_]+)__")
	underItalRe  = regexp.MustCompile("_([^_]+)_")
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headerRe     = regexp.MustCompile(`(?m)^#+\s+`)
)

// stripMarkdown removes common markdown so synthesis input reads cleanly.
// Code blocks are dropped entirely; everything else keeps its content.
func stripMarkdown(text string) string {
	text = codeBlockRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = underBoldRe.ReplaceAllString(text, "$1")
	text = underItalRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	text = headerRe.ReplaceAllString(text, "")
	return text
}
