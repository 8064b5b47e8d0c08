// Package tts implements the outbound reply → audio pipeline: directive
// parsing, override policy, provider selection with one-shot fallback,
// summarization of over-length replies, and the auto-TTS decision gate.
//
// Supported providers: OpenAI, ElevenLabs, Edge (Microsoft), MiniMax.
// Auto modes: off, always, inbound, tagged.
package tts

import "context"

// Provider synthesizes text into audio bytes.
type Provider interface {
	Name() string
	// Configured reports whether the provider has the credentials it needs.
	Configured() bool
	Synthesize(ctx context.Context, text string, opts Options) (*SynthResult, error)
}

// Options controls a single synthesis call.
type Options struct {
	Format    OutputFormat
	Overrides Overrides
}

// SynthResult is the output of a TTS synthesis.
type SynthResult struct {
	Audio     []byte // raw audio bytes
	Extension string // file extension with dot: ".mp3", ".opus"
	MimeType  string // e.g. "audio/mpeg", "audio/ogg"
	Provider  string // provider that produced the audio
}

// Overrides is the sparse per-reply override record produced by the
// directive parser. Created fresh per reply, consumed once, never persisted.
type Overrides struct {
	Provider   string // "openai" or "elevenlabs"
	OpenAI     OpenAIOverrides
	ElevenLabs ElevenLabsOverrides
}

// OpenAIOverrides are OpenAI-specific directive fields.
type OpenAIOverrides struct {
	Voice string
	Model string
}

// ElevenLabsOverrides are ElevenLabs-specific directive fields.
type ElevenLabsOverrides struct {
	VoiceID                string
	ModelID                string
	VoiceSettings          VoiceSettings
	ApplyTextNormalization string // "auto", "on", "off"
	LanguageCode           string
	Seed                   *int
}

// VoiceSettings mirror the ElevenLabs voice_settings object. Pointers
// distinguish "not set" from zero.
type VoiceSettings struct {
	Stability       *float64
	SimilarityBoost *float64
	Style           *float64
	Speed           *float64
	UseSpeakerBoost *bool
}

// IsZero reports whether no override field is set.
func (o Overrides) IsZero() bool {
	return o.Provider == "" &&
		o.OpenAI == (OpenAIOverrides{}) &&
		o.ElevenLabs.VoiceID == "" && o.ElevenLabs.ModelID == "" &&
		o.ElevenLabs.ApplyTextNormalization == "" && o.ElevenLabs.LanguageCode == "" &&
		o.ElevenLabs.Seed == nil &&
		o.ElevenLabs.VoiceSettings == (VoiceSettings{})
}

// AutoMode controls when TTS is automatically applied to outbound replies.
type AutoMode string

const (
	AutoOff     AutoMode = "off"     // disabled
	AutoAlways  AutoMode = "always"  // apply to all eligible replies
	AutoInbound AutoMode = "inbound" // only if the user sent audio/voice
	AutoTagged  AutoMode = "tagged"  // only if the reply contains a [[tts]] directive
)

// Mode controls which reply kinds get TTS.
type Mode string

const (
	ModeFinal Mode = "final" // only final replies (default)
	ModeAll   Mode = "all"   // all replies including tool/block
)

// Settings is the effective TTS configuration for one request, after
// layering per-host preferences over file config over defaults.
type Settings struct {
	Enabled   bool
	Provider  string
	MaxLength int
	Summarize bool
	TimeoutMs int
	Auto      AutoMode
	Mode      Mode
}
