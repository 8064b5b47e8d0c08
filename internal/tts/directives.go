package tts

import (
	"regexp"
	"strconv"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/clawdbot/clawdbot/internal/config"
)

// Policy is the set of directive fields a deployment permits the model to
// control. Derived from config; when Enabled is false the parser must not
// alter the reply text at all.
type Policy struct {
	Enabled bool

	AllowProvider      bool
	AllowVoice         bool
	AllowModel         bool
	AllowVoiceSettings bool
	AllowLanguage      bool
	AllowSeed          bool
	AllowNormalization bool
}

// ResolvePolicy derives the override policy from config. Enabled and every
// allow flag default to true when omitted. Pure, no side effects.
func ResolvePolicy(cfg config.ModelOverridesConfig) Policy {
	b := func(p *bool) bool {
		if p == nil {
			return true
		}
		return *p
	}
	return Policy{
		Enabled:            b(cfg.Enabled),
		AllowProvider:      b(cfg.AllowProvider),
		AllowVoice:         b(cfg.AllowVoice),
		AllowModel:         b(cfg.AllowModel),
		AllowVoiceSettings: b(cfg.AllowVoiceSettings),
		AllowLanguage:      b(cfg.AllowLanguage),
		AllowSeed:          b(cfg.AllowSeed),
		AllowNormalization: b(cfg.AllowNormalization),
	}
}

// DirectiveStatus tags the parse outcome so fail-open handling of malformed
// tags stays intentional and testable.
type DirectiveStatus int

const (
	DirectiveAbsent DirectiveStatus = iota
	DirectiveMatched
	DirectiveMalformed
)

// ParseResult is the output of ParseDirectives.
type ParseResult struct {
	CleanedText string    // reply text with directives stripped (policy permitting)
	TtsText     string    // speakable text from a [[tts:text]] block, if any
	Overrides   Overrides // honored override fields
	Status      DirectiveStatus
}

var (
	directiveTagRe = regexp.MustCompile(`\[\[tts(?::([^\]]*))?\]\]`)
	ttsTextBlockRe = regexp.MustCompile(`(?s)\[\[tts:text\]\](.*?)\[\[/tts:text\]\]`)
)

// ParseDirectives scans reply text for inline [[tts:key=value ...]] control
// tags and an optional [[tts:text]]...[[/tts:text]] block.
//
// When the policy is disabled the input is returned verbatim with empty
// overrides — tags stay visible to the end user, signaling the feature is
// off. When enabled, tags are stripped from the display text regardless of
// per-key denials; denied keys are parsed and then dropped. Malformed or
// unterminated tags are left in the text untouched (fail-open).
func ParseDirectives(text string, policy Policy) ParseResult {
	if !policy.Enabled {
		return ParseResult{CleanedText: text, Status: DirectiveAbsent}
	}

	res := ParseResult{Status: DirectiveAbsent}
	cleaned := text

	// Speakable-text block first, so its body is not scanned for tags.
	if m := ttsTextBlockRe.FindStringSubmatch(cleaned); m != nil {
		res.TtsText = strings.TrimSpace(m[1])
		cleaned = ttsTextBlockRe.ReplaceAllString(cleaned, "")
		res.Status = DirectiveMatched
	} else if strings.Contains(cleaned, "[[tts:text]]") {
		// Opening without closing tag: leave untouched.
		res.Status = DirectiveMalformed
	}

	matched := false
	cleaned = directiveTagRe.ReplaceAllStringFunc(cleaned, func(tag string) string {
		body := directiveTagRe.FindStringSubmatch(tag)[1]
		// "text" openers are handled above; an unmatched closer stays put.
		if body == "text" {
			return tag
		}
		applyDirectiveBody(body, policy, &res.Overrides)
		matched = true
		return ""
	})

	if matched {
		res.Status = DirectiveMatched
	} else if res.Status != DirectiveMatched && strings.Contains(cleaned, "[[tts") {
		res.Status = DirectiveMalformed
	}
	if strings.Contains(cleaned, "[[/tts:text]]") && res.TtsText == "" {
		res.Status = DirectiveMalformed
	}

	res.CleanedText = cleaned
	return res
}

// applyDirectiveBody parses one tag body ("key=value key2=value2 ...") into
// overrides, honoring the policy's per-key allowances. Unknown keys and
// unparseable values are ignored, never errors.
func applyDirectiveBody(body string, policy Policy, o *Overrides) {
	tokens, err := shellwords.Parse(body)
	if err != nil {
		// Unbalanced quotes: fall back to whitespace splitting.
		tokens = strings.Fields(body)
	}

	for _, tok := range tokens {
		key, value, ok := strings.Cut(tok, "=")
		if !ok || value == "" {
			continue
		}

		switch key {
		case "provider":
			if policy.AllowProvider && (value == "openai" || value == "elevenlabs") {
				o.Provider = value
			}
		case "voice":
			if policy.AllowVoice {
				o.OpenAI.Voice = value
			}
		case "voiceId":
			if policy.AllowVoice {
				o.ElevenLabs.VoiceID = value
			}
		case "model":
			if policy.AllowModel {
				o.OpenAI.Model = value
				o.ElevenLabs.ModelID = value
			}
		case "stability":
			if policy.AllowVoiceSettings {
				o.ElevenLabs.VoiceSettings.Stability = parseFloatField(value)
			}
		case "similarityBoost":
			if policy.AllowVoiceSettings {
				o.ElevenLabs.VoiceSettings.SimilarityBoost = parseFloatField(value)
			}
		case "style":
			if policy.AllowVoiceSettings {
				o.ElevenLabs.VoiceSettings.Style = parseFloatField(value)
			}
		case "speed":
			if policy.AllowVoiceSettings {
				o.ElevenLabs.VoiceSettings.Speed = parseFloatField(value)
			}
		case "useSpeakerBoost":
			if policy.AllowVoiceSettings {
				// true|false tokens only
				if value == "true" {
					v := true
					o.ElevenLabs.VoiceSettings.UseSpeakerBoost = &v
				} else if value == "false" {
					v := false
					o.ElevenLabs.VoiceSettings.UseSpeakerBoost = &v
				}
			}
		case "applyTextNormalization":
			if policy.AllowNormalization {
				if value == "auto" || value == "on" || value == "off" {
					o.ElevenLabs.ApplyTextNormalization = value
				}
			}
		case "languageCode":
			if policy.AllowLanguage {
				o.ElevenLabs.LanguageCode = value
			}
		case "seed":
			if policy.AllowSeed {
				if n, err := strconv.Atoi(value); err == nil {
					o.ElevenLabs.Seed = &n
				}
			}
		}
	}
}

// parseFloatField parses a numeric directive value; non-numeric values are
// dropped silently rather than erroring.
func parseFloatField(value string) *float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
