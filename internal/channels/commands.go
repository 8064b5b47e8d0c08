package channels

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/clawdbot/clawdbot/internal/tts"
)

// CommandResponse is the adapter-agnostic result of a /tts command.
type CommandResponse struct {
	Text  string
	Audio *tts.SynthResult
}

const ttsHelp = "Usage: /tts on|off|status|provider <name>|limit <n>|summary on|off|audio <text>"

// HandleTtsCommand processes a /tts slash command. Returns handled=false
// for anything that is not a /tts command, so the adapter passes the
// message on to the normal pipeline.
func HandleTtsCommand(ctx context.Context, m *tts.Manager, channel, text string) (CommandResponse, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return CommandResponse{}, false
	}
	// Telegram uses /tts; Discord and Slack take the !tts form too.
	switch strings.ToLower(firstWord(fields[0])) {
	case "/tts", "!tts":
	default:
		return CommandResponse{}, false
	}

	if len(fields) == 1 {
		return statusResponse(ctx, m), true
	}

	switch strings.ToLower(fields[1]) {
	case "status":
		return statusResponse(ctx, m), true

	case "on", "off":
		enabled := strings.ToLower(fields[1]) == "on"
		if err := m.UpdatePrefs(ctx, func(p *tts.Prefs) { p.Enabled = &enabled }); err != nil {
			return CommandResponse{Text: "Could not update TTS settings: " + err.Error()}, true
		}
		if enabled {
			return CommandResponse{Text: "TTS enabled."}, true
		}
		return CommandResponse{Text: "TTS disabled."}, true

	case "provider":
		if len(fields) < 3 {
			return CommandResponse{Text: ttsHelp}, true
		}
		name := strings.ToLower(fields[2])
		if _, ok := m.Provider(name); !ok {
			return CommandResponse{Text: "Unknown provider: " + name}, true
		}
		if err := m.UpdatePrefs(ctx, func(p *tts.Prefs) { p.Provider = name }); err != nil {
			return CommandResponse{Text: "Could not update TTS settings: " + err.Error()}, true
		}
		return CommandResponse{Text: "TTS provider set to " + name + "."}, true

	case "limit":
		if len(fields) < 3 {
			return CommandResponse{Text: ttsHelp}, true
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil || n <= 0 {
			return CommandResponse{Text: "Limit must be a positive number."}, true
		}
		if err := m.UpdatePrefs(ctx, func(p *tts.Prefs) { p.MaxLength = n }); err != nil {
			return CommandResponse{Text: "Could not update TTS settings: " + err.Error()}, true
		}
		return CommandResponse{Text: fmt.Sprintf("TTS length limit set to %d characters.", n)}, true

	case "summary":
		if len(fields) < 3 {
			return CommandResponse{Text: ttsHelp}, true
		}
		var on bool
		switch strings.ToLower(fields[2]) {
		case "on":
			on = true
		case "off":
			on = false
		default:
			return CommandResponse{Text: ttsHelp}, true
		}
		if err := m.UpdatePrefs(ctx, func(p *tts.Prefs) { p.Summarize = &on }); err != nil {
			return CommandResponse{Text: "Could not update TTS settings: " + err.Error()}, true
		}
		if on {
			return CommandResponse{Text: "Long replies will be summarized before synthesis."}, true
		}
		return CommandResponse{Text: "Summarization disabled; long replies stay text-only."}, true

	case "audio":
		rest := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))
		rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[1]))
		if rest == "" {
			return CommandResponse{Text: "Usage: /tts audio <text>"}, true
		}
		result, _, err := m.Convert(ctx, rest, channel)
		if err != nil {
			return CommandResponse{Text: "Synthesis failed: " + err.Error()}, true
		}
		return CommandResponse{Audio: result}, true

	default:
		return CommandResponse{Text: ttsHelp}, true
	}
}

func statusResponse(ctx context.Context, m *tts.Manager) CommandResponse {
	s := m.Settings(ctx)
	state := "off"
	if s.Enabled {
		state = "on"
	}
	summary := "off"
	if s.Summarize {
		summary = "on"
	}
	var configured []string
	for _, p := range m.Providers() {
		if p.Configured() {
			configured = append(configured, p.Name())
		}
	}
	return CommandResponse{Text: fmt.Sprintf(
		"TTS: %s\nProvider: %s\nLimit: %d chars\nSummary: %s\nAuto: %s\nConfigured: %s",
		state, s.Provider, s.MaxLength, summary, s.Auto, strings.Join(configured, ", "),
	)}
}

// firstWord strips a bot mention suffix ("/tts@mybot" → "/tts").
func firstWord(cmd string) string {
	return strings.SplitN(cmd, "@", 2)[0]
}
