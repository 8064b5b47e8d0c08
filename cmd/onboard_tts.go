package cmd

import (
	"fmt"

	"github.com/clawdbot/clawdbot/internal/config"
)

// promptTTSConfig runs the TTS setup prompts and writes the answers into
// cfg. Returns early on any error (e.g. Ctrl+C).
func promptTTSConfig(cfg *config.Config) error {
	provider, err := promptSelect("TTS provider (text-to-speech for replies)", []SelectOption[string]{
		{"None (disabled)", "none"},
		{"OpenAI     (gpt-4o-mini-tts, alloy voice)", "openai"},
		{"ElevenLabs (high quality, multilingual)", "elevenlabs"},
		{"MiniMax    (speech-02-hd)", "minimax"},
		{"Edge       (free Microsoft Edge TTS, no API key)", "edge"},
	}, 0)
	if err != nil {
		return err
	}
	if provider == "none" {
		cfg.Messages.TTS.Enabled = false
		return nil
	}
	cfg.Messages.TTS.Enabled = true
	cfg.Messages.TTS.Provider = provider
	if provider == "edge" {
		cfg.Messages.TTS.Edge.Enabled = true
	}

	autoMode, err := promptSelect("Auto-TTS mode", []SelectOption[string]{
		{"Off      (explicit /tts audio or tts.convert only)", "off"},
		{"Always   (all replies get audio)", "always"},
		{"Inbound  (only when the user sends voice)", "inbound"},
		{"Tagged   (only replies carrying a [[tts]] tag)", "tagged"},
	}, 0)
	if err != nil {
		return err
	}
	cfg.Messages.TTS.Auto = autoMode

	if provider != "edge" {
		key, err := promptPassword("TTS API key", "Stored in the OS keyring when available")
		if err != nil {
			return err
		}
		switch provider {
		case "openai":
			storeKey("openai_api_key", key, &cfg.Messages.TTS.OpenAI.APIKey)
		case "elevenlabs":
			storeKey("elevenlabs_api_key", key, &cfg.Messages.TTS.ElevenLabs.APIKey)
		case "minimax":
			storeKey("minimax_api_key", key, &cfg.Messages.TTS.MiniMax.APIKey)
			groupID, err := promptString("MiniMax Group ID", "Required for MiniMax TTS", cfg.Messages.TTS.MiniMax.GroupID)
			if err != nil {
				return err
			}
			cfg.Messages.TTS.MiniMax.GroupID = groupID
		}
	}

	summarize, err := promptConfirm("Summarize over-limit replies before synthesis?", cfg.Messages.TTS.Summarize)
	if err != nil {
		return err
	}
	cfg.Messages.TTS.Summarize = summarize

	fmt.Println()
	return nil
}
