package tts

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/clawdbot/clawdbot/internal/config"
)

// EdgeProvider synthesizes speech via Microsoft Edge TTS — free, no API
// key. Requires the `edge-tts` CLI (pip install edge-tts). Output is
// always MP3, so Edge never serves the Telegram voice-bubble path; it is
// a last-resort fallback when no keyed provider is configured.
type EdgeProvider struct {
	voice     string
	rate      string
	timeoutMs int
}

// NewEdgeProvider creates an Edge TTS provider.
func NewEdgeProvider(cfg config.EdgeTTSConfig, timeoutMs int) *EdgeProvider {
	p := &EdgeProvider{
		voice:     cfg.Voice,
		rate:      cfg.Rate,
		timeoutMs: timeoutMs,
	}
	if p.voice == "" {
		p.voice = "en-US-MichelleNeural"
	}
	if p.timeoutMs <= 0 {
		p.timeoutMs = 30000
	}
	return p
}

func (p *EdgeProvider) Name() string { return "edge" }

// Configured is always true: Edge needs no credentials, only the CLI tool.
func (p *EdgeProvider) Configured() bool { return true }

// Synthesize shells out to edge-tts. Directive overrides do not apply to
// Edge (its voice vocabulary is disjoint from the override keys).
func (p *EdgeProvider) Synthesize(ctx context.Context, text string, _ Options) (*SynthResult, error) {
	outPath := filepath.Join(os.TempDir(), fmt.Sprintf("edge-tts-%d.mp3", time.Now().UnixNano()))
	defer os.Remove(outPath)

	args := []string{"--voice", p.voice, "--text", text, "--write-media", outPath}
	if p.rate != "" {
		args = append(args, "--rate", p.rate)
	}

	cmdCtx, cancel := context.WithTimeout(ctx, time.Duration(p.timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "edge-tts", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("edge-tts failed: %w (output: %s)", err, string(out))
	}

	audio, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read edge-tts output: %w", err)
	}

	return &SynthResult{
		Audio:     audio,
		Extension: ".mp3",
		MimeType:  "audio/mpeg",
		Provider:  p.Name(),
	}, nil
}
