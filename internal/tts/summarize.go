package tts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/clawdbot/clawdbot/internal/providers"
)

// Summarizer bounds for targetLength, inclusive.
const (
	MinSummaryTarget = 100
	MaxSummaryTarget = 10000
)

// Fixed generation budget for summarization calls.
const (
	summaryMaxTokens   = 250
	summaryTemperature = 0.3
)

const summarySystemPrompt = `You condense chat replies so they can be read aloud.
Rewrite the user's text to at most %d characters.
Keep the key facts and the original tone. Plain prose only: no markdown, no lists, no preamble.`

// SummarizeRequest describes one summarization call.
type SummarizeRequest struct {
	Text         string
	TargetLength int
	Model        string
	TimeoutMs    int
}

// SummarizeResult reports the outcome of a summarization call.
type SummarizeResult struct {
	Summary      string
	InputLength  int
	OutputLength int
	LatencyMs    int64
}

// Summarizer shortens over-length reply text before synthesis by invoking
// a chat model with a fixed generation budget.
type Summarizer struct {
	client providers.ChatClient
	model  string // default model when the request names none
}

// NewSummarizer creates a summarizer. model is the fallback when a request
// does not name one (the configured summaryModel or the primary agent
// model, resolved by the caller).
func NewSummarizer(client providers.ChatClient, model string) *Summarizer {
	return &Summarizer{client: client, model: model}
}

// SummarizeText validates bounds, invokes the model, and returns the
// summary. An empty or whitespace-only model response is a hard error —
// falling back to the original text is the caller's decision, not ours.
func (s *Summarizer) SummarizeText(ctx context.Context, req SummarizeRequest) (*SummarizeResult, error) {
	if req.TargetLength < MinSummaryTarget || req.TargetLength > MaxSummaryTarget {
		return nil, fmt.Errorf("invalid targetLength %d: must be between %d and %d",
			req.TargetLength, MinSummaryTarget, MaxSummaryTarget)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("invalid text: empty")
	}

	model := req.Model
	if model == "" {
		model = s.model
	}

	timeoutMs := req.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = 30000
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	input := clampPromptTokens(req.Text, model)

	start := time.Now()
	out, err := s.client.Complete(ctx, providers.ChatRequest{
		Model: model,
		Messages: []providers.Message{
			{Role: "system", Content: fmt.Sprintf(summarySystemPrompt, req.TargetLength)},
			{Role: "user", Content: input},
		},
		MaxTokens:   summaryMaxTokens,
		Temperature: summaryTemperature,
	})
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	summary := strings.TrimSpace(out)
	if summary == "" {
		return nil, fmt.Errorf("summarize: no summary returned")
	}

	slog.Debug("tts summary generated",
		"model", model,
		"input_chars", len(req.Text),
		"output_chars", len(summary),
		"latency_ms", latency,
	)

	return &SummarizeResult{
		Summary:      summary,
		InputLength:  len(req.Text),
		OutputLength: len(summary),
		LatencyMs:    latency,
	}, nil
}

// maxPromptTokens caps the summarizer input so an enormous reply cannot
// blow the model's context window.
const maxPromptTokens = 6000

// clampPromptTokens truncates text to maxPromptTokens using the model's
// tokenizer. Unknown models fall back to a conservative byte cap.
func clampPromptTokens(text, model string) string {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		if enc, err = tiktoken.GetEncoding("cl100k_base"); err != nil {
			if len(text) > maxPromptTokens*4 {
				return text[:maxPromptTokens*4]
			}
			return text
		}
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxPromptTokens {
		return text
	}
	return enc.Decode(tokens[:maxPromptTokens])
}
