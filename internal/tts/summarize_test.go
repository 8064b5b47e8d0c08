package tts

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/clawdbot/clawdbot/internal/providers"
)

// fakeChatClient returns a canned response (or error) and records the last
// request it saw.
type fakeChatClient struct {
	response string
	err      error
	lastReq  providers.ChatRequest
	calls    int
}

func (f *fakeChatClient) Complete(_ context.Context, req providers.ChatRequest) (string, error) {
	f.calls++
	f.lastReq = req
	return f.response, f.err
}

func TestSummarizeText_TargetLengthBounds(t *testing.T) {
	s := NewSummarizer(&fakeChatClient{response: "short"}, "gpt-4o-mini")
	ctx := context.Background()

	if _, err := s.SummarizeText(ctx, SummarizeRequest{Text: "hello world", TargetLength: 99}); err == nil {
		t.Error("targetLength=99 must be rejected")
	}
	if _, err := s.SummarizeText(ctx, SummarizeRequest{Text: "hello world", TargetLength: 10001}); err == nil {
		t.Error("targetLength=10001 must be rejected")
	}
	if _, err := s.SummarizeText(ctx, SummarizeRequest{Text: "hello world", TargetLength: 100}); err != nil {
		t.Errorf("targetLength=100 must be accepted: %v", err)
	}
	if _, err := s.SummarizeText(ctx, SummarizeRequest{Text: "hello world", TargetLength: 10000}); err != nil {
		t.Errorf("targetLength=10000 must be accepted: %v", err)
	}
}

func TestSummarizeText_EmptyResponseIsHardFailure(t *testing.T) {
	for _, resp := range []string{"", "   ", "\n\t  \n"} {
		s := NewSummarizer(&fakeChatClient{response: resp}, "gpt-4o-mini")
		_, err := s.SummarizeText(context.Background(), SummarizeRequest{
			Text: "some long reply", TargetLength: 200,
		})
		if err == nil {
			t.Errorf("response %q: expected error", resp)
			continue
		}
		if !strings.Contains(err.Error(), "no summary returned") {
			t.Errorf("response %q: expected 'no summary returned', got %v", resp, err)
		}
	}
}

func TestSummarizeText_Success(t *testing.T) {
	client := &fakeChatClient{response: "  A concise recap.  "}
	s := NewSummarizer(client, "gpt-4o-mini")

	res, err := s.SummarizeText(context.Background(), SummarizeRequest{
		Text: strings.Repeat("words ", 100), TargetLength: 300,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Summary != "A concise recap." {
		t.Errorf("summary not trimmed: %q", res.Summary)
	}
	if res.InputLength != 600 {
		t.Errorf("inputLength: got %d", res.InputLength)
	}
	if res.OutputLength != len("A concise recap.") {
		t.Errorf("outputLength: got %d", res.OutputLength)
	}
	if client.lastReq.MaxTokens != 250 {
		t.Errorf("generation budget: got %d", client.lastReq.MaxTokens)
	}
	if client.lastReq.Temperature != 0.3 {
		t.Errorf("temperature: got %v", client.lastReq.Temperature)
	}
}

func TestSummarizeText_ModelResolution(t *testing.T) {
	client := &fakeChatClient{response: "ok summary"}
	s := NewSummarizer(client, "default-model")

	s.SummarizeText(context.Background(), SummarizeRequest{Text: "text", TargetLength: 150})
	if client.lastReq.Model != "default-model" {
		t.Errorf("expected fallback model, got %q", client.lastReq.Model)
	}

	s.SummarizeText(context.Background(), SummarizeRequest{
		Text: "text", TargetLength: 150, Model: "explicit-model",
	})
	if client.lastReq.Model != "explicit-model" {
		t.Errorf("expected explicit model, got %q", client.lastReq.Model)
	}
}

func TestSummarizeText_ProviderErrorPropagates(t *testing.T) {
	s := NewSummarizer(&fakeChatClient{err: fmt.Errorf("boom")}, "m")
	_, err := s.SummarizeText(context.Background(), SummarizeRequest{Text: "text", TargetLength: 200})
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected wrapped provider error, got %v", err)
	}
}
