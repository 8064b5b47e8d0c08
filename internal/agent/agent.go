// Package agent produces chat replies and drives the reply pipeline.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/internal/providers"
)

const defaultSystemPrompt = "You are Clawdbot, a helpful assistant reachable over chat. Keep replies conversational and reasonably short."

// Agent turns one inbound message into a reply via the configured chat
// model. Single-turn; conversation memory is out of scope here.
type Agent struct {
	chat  providers.ChatClient
	model string
}

func New(chat providers.ChatClient, cfg config.AgentConfig) *Agent {
	return &Agent{chat: chat, model: cfg.Model}
}

// Reply generates a reply for the user's message.
func (a *Agent) Reply(ctx context.Context, text string) (string, error) {
	out, err := a.chat.Complete(ctx, providers.ChatRequest{
		Model: a.model,
		Messages: []providers.Message{
			{Role: "system", Content: defaultSystemPrompt},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("agent reply: %w", err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("agent reply: empty response")
	}
	return out, nil
}
