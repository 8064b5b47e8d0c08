package agent

import (
	"context"
	"log/slog"

	"github.com/clawdbot/clawdbot/internal/bus"
	"github.com/clawdbot/clawdbot/internal/tts"
	"github.com/clawdbot/clawdbot/pkg/protocol"
)

// Pipeline consumes inbound messages, produces a reply, runs the auto-TTS
// gate, and hands the result to the channel's delivery handler.
type Pipeline struct {
	bus   *bus.MessageBus
	agent *Agent
	tts   *tts.Manager
}

func NewPipeline(msgBus *bus.MessageBus, a *Agent, manager *tts.Manager) *Pipeline {
	return &Pipeline{bus: msgBus, agent: a, tts: manager}
}

// Run processes messages until ctx is canceled.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		msg, ok := p.bus.ConsumeInbound(ctx)
		if !ok {
			return
		}
		p.handle(ctx, msg)
	}
}

func (p *Pipeline) handle(ctx context.Context, msg bus.InboundMessage) {
	reply, err := p.agent.Reply(ctx, msg.Text)
	if err != nil {
		slog.Error("reply generation failed", "channel", msg.Channel, "error", err)
		return
	}

	res := p.tts.MaybeApply(ctx, tts.ApplyRequest{
		Text:           reply,
		Channel:        msg.Channel,
		IsVoiceInbound: msg.IsVoice,
		Kind:           "final",
	})

	out := bus.OutboundMessage{
		Channel:   msg.Channel,
		ChatID:    msg.ChatID,
		ReplyToID: msg.MessageID,
		Text:      res.CleanedText,
		Kind:      "final",
	}
	if res.Audio != nil {
		out.Audio = res.Audio.Audio
		out.AudioMime = res.Audio.MimeType
		out.AudioExt = res.Audio.Extension
	}

	if handler, ok := p.bus.Handler(msg.Channel); ok {
		if err := handler(out); err != nil {
			slog.Error("delivery failed", "channel", msg.Channel, "error", err)
		}
	} else {
		p.bus.PublishOutbound(out)
	}

	p.bus.Broadcast(bus.Event{Name: protocol.EventMessageDone, Payload: map[string]interface{}{
		"channel":  msg.Channel,
		"chatId":   msg.ChatID,
		"decision": res.Decision.String(),
		"audio":    res.Audio != nil,
	}})
}
