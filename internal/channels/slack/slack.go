// Package slack is the Slack channel adapter (Socket Mode).
package slack

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/clawdbot/clawdbot/internal/bus"
	"github.com/clawdbot/clawdbot/internal/channels"
	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/internal/tts"
)

// Channel bridges a Slack Socket Mode connection to the message bus.
type Channel struct {
	api    *slack.Client
	socket *socketmode.Client
	bus    *bus.MessageBus
	tts    *tts.Manager
	dedupe *bus.DedupeCache
	botID  string
}

func New(cfg config.SlackConfig, msgBus *bus.MessageBus, manager *tts.Manager) (*Channel, error) {
	if cfg.BotToken == "" || cfg.AppToken == "" {
		return nil, fmt.Errorf("slack requires botToken and appToken")
	}
	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	return &Channel{
		api:    api,
		socket: socketmode.New(api),
		bus:    msgBus,
		tts:    manager,
		dedupe: bus.NewDedupeCache(20*time.Minute, 5000),
	}, nil
}

func (c *Channel) Name() string { return "slack" }

// Start runs the Socket Mode event loop until ctx is canceled.
func (c *Channel) Start(ctx context.Context) error {
	auth, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth: %w", err)
	}
	c.botID = auth.UserID
	slog.Info("slack channel started", "bot", auth.User)

	c.bus.RegisterHandler(c.Name(), c.deliver)

	go c.eventLoop(ctx)
	return c.socket.RunContext(ctx)
}

func (c *Channel) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.socket.Events:
			if !ok {
				return
			}
			if evt.Type != socketmode.EventTypeEventsAPI {
				continue
			}
			apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
			if !ok {
				continue
			}
			c.socket.Ack(*evt.Request)
			if inner, ok := apiEvent.InnerEvent.Data.(*slackevents.MessageEvent); ok {
				c.handleMessage(ctx, inner)
			}
		}
	}
}

func (c *Channel) handleMessage(ctx context.Context, m *slackevents.MessageEvent) {
	if m.User == "" || m.User == c.botID || m.BotID != "" {
		return
	}
	if c.dedupe.IsDuplicate("slack:" + m.Channel + ":" + m.TimeStamp) {
		return
	}

	if resp, handled := channels.HandleTtsCommand(ctx, c.tts, c.Name(), m.Text); handled {
		c.sendCommandResponse(ctx, m.Channel, resp)
		return
	}

	isVoice := false
	if m.Message != nil {
		for _, f := range m.Message.Files {
			if strings.HasPrefix(f.Mimetype, "audio/") {
				isVoice = true
				break
			}
		}
	}

	c.bus.PublishInbound(bus.InboundMessage{
		Channel:   c.Name(),
		ChatID:    m.Channel,
		SenderID:  m.User,
		MessageID: m.TimeStamp,
		Text:      m.Text,
		IsVoice:   isVoice,
	})
}

func (c *Channel) sendCommandResponse(ctx context.Context, channelID string, resp channels.CommandResponse) {
	if resp.Audio != nil {
		c.sendAudio(ctx, channelID, resp.Audio.Audio, resp.Audio.Extension)
		return
	}
	if resp.Text != "" {
		if _, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(resp.Text, false)); err != nil {
			slog.Warn("slack send failed", "error", err)
		}
	}
}

func (c *Channel) deliver(msg bus.OutboundMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if len(msg.Audio) > 0 {
		c.sendAudio(ctx, msg.ChatID, msg.Audio, msg.AudioExt)
	}
	if msg.Text != "" {
		if _, _, err := c.api.PostMessageContext(ctx, msg.ChatID, slack.MsgOptionText(msg.Text, false)); err != nil {
			return fmt.Errorf("slack send: %w", err)
		}
	}
	return nil
}

func (c *Channel) sendAudio(ctx context.Context, channelID string, data []byte, ext string) {
	_, err := c.api.UploadFileContext(ctx, slack.UploadFileParameters{
		Reader:   bytes.NewReader(data),
		Filename: "voice" + ext,
		FileSize: len(data),
		Channel:  channelID,
	})
	if err != nil {
		slog.Warn("slack audio upload failed", "error", err)
	}
}
