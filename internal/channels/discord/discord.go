// Package discord is the Discord channel adapter.
package discord

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/clawdbot/clawdbot/internal/bus"
	"github.com/clawdbot/clawdbot/internal/channels"
	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/internal/tts"
)

// Channel bridges a Discord bot session to the message bus. Audio replies
// go out as mp3 attachments; Discord has no Telegram-style voice bubble
// for bots.
type Channel struct {
	session *discordgo.Session
	bus     *bus.MessageBus
	tts     *tts.Manager
	dedupe  *bus.DedupeCache
}

func New(cfg config.DiscordConfig, msgBus *bus.MessageBus, manager *tts.Manager) (*Channel, error) {
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent
	return &Channel{
		session: session,
		bus:     msgBus,
		tts:     manager,
		dedupe:  bus.NewDedupeCache(20*time.Minute, 5000),
	}, nil
}

func (c *Channel) Name() string { return "discord" }

// Start opens the session and blocks until ctx is canceled.
func (c *Channel) Start(ctx context.Context) error {
	c.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		c.handleMessage(ctx, s, m)
	})
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	slog.Info("discord channel started", "bot", c.session.State.User.Username)

	c.bus.RegisterHandler(c.Name(), c.deliver)

	<-ctx.Done()
	return c.session.Close()
}

func (c *Channel) handleMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}
	if c.dedupe.IsDuplicate("discord:" + m.ID) {
		return
	}

	if resp, handled := channels.HandleTtsCommand(ctx, c.tts, c.Name(), m.Content); handled {
		c.sendCommandResponse(m.ChannelID, resp)
		return
	}

	isVoice := false
	for _, a := range m.Attachments {
		if strings.HasPrefix(a.ContentType, "audio") {
			isVoice = true
			break
		}
	}

	c.bus.PublishInbound(bus.InboundMessage{
		Channel:   c.Name(),
		ChatID:    m.ChannelID,
		SenderID:  m.Author.ID,
		MessageID: m.ID,
		Text:      m.Content,
		IsVoice:   isVoice,
	})
}

func (c *Channel) sendCommandResponse(channelID string, resp channels.CommandResponse) {
	if resp.Audio != nil {
		c.sendAudio(channelID, resp.Audio.Audio, resp.Audio.Extension)
		return
	}
	if resp.Text != "" {
		if _, err := c.session.ChannelMessageSend(channelID, resp.Text); err != nil {
			slog.Warn("discord send failed", "error", err)
		}
	}
}

func (c *Channel) deliver(msg bus.OutboundMessage) error {
	if len(msg.Audio) > 0 {
		c.sendAudio(msg.ChatID, msg.Audio, msg.AudioExt)
	}
	if msg.Text != "" {
		if _, err := c.session.ChannelMessageSend(msg.ChatID, msg.Text); err != nil {
			return fmt.Errorf("discord send: %w", err)
		}
	}
	return nil
}

func (c *Channel) sendAudio(channelID string, data []byte, ext string) {
	_, err := c.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Files: []*discordgo.File{{
			Name:   "voice" + ext,
			Reader: bytes.NewReader(data),
		}},
	})
	if err != nil {
		slog.Warn("discord audio send failed", "error", err)
	}
}
