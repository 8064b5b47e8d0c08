// Package telegram is the Telegram channel adapter.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/clawdbot/clawdbot/internal/bus"
	"github.com/clawdbot/clawdbot/internal/channels"
	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/internal/tts"
)

// Channel bridges Telegram long polling to the message bus. Voice notes
// are first-class here: opus replies go out via SendVoice so Telegram
// renders the waveform bubble.
type Channel struct {
	bot     *telego.Bot
	bus     *bus.MessageBus
	tts     *tts.Manager
	dedupe  *bus.DedupeCache
	botName string
}

func New(cfg config.TelegramConfig, msgBus *bus.MessageBus, manager *tts.Manager) (*Channel, error) {
	bot, err := telego.NewBot(cfg.BotToken, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Channel{
		bot:    bot,
		bus:    msgBus,
		tts:    manager,
		dedupe: bus.NewDedupeCache(20*time.Minute, 5000),
	}, nil
}

func (c *Channel) Name() string { return "telegram" }

// Start runs long polling until ctx is canceled.
func (c *Channel) Start(ctx context.Context) error {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	c.botName = me.Username
	slog.Info("telegram channel started", "bot", me.Username)

	c.bus.RegisterHandler(c.Name(), c.deliver)

	updates, err := c.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		return fmt.Errorf("telegram long polling: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				c.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (c *Channel) handleMessage(ctx context.Context, msg *telego.Message) {
	chatID := fmt.Sprintf("%d", msg.Chat.ID)
	dedupeKey := fmt.Sprintf("telegram:%s:%d", chatID, msg.MessageID)
	if c.dedupe.IsDuplicate(dedupeKey) {
		return
	}

	senderID := ""
	if msg.From != nil {
		senderID = fmt.Sprintf("%d", msg.From.ID)
	}

	text := msg.Text
	isVoice := msg.Voice != nil || msg.Audio != nil
	if text == "" && msg.Caption != "" {
		text = msg.Caption
	}

	// /tts slash commands are answered inline, off the agent path.
	if resp, handled := channels.HandleTtsCommand(ctx, c.tts, c.Name(), text); handled {
		c.sendCommandResponse(ctx, msg.Chat.ID, resp)
		return
	}

	c.bus.PublishInbound(bus.InboundMessage{
		Channel:   c.Name(),
		ChatID:    chatID,
		SenderID:  senderID,
		MessageID: fmt.Sprintf("%d", msg.MessageID),
		Text:      text,
		IsVoice:   isVoice,
	})
}

func (c *Channel) sendCommandResponse(ctx context.Context, chatID int64, resp channels.CommandResponse) {
	if resp.Audio != nil {
		c.sendAudio(ctx, chatID, resp.Audio)
		return
	}
	if resp.Text != "" {
		if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), resp.Text)); err != nil {
			slog.Warn("telegram send failed", "error", err)
		}
	}
}

// deliver sends one outbound reply, audio first when present.
func (c *Channel) deliver(msg bus.OutboundMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var chatID int64
	if _, err := fmt.Sscanf(msg.ChatID, "%d", &chatID); err != nil {
		return fmt.Errorf("telegram chat id %q: %w", msg.ChatID, err)
	}

	if len(msg.Audio) > 0 {
		c.sendAudio(ctx, chatID, &tts.SynthResult{
			Audio:     msg.Audio,
			Extension: msg.AudioExt,
			MimeType:  msg.AudioMime,
		})
	}
	if msg.Text != "" {
		if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), msg.Text)); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

func (c *Channel) sendAudio(ctx context.Context, chatID int64, audio *tts.SynthResult) {
	file := tu.File(tu.NameReader(bytes.NewReader(audio.Audio), "voice"+audio.Extension))
	var err error
	if audio.Extension == ".opus" {
		_, err = c.bot.SendVoice(ctx, tu.Voice(tu.ID(chatID), file))
	} else {
		_, err = c.bot.SendAudio(ctx, tu.Audio(tu.ID(chatID), file))
	}
	if err != nil {
		slog.Warn("telegram audio send failed", "error", err)
	}
}
