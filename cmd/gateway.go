package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/clawdbot/clawdbot/internal/agent"
	"github.com/clawdbot/clawdbot/internal/artifact"
	"github.com/clawdbot/clawdbot/internal/bus"
	"github.com/clawdbot/clawdbot/internal/channels/discord"
	"github.com/clawdbot/clawdbot/internal/channels/slack"
	"github.com/clawdbot/clawdbot/internal/channels/telegram"
	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/internal/gateway"
	"github.com/clawdbot/clawdbot/internal/gateway/methods"
	"github.com/clawdbot/clawdbot/internal/history"
	"github.com/clawdbot/clawdbot/internal/providers"
	"github.com/clawdbot/clawdbot/internal/secrets"
	"github.com/clawdbot/clawdbot/internal/tracing"
	"github.com/clawdbot/clawdbot/internal/tts"
	"github.com/clawdbot/clawdbot/pkg/protocol"
)

// runGateway wires the full gateway process: TTS manager, RPC server,
// channel adapters, reply pipeline, config hot reload.
func runGateway(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("tracing setup failed", "error", err)
	} else {
		defer shutdownTracing(context.Background())
	}

	var hist *history.Store
	if h, err := history.Open(cfg.ResolvedHistoryPath()); err != nil {
		slog.Warn("history log unavailable", "error", err)
	} else {
		hist = h
		defer hist.Close()
	}

	manager, err := buildTTSManager(cfg, hist)
	if err != nil {
		return err
	}

	artifacts, err := buildArtifactStore(ctx, cfg)
	if err != nil {
		return err
	}

	server := gateway.NewServer(cfg)
	voices := tts.NewVoiceCatalog(cfg.Messages.TTS.ElevenLabs.APIKey, cfg.Messages.TTS.ElevenLabs.BaseURL)
	methods.NewTtsMethods(manager, artifacts, voices, hist, server).Register(server.Router())
	applyConfig := func(c *config.Config) {
		server.SetConfig(c)
		manager.SetConfig(c.Messages.TTS)
		server.Broadcast(*protocol.NewEvent(protocol.EventConfigReload, map[string]interface{}{
			"hash": c.Hash(),
		}))
	}
	methods.NewConfigMethods(cfg, cfgPath, applyConfig).Register(server.Router())

	if watcher, err := config.NewWatcher(cfgPath); err != nil {
		slog.Warn("config hot reload unavailable", "error", err)
	} else {
		watcher.OnChange(applyConfig)
		if err := watcher.Start(); err != nil {
			slog.Warn("config hot reload unavailable", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	msgBus := bus.New()
	defer msgBus.Close()
	if cfg.Messages.InboundDebounceMs > 0 {
		msgBus.EnableDebounce(time.Duration(cfg.Messages.InboundDebounceMs) * time.Millisecond)
	}
	msgBus.Subscribe("gateway", func(ev bus.Event) {
		server.Broadcast(*protocol.NewEvent(ev.Name, ev.Payload))
	})
	defer msgBus.Unsubscribe("gateway")

	chat := providers.NewOpenAIClient(cfg.Agent.APIKey, cfg.Agent.APIBase)
	pipeline := agent.NewPipeline(msgBus, agent.New(chat, cfg.Agent), manager)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })
	g.Go(func() error { pipeline.Run(gctx); return nil })

	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.BotToken != "" {
		ch, err := telegram.New(cfg.Channels.Telegram, msgBus, manager)
		if err != nil {
			return err
		}
		g.Go(func() error { return ch.Start(gctx) })
	}
	if cfg.Channels.Discord.Enabled && cfg.Channels.Discord.BotToken != "" {
		ch, err := discord.New(cfg.Channels.Discord, msgBus, manager)
		if err != nil {
			return err
		}
		g.Go(func() error { return ch.Start(gctx) })
	}
	if cfg.Channels.Slack.Enabled {
		ch, err := slack.New(cfg.Channels.Slack, msgBus, manager)
		if err != nil {
			return err
		}
		g.Go(func() error { return ch.Start(gctx) })
	}

	return g.Wait()
}

// buildTTSManager assembles the synthesis manager from config: preference
// store, summarizer, and every provider with credentials resolved through
// the keyring fallback.
func buildTTSManager(cfg *config.Config, hist *history.Store) (*tts.Manager, error) {
	ttsCfg := cfg.Messages.TTS
	ttsCfg.OpenAI.APIKey = secrets.Get(ttsCfg.OpenAI.APIKey, "openai_api_key", "")
	ttsCfg.ElevenLabs.APIKey = secrets.Get(ttsCfg.ElevenLabs.APIKey, "elevenlabs_api_key", "")
	ttsCfg.MiniMax.APIKey = secrets.Get(ttsCfg.MiniMax.APIKey, "minimax_api_key", "")

	prefs, err := tts.OpenPrefsStore(ttsCfg, cfg.ResolvedPrefsPath())
	if err != nil {
		return nil, err
	}

	var summarizer *tts.Summarizer
	agentKey := secrets.Get(cfg.Agent.APIKey, "agent_api_key", "")
	if agentKey != "" {
		model := ttsCfg.SummaryModel
		if model == "" {
			model = cfg.Agent.Model
		}
		chat := providers.NewOpenAIClient(agentKey, cfg.Agent.APIBase)
		summarizer = tts.NewSummarizer(chat, model)
	}

	var rec tts.Recorder
	if hist != nil {
		rec = hist
	}
	m := tts.NewManager(ttsCfg, prefs, summarizer, rec)
	m.RegisterProvider(tts.NewOpenAIProvider(ttsCfg.OpenAI, ttsCfg.TimeoutMs))
	m.RegisterProvider(tts.NewElevenLabsProvider(ttsCfg.ElevenLabs, ttsCfg.TimeoutMs))
	if ttsCfg.Edge.Enabled {
		m.RegisterProvider(tts.NewEdgeProvider(ttsCfg.Edge, ttsCfg.TimeoutMs))
	}
	m.RegisterProvider(tts.NewMiniMaxProvider(ttsCfg.MiniMax, ttsCfg.TimeoutMs))
	return m, nil
}

// buildArtifactStore picks S3 when a bucket is configured, local dir
// otherwise.
func buildArtifactStore(ctx context.Context, cfg *config.Config) (artifact.Store, error) {
	if cfg.Artifacts.S3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Artifacts.S3Region))
		if err != nil {
			return nil, err
		}
		return artifact.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Artifacts.S3Bucket, cfg.Artifacts.S3Prefix), nil
	}
	dir := cfg.Artifacts.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return artifact.NewLocalStore(dir)
}
