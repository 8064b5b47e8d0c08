package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/internal/tts"
	"github.com/clawdbot/clawdbot/pkg/protocol"
)

func ttsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tts",
		Short: "Manage text-to-speech settings and convert text to audio",
	}
	cmd.AddCommand(ttsStatusCmd())
	cmd.AddCommand(ttsEnableCmd())
	cmd.AddCommand(ttsDisableCmd())
	cmd.AddCommand(ttsProviderCmd())
	cmd.AddCommand(ttsLimitCmd())
	cmd.AddCommand(ttsSummaryCmd())
	cmd.AddCommand(ttsConvertCmd())
	return cmd
}

func ttsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show effective TTS settings",
		Run: func(cmd *cobra.Command, args []string) {
			// Prefer the running gateway; it sees the same files plus
			// live provider state.
			if resp, err := gatewayRPC(protocol.MethodTtsStatus, nil); err == nil && resp.OK {
				data, _ := json.MarshalIndent(resp.Payload, "", "  ")
				fmt.Println(string(data))
				return
			}
			s := localSettings()
			fmt.Printf("enabled:   %t\n", s.Enabled)
			fmt.Printf("provider:  %s\n", s.Provider)
			fmt.Printf("maxLength: %d\n", s.MaxLength)
			fmt.Printf("summarize: %t\n", s.Summarize)
			fmt.Printf("auto:      %s\n", s.Auto)
			fmt.Printf("mode:      %s\n", s.Mode)
		},
	}
}

func ttsEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Enable TTS",
		Run: func(cmd *cobra.Command, args []string) {
			setTtsEnabled(true)
		},
	}
}

func ttsDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Disable TTS",
		Run: func(cmd *cobra.Command, args []string) {
			setTtsEnabled(false)
		},
	}
}

func setTtsEnabled(enabled bool) {
	method := protocol.MethodTtsDisable
	if enabled {
		method = protocol.MethodTtsEnable
	}
	if resp, err := gatewayRPC(method, nil); err == nil && resp.OK {
		fmt.Printf("TTS %s (via gateway).\n", onOff(enabled))
		return
	}
	mutatePrefs(func(p *tts.Prefs) { p.Enabled = &enabled })
	fmt.Printf("TTS %s.\n", onOff(enabled))
}

func ttsProviderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provider <name>",
		Short: "Set the synthesis provider (openai, elevenlabs, edge, minimax)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			name := args[0]
			switch name {
			case "openai", "elevenlabs", "edge", "minimax":
			default:
				fmt.Fprintf(os.Stderr, "Unknown provider: %s\n", name)
				os.Exit(1)
			}
			mutatePrefs(func(p *tts.Prefs) { p.Provider = name })
			fmt.Printf("TTS provider set to %s.\n", name)
		},
	}
}

func ttsLimitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "limit <chars>",
		Short: "Set the auto-TTS length limit",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				fmt.Fprintln(os.Stderr, "Limit must be a positive number.")
				os.Exit(1)
			}
			mutatePrefs(func(p *tts.Prefs) { p.MaxLength = n })
			fmt.Printf("TTS length limit set to %d characters.\n", n)
		},
	}
}

func ttsSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary on|off",
		Short: "Toggle summarization of over-limit replies",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var on bool
			switch args[0] {
			case "on":
				on = true
			case "off":
				on = false
			default:
				fmt.Fprintln(os.Stderr, "Usage: clawdbot tts summary on|off")
				os.Exit(1)
			}
			mutatePrefs(func(p *tts.Prefs) { p.Summarize = &on })
			fmt.Printf("Summarization %s.\n", onOff(on))
		},
	}
}

func ttsConvertCmd() *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "convert <text>",
		Short: "Synthesize text to an audio file",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			text := args[0]
			for _, a := range args[1:] {
				text += " " + a
			}

			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
				os.Exit(1)
			}
			manager, err := buildTTSManager(cfg, nil)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}

			result, format, err := manager.Convert(context.Background(), text, channel)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Synthesis failed: %s\n", err)
				os.Exit(1)
			}

			store, err := buildArtifactStore(context.Background(), cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				os.Exit(1)
			}
			path, err := store.Put(context.Background(), result.Extension, result.MimeType, result.Audio)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error writing audio: %s\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s (%s, %s, %d bytes)\n", path, result.Provider, format.Name, len(result.Audio))
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "target channel for format selection (telegram → opus)")
	return cmd
}

// mutatePrefs applies a read-modify-write on the preference store used by
// the gateway. Last write wins across processes.
func mutatePrefs(mutate func(*tts.Prefs)) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}
	store, err := tts.OpenPrefsStore(cfg.Messages.TTS, cfg.ResolvedPrefsPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening preferences: %s\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	p, err := store.Get(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading preferences: %s\n", err)
		os.Exit(1)
	}
	mutate(&p)
	if err := store.Set(ctx, p); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving preferences: %s\n", err)
		os.Exit(1)
	}
}

func localSettings() tts.Settings {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}
	store, err := tts.OpenPrefsStore(cfg.Messages.TTS, cfg.ResolvedPrefsPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening preferences: %s\n", err)
		os.Exit(1)
	}
	p, _ := store.Get(context.Background())
	return tts.ResolveSettings(cfg.Messages.TTS, p)
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
