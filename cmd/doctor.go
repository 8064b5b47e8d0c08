package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/internal/secrets"
	"github.com/clawdbot/clawdbot/pkg/protocol"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("clawdbot doctor")
	fmt.Printf("  Version:  %s (protocol %d)\n", "0.3.0", protocol.ProtocolVersion)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, defaults in effect)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	fmt.Println()
	fmt.Println("  TTS providers:")
	checkKey("OpenAI", cfg.Messages.TTS.OpenAI.APIKey)
	checkKey("ElevenLabs", cfg.Messages.TTS.ElevenLabs.APIKey)
	checkKey("MiniMax", cfg.Messages.TTS.MiniMax.APIKey)
	if _, err := exec.LookPath("edge-tts"); err == nil {
		fmt.Println("    Edge:       OK (edge-tts found in PATH)")
	} else {
		fmt.Println("    Edge:       not available (edge-tts not in PATH)")
	}

	fmt.Println()
	fmt.Println("  Channels:")
	checkChannel("Telegram", cfg.Channels.Telegram.Enabled, cfg.Channels.Telegram.BotToken)
	checkChannel("Discord", cfg.Channels.Discord.Enabled, cfg.Channels.Discord.BotToken)
	checkChannel("Slack", cfg.Channels.Slack.Enabled, cfg.Channels.Slack.BotToken)

	fmt.Println()
	if secrets.Probe() {
		fmt.Println("  Keyring:  OK")
	} else {
		fmt.Println("  Keyring:  unavailable (keys fall back to config/env)")
	}

	fmt.Println()
	if isGatewayReachable() {
		fmt.Printf("  Gateway:  running on %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)
	} else {
		fmt.Println("  Gateway:  not running")
	}
}

func checkKey(name, key string) {
	if key != "" {
		fmt.Printf("    %-11s OK\n", name+":")
	} else {
		fmt.Printf("    %-11s no API key\n", name+":")
	}
}

func checkChannel(name string, enabled bool, token string) {
	switch {
	case !enabled:
		fmt.Printf("    %-11s disabled\n", name+":")
	case token == "":
		fmt.Printf("    %-11s enabled but missing token\n", name+":")
	default:
		fmt.Printf("    %-11s OK\n", name+":")
	}
}
