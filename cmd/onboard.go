package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clawdbot/clawdbot/internal/config"
	"github.com/clawdbot/clawdbot/internal/secrets"
)

func onboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Interactive setup for TTS and channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnboard()
		},
	}
}

func runOnboard() error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	fmt.Println("Clawdbot setup")
	fmt.Println()

	if err := promptTTSConfig(cfg); err != nil {
		return err
	}

	if err := promptChannelConfig(cfg); err != nil {
		return err
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}
	fmt.Printf("\nConfig written to %s\n", cfgPath)
	fmt.Println("Start the gateway with:  clawdbot")
	return nil
}

func promptChannelConfig(cfg *config.Config) error {
	enable, err := promptConfirm("Set up Telegram now?", cfg.Channels.Telegram.Enabled)
	if err != nil {
		return err
	}
	cfg.Channels.Telegram.Enabled = enable
	if !enable {
		return nil
	}

	token, err := promptPassword("Telegram bot token", "From @BotFather")
	if err != nil {
		return err
	}
	if token != "" {
		cfg.Channels.Telegram.BotToken = token
	}
	return nil
}

// storeKey saves an API key to the OS keyring when possible, otherwise
// into the config struct for the file.
func storeKey(keyringKey, value string, configField *string) {
	if value == "" {
		return
	}
	if err := secrets.Set(keyringKey, value); err == nil {
		fmt.Printf("  Stored %s in OS keyring.\n", keyringKey)
		return
	}
	*configField = value
	fmt.Fprintf(os.Stderr, "  Keyring unavailable; key kept in config file.\n")
}
