package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igreelbot/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
	Long: `Inspect the configuration the bot would start with.

Configuration is merged from, highest priority first:
  - Command line flags
  - Environment variables (BOT_TOKEN, WEBHOOK_URL, PORT, IGREELBOT_*)
  - .env files
  - Configuration file
  - Default values`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration as YAML with the token masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, commandLineFlags())
		if err != nil {
			return err
		}
		cfg.Telegram.Token = maskToken(cfg.Telegram.Token)

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		if cfg.UseWebhook() {
			fmt.Fprintf(cmd.OutOrStdout(), "# transport: webhook on :%d\n", cfg.Telegram.Port)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "# transport: long polling")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}
