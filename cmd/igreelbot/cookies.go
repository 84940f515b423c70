package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"igreelbot/pkg/config"
	"igreelbot/pkg/cookies"
)

var cookiesDomain string

// cookiesCmd groups cookie file helpers
var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Inspect and maintain uploaded cookie files",
}

var cookiesCheckCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Check that a cookies.txt export would be accepted by the bot",
	Example: `  igreelbot cookies check ~/Downloads/cookies.txt
  igreelbot cookies check cookies.txt --domain instagram.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read cookie file: %w", err)
		}
		if !cookies.ValidateDomain(string(content), cookiesDomain) {
			return fmt.Errorf("%s is not a Netscape cookie export for %s", args[0], cookiesDomain)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s looks like a valid cookie file for %s\n", args[0], cookiesDomain)
		return nil
	},
}

var cookiesPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete cookie files older than the retention window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()
		if err := cfg.LoadFromFile(configFile); err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
		if err := cfg.LoadFromEnv(); err != nil {
			return fmt.Errorf("failed to load environment variables: %w", err)
		}
		cfg.MergeCommandLineFlags(map[string]interface{}{"cookies-dir": cookiesDir})

		store, err := cookies.NewStore(cfg.Cookies)
		if err != nil {
			return err
		}
		adopted, err := store.LoadExisting()
		if err != nil {
			return err
		}
		purged := store.PurgeExpired()
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d of %d cookie files in %s, %d still active\n", purged, adopted, cfg.Cookies.Dir, store.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cookiesCmd)
	cookiesCmd.AddCommand(cookiesCheckCmd)
	cookiesCmd.AddCommand(cookiesPurgeCmd)

	cookiesCheckCmd.Flags().StringVar(&cookiesDomain, "domain", cookies.DefaultDomain, "domain the cookies must belong to")
	cookiesPurgeCmd.Flags().StringVar(&cookiesDir, "cookies-dir", "", "directory for uploaded cookie files")
}
