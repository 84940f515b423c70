package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"igreelbot/pkg/bot"
	"igreelbot/pkg/config"
	"igreelbot/pkg/cookies"
	"igreelbot/pkg/logger"
	"igreelbot/pkg/pipeline"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	token      string
	webhookURL string
	port       int
	workDir    string
	cookiesDir string
)

// rootCmd runs the bot when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igreelbot",
	Short: "Telegram bot that downloads Instagram reels",
	Long: `igreelbot is a Telegram bot that fetches Instagram reels with yt-dlp,
sends the video back to the chat together with its metadata and a handful of
preview thumbnails taken with ffmpeg.

Users can upload a Netscape cookies.txt file to fetch reels that need a login.

The bot long-polls Telegram unless both a webhook URL and a port are set.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runBot(ctx)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.igreelbot.yaml or $HOME/.config/igreelbot/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&token, "token", "", "Telegram bot token (overrides BOT_TOKEN)")
	rootCmd.Flags().StringVar(&webhookURL, "webhook-url", "", "public webhook URL (polling is used unless --port is also set)")
	rootCmd.Flags().IntVar(&port, "port", 0, "port for the webhook listener")
	rootCmd.Flags().StringVar(&workDir, "work-dir", "", "directory for downloaded videos and thumbnails")
	rootCmd.Flags().StringVar(&cookiesDir, "cookies-dir", "", "directory for uploaded cookie files")

	rootCmd.SetVersionTemplate(`igreelbot {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// commandLineFlags collects the flags that were set explicitly
func commandLineFlags() map[string]interface{} {
	return map[string]interface{}{
		"token":       token,
		"webhook-url": webhookURL,
		"port":        port,
		"work-dir":    workDir,
		"cookies-dir": cookiesDir,
		"log-level":   logLevel,
	}
}

func runBot(ctx context.Context) error {
	cfg, err := config.Load(configFile, commandLineFlags())
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("igreelbot starting")

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	api.Debug = cfg.Telegram.Debug
	log.WithField("username", api.Self.UserName).Info("Authorized on Telegram")

	store, err := cookies.NewStore(cfg.Cookies, cookies.WithLogger(log))
	if err != nil {
		return err
	}
	adopted, err := store.LoadExisting()
	if err != nil {
		log.WithError(err).Warn("Failed to scan cookie directory")
	}
	purged := store.PurgeExpired()
	log.WithFields(map[string]interface{}{
		"adopted": adopted,
		"purged":  purged,
		"active":  store.Len(),
		"dir":     cfg.Cookies.Dir,
	}).Info("Cookie store ready")

	pipe := pipeline.New(cfg, log)
	b := bot.New(api, cfg.Telegram.Token, pipe, store, log)

	if err := bot.Run(ctx, api, b, cfg); err != nil {
		log.WithError(err).Error("Bot stopped with error")
		return err
	}
	log.Info("igreelbot stopped")
	return nil
}
