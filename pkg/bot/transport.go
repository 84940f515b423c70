package bot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"igreelbot/pkg/config"
	"igreelbot/pkg/logger"
)

const webhookBuffer = 100

// Serve handles updates one at a time until ctx is done or updates closes
func (b *Bot) Serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// Run receives updates through a webhook when both a port and a public URL
// are configured and through long polling otherwise. It returns when ctx is
// cancelled.
func Run(ctx context.Context, api *tgbotapi.BotAPI, b *Bot, cfg *config.Config) error {
	if cfg.UseWebhook() {
		return runWebhook(ctx, api, b, cfg.Telegram)
	}
	return runPolling(ctx, api, b, cfg.Telegram)
}

func runPolling(ctx context.Context, api *tgbotapi.BotAPI, b *Bot, cfg config.TelegramConfig) error {
	// getUpdates is refused while a webhook is registered
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.PollTimeout
	updates := api.GetUpdatesChan(u)

	logger.LogComponentStart("telegram", map[string]interface{}{
		"mode":     "polling",
		"username": api.Self.UserName,
	})

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	b.Serve(ctx, updates)
	logger.LogComponentStop("telegram", "context done")
	return nil
}

func runWebhook(ctx context.Context, api *tgbotapi.BotAPI, b *Bot, cfg config.TelegramConfig) error {
	callback, path, err := webhookEndpoint(cfg.WebhookURL, cfg.Token)
	if err != nil {
		return err
	}
	wh, err := tgbotapi.NewWebhook(callback)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}

	updates := make(chan tgbotapi.Update, webhookBuffer)
	mux := http.NewServeMux()
	mux.Handle(path, webhookHandler(api, updates, b.log))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.LogComponentStart("telegram", map[string]interface{}{
		"mode":     "webhook",
		"port":     cfg.Port,
		"url":      cfg.WebhookURL,
		"username": api.Self.UserName,
	})

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()
	done := make(chan struct{})
	go func() {
		b.Serve(serveCtx, updates)
		close(done)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			stop()
			<-done
			return fmt.Errorf("webhook server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		b.log.WithError(err).Warn("Webhook server shutdown failed")
	}
	stop()
	<-done

	logger.LogComponentStop("telegram", "context done")
	return nil
}

// updateDecoder parses a webhook request body; *tgbotapi.BotAPI implements it
type updateDecoder interface {
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

func webhookHandler(dec updateDecoder, updates chan<- tgbotapi.Update, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		update, err := dec.HandleUpdate(r)
		if err != nil {
			log.WithError(err).Debug("Rejected webhook request")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		select {
		case updates <- *update:
			w.WriteHeader(http.StatusOK)
		default:
			log.WithField("update_id", update.UpdateID).Warn("Update queue full, asking Telegram to retry")
			http.Error(w, "busy", http.StatusServiceUnavailable)
		}
	})
}

// webhookEndpoint appends a segment derived from the bot token to the
// configured webhook URL. It returns the URL to register with Telegram and
// the path the listener serves; requests to any other path get a 404.
func webhookEndpoint(rawURL, token string) (callback, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid webhook url: %w", err)
	}
	if token == "" {
		return "", "", errors.New("webhook requires a bot token")
	}

	sum := sha256.Sum256([]byte("igreelbot-webhook:" + token))
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + hex.EncodeToString(sum[:16])
	u.RawPath = ""
	return u.String(), u.Path, nil
}
