// Package bot adapts the reel pipeline and cookie store to the Telegram Bot
// API.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"igreelbot/pkg/cookies"
	"igreelbot/pkg/logger"
	"igreelbot/pkg/pipeline"
)

const maxCookieFileSize = 1 << 20

// API is the subset of *tgbotapi.BotAPI the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	SendMediaGroup(config tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

// Runner runs one fetch request
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// FileFetcher downloads a Telegram file by its direct link
type FileFetcher func(ctx context.Context, url string) ([]byte, error)

// Bot handles Telegram updates
type Bot struct {
	api      API
	token    string
	pipeline Runner
	cookies  *cookies.Store
	fetch    FileFetcher
	log      logger.Logger
}

// Option configures a Bot
type Option func(*Bot)

// WithFileFetcher replaces the HTTP download of uploaded documents
func WithFileFetcher(f FileFetcher) Option {
	return func(b *Bot) { b.fetch = f }
}

// New creates a Bot. token is needed to build document download links.
func New(api API, token string, runner Runner, store *cookies.Store, log logger.Logger, opts ...Option) *Bot {
	b := &Bot{
		api:      api,
		token:    token,
		pipeline: runner,
		cookies:  store,
		fetch:    httpFetch,
		log:      log.WithField("component", "bot"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandleUpdate processes one update to completion. Panics and unexpected
// errors are logged and answered with an apology.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}
	log := logger.ForRequest(b.log, uuid.NewString(), userID, msg.Chat.ID)

	defer func() {
		if r := recover(); r != nil {
			log.WithFields(map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("Handler panicked")
			b.reply(log, msg.Chat.ID, genericErrorText)
		}
	}()

	if err := b.dispatch(ctx, log, msg, userID); err != nil {
		log.WithError(err).Error("Request failed")
		b.reply(log, msg.Chat.ID, genericErrorText)
	}
}

func (b *Bot) dispatch(ctx context.Context, log logger.Logger, msg *tgbotapi.Message, userID int64) error {
	if msg.IsCommand() {
		log = log.WithField("command", msg.Command())
		log.Debug("Command received")

		switch msg.Command() {
		case "start":
			return b.send(msg.Chat.ID, startText)
		case "help":
			return b.send(msg.Chat.ID, helpText)
		case "reel":
			return b.handleReel(ctx, log, msg, userID)
		case "cookies":
			return b.send(msg.Chat.ID, cookies.Instructions())
		case "cookiestatus":
			return b.handleCookieStatus(msg, userID)
		default:
			return b.send(msg.Chat.ID, unknownCommandText)
		}
	}

	if msg.Document != nil && isCookieFileName(msg.Document.FileName) {
		return b.handleCookieUpload(ctx, log, msg, userID)
	}
	return nil
}

func (b *Bot) newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeHTML
	m.DisableWebPagePreview = true
	return m
}

func (b *Bot) send(chatID int64, text string) error {
	_, err := b.api.Send(b.newMessage(chatID, text))
	return err
}

// reply sends a message whose failure only gets logged
func (b *Bot) reply(log logger.Logger, chatID int64, text string) {
	if err := b.send(chatID, text); err != nil {
		log.WithError(err).Warn("Failed to send reply")
	}
}

func httpFetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxCookieFileSize+1))
}
