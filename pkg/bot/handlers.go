package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	igerrors "igreelbot/pkg/errors"
	"igreelbot/pkg/instagram"
	"igreelbot/pkg/logger"
	"igreelbot/pkg/pipeline"
)

func (b *Bot) handleReel(ctx context.Context, log logger.Logger, msg *tgbotapi.Message, userID int64) error {
	chatID := msg.Chat.ID

	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		return b.send(chatID, usageText)
	}
	url := args[0]
	log = log.WithField("url", url)

	if err := instagram.ValidateURL(url); err != nil {
		return b.send(chatID, invalidURLText)
	}

	status, err := b.api.Send(b.newMessage(chatID, processingText))
	if err != nil {
		return fmt.Errorf("send status: %w", err)
	}

	req := pipeline.Request{URL: url}
	if path, ok := b.cookies.Path(userID); ok {
		req.CookiePath = path
	}

	res, err := b.pipeline.Run(ctx, req)
	if err != nil {
		return b.reportPipelineError(log, chatID, status.MessageID, err)
	}
	defer res.Cleanup()

	log.WithFields(map[string]interface{}{
		"shortcode":  res.Reel.Shortcode,
		"thumbnails": len(res.Thumbnails),
	}).Info("Reel fetched")

	return b.relay(chatID, status.MessageID, res)
}

func (b *Bot) reportPipelineError(log logger.Logger, chatID int64, statusID int, err error) error {
	var e *igerrors.Error
	if !errors.As(err, &e) || !igerrors.IsRecoverable(e.Type) {
		return err
	}

	text := genericErrorText
	switch e.Type {
	case igerrors.ErrorTypeInvalidInput:
		text = invalidURLText
	case igerrors.ErrorTypeFetchFailed:
		text = fetchFailedText
		if e.Authenticated {
			text = fetchFailedWithCookiesText
		}
	}

	log.WithError(err).Warn("Reel fetch failed")
	return b.edit(chatID, statusID, text)
}

// relay sends the info card, the video and the previews in that order
func (b *Bot) relay(chatID int64, statusID int, res *pipeline.Result) error {
	if err := b.edit(chatID, statusID, infoCard(res.Reel)); err != nil {
		return fmt.Errorf("send info card: %w", err)
	}

	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(res.Reel.VideoPath))
	video.Caption = videoCaption(res.Reel)
	video.ParseMode = tgbotapi.ModeHTML
	video.SupportsStreaming = true
	if _, err := b.api.Send(video); err != nil {
		return fmt.Errorf("send video: %w", err)
	}

	if err := b.send(chatID, thumbnailsText); err != nil {
		return err
	}

	switch {
	case res.PreviewsDisabled:
		if err := b.send(chatID, previewsOffText); err != nil {
			return err
		}
	case len(res.Thumbnails) == 0:
		if err := b.send(chatID, noThumbnailsText); err != nil {
			return err
		}
	default:
		if err := b.sendThumbnails(chatID, res.Thumbnails); err != nil {
			return fmt.Errorf("send thumbnails: %w", err)
		}
	}

	return b.send(chatID, doneText)
}

// sendThumbnails sends the previews as one album. Albums need at least two
// items, so a single preview goes out as a plain photo.
func (b *Bot) sendThumbnails(chatID int64, paths []string) error {
	caption := thumbnailCaption(1, len(paths))

	if len(paths) == 1 {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(paths[0]))
		photo.Caption = caption
		_, err := b.api.Send(photo)
		return err
	}

	media := make([]interface{}, 0, len(paths))
	for i, p := range paths {
		photo := tgbotapi.NewInputMediaPhoto(tgbotapi.FilePath(p))
		if i == 0 {
			photo.Caption = caption
		}
		media = append(media, photo)
	}
	_, err := b.api.SendMediaGroup(tgbotapi.NewMediaGroup(chatID, media))
	return err
}

func (b *Bot) edit(chatID int64, messageID int, text string) error {
	e := tgbotapi.NewEditMessageText(chatID, messageID, text)
	e.ParseMode = tgbotapi.ModeHTML
	e.DisableWebPagePreview = true
	_, err := b.api.Send(e)
	return err
}

func (b *Bot) handleCookieStatus(msg *tgbotapi.Message, userID int64) error {
	left, ok := b.cookies.ExpiresIn(userID)
	if !ok {
		return b.send(msg.Chat.ID, cookiesAbsentText)
	}
	return b.send(msg.Chat.ID, cookiesActiveText(left))
}

func isCookieFileName(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "cookie") || filepath.Ext(name) == ".txt"
}

func (b *Bot) handleCookieUpload(ctx context.Context, log logger.Logger, msg *tgbotapi.Message, userID int64) error {
	chatID := msg.Chat.ID
	doc := msg.Document
	log = log.WithField("file_name", doc.FileName)

	if doc.FileSize > maxCookieFileSize {
		return b.send(chatID, cookiesTooLargeText)
	}

	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}
	content, err := b.fetch(ctx, file.Link(b.token))
	if err != nil {
		return fmt.Errorf("download cookies: %w", err)
	}
	if len(content) > maxCookieFileSize {
		return b.send(chatID, cookiesTooLargeText)
	}

	if !b.cookies.Validate(string(content)) {
		log.Info("Rejected cookie upload")
		return b.send(chatID, cookiesInvalidText)
	}

	if _, err := b.cookies.Save(userID, string(content)); err != nil {
		if igerrors.IsType(err, igerrors.ErrorTypePersistFailed) {
			log.WithError(err).Error("Failed to persist cookies")
			return b.send(chatID, cookiesFailedText)
		}
		return err
	}

	log.Info("Cookie upload accepted")
	return b.send(chatID, cookiesSavedText)
}
