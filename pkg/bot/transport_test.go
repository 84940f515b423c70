package bot

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igreelbot/pkg/logger"
)

func TestWebhookHandler(t *testing.T) {
	updates := make(chan tgbotapi.Update, 1)
	h := webhookHandler(&tgbotapi.BotAPI{}, updates, logger.NewNopLogger())

	body := `{"update_id":7,"message":{"message_id":3,"chat":{"id":1001,"type":"private"},"text":"/start"}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, updates, 1)
	u := <-updates
	assert.Equal(t, 7, u.UpdateID)
	assert.Equal(t, "/start", u.Message.Text)

	t.Run("queue full", func(t *testing.T) {
		updates <- tgbotapi.Update{}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body)))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		<-updates
	})

	t.Run("bad requests", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hook", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader("{not json")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, updates)
	})
}

func TestWebhookEndpoint(t *testing.T) {
	callback, path, err := webhookEndpoint("https://bot.example.com/telegram/hook", "123:abc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/telegram/hook/"))
	assert.Len(t, strings.TrimPrefix(path, "/telegram/hook/"), 32)
	assert.Equal(t, "https://bot.example.com"+path, callback)
	assert.NotContains(t, callback, "123:abc")

	again, _, err := webhookEndpoint("https://bot.example.com/telegram/hook/", "123:abc")
	require.NoError(t, err)
	assert.Equal(t, callback, again, "trailing slash does not change the endpoint")

	other, _, err := webhookEndpoint("https://bot.example.com/telegram/hook", "456:def")
	require.NoError(t, err)
	assert.NotEqual(t, callback, other)

	_, rootPath, err := webhookEndpoint("https://bot.example.com", "123:abc")
	require.NoError(t, err)
	assert.Len(t, rootPath, 33)

	_, _, err = webhookEndpoint("://bad", "123:abc")
	assert.Error(t, err)

	_, _, err = webhookEndpoint("https://bot.example.com/hook", "")
	assert.Error(t, err)
}

func TestWebhookRejectsUnknownPath(t *testing.T) {
	_, path, err := webhookEndpoint("https://bot.example.com/hook", "123:abc")
	require.NoError(t, err)

	updates := make(chan tgbotapi.Update, 1)
	mux := http.NewServeMux()
	mux.Handle(path, webhookHandler(&tgbotapi.BotAPI{}, updates, logger.NewNopLogger()))

	body := `{"update_id":8,"message":{"message_id":4,"chat":{"id":1001,"type":"private"},"text":"/help"}}`

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, updates)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, updates, 1)
}
