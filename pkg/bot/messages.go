package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"igreelbot/pkg/instagram"
)

const (
	infoCaptionLimit  = 800
	videoCaptionLimit = 200
)

const startText = `🤖 <b>Instagram Reel Downloader Bot</b>

📌 <b>How to use:</b>
Send me an Instagram Reel link:
<code>/reel https://www.instagram.com/reel/xxxxx/</code>

✨ <b>I will send you:</b>
• Account username
• Full caption
• High quality video
• 5 random thumbnails

🍪 Private or rate-limited? See /cookies

🚀 <b>Ready to download!</b>`

const helpText = `📖 <b>Help - How to Use</b>

1️⃣ Copy an Instagram Reel link
2️⃣ Send: <code>/reel [paste link here]</code>
3️⃣ Wait for processing (10-30 seconds)
4️⃣ Receive video + thumbnails!

<b>Example:</b>
<code>/reel https://www.instagram.com/reel/ABC123xyz/</code>

<b>Note:</b> Only public reels can be downloaded, unless you upload your cookies.

<b>Supported formats:</b>
• /reel/xxxxx/
• /p/xxxxx/
• Short links (instagr.am)

<b>Commands:</b>
/reel &lt;url&gt; - download a reel
/cookies - how to upload Instagram cookies
/cookiestatus - check your uploaded cookies`

const (
	usageText          = "❌ Please provide an Instagram Reel URL!\n\nUsage: <code>/reel https://www.instagram.com/reel/xxxxx/</code>"
	invalidURLText     = "❌ Please provide a valid Instagram URL."
	processingText     = "⏳ Processing your reel... This may take a moment."
	thumbnailsText     = "🖼️ Generating thumbnails..."
	noThumbnailsText   = "⚠️ Could not generate thumbnails, but video sent successfully!"
	previewsOffText    = "⚠️ Thumbnail previews are disabled on this server, but video sent successfully!"
	doneText           = "✅ Done! Enjoy your reel! 🎉"
	genericErrorText   = "❌ Error: Something went wrong. Please try again or check if the reel is public."
	unknownCommandText = "🤔 Unknown command. Send /help to see what I can do."

	fetchFailedText = "❌ Failed to download. The reel might be private or the link is invalid.\n\n" +
		"💡 Instagram often blocks anonymous downloads. Upload your cookies with /cookies and try again."
	fetchFailedWithCookiesText = "❌ Failed to download. The reel might be private or the link is invalid.\n\n" +
		"Your uploaded cookies were used. If this keeps happening they may have expired; send a fresh export to replace them."

	cookiesSavedText    = "✅ Cookies saved! They will be used for your downloads for the next 24 hours."
	cookiesInvalidText  = "❌ That doesn't look like an Instagram cookie file. Export cookies for instagram.com in Netscape format. See /cookies."
	cookiesTooLargeText = "❌ That file is too large to be a cookie export."
	cookiesFailedText   = "❌ Could not save your cookies. Please try uploading the file again."
	cookiesAbsentText   = "❌ No cookies uploaded. Downloads run anonymously. See /cookies to add yours."
)

func infoCard(reel *instagram.Reel) string {
	return fmt.Sprintf("✅ <b>Reel Found!</b>\n\n"+
		"👤 <b>Account:</b> @%s\n"+
		"❤️ <b>Likes:</b> %s\n\n"+
		"📝 <b>Caption:</b>\n%s\n\n"+
		"⬇️ Sending video...",
		escape(reel.Uploader),
		formatCount(reel.Likes),
		escape(truncate(reel.Caption, infoCaptionLimit)),
	)
}

func videoCaption(reel *instagram.Reel) string {
	return fmt.Sprintf("🎥 <b>@%s</b>\n\n%s", escape(reel.Uploader), escape(truncate(reel.Caption, videoCaptionLimit)))
}

func thumbnailCaption(ordinal, total int) string {
	return fmt.Sprintf("📸 Thumbnail %d/%d", ordinal, total)
}

func cookiesActiveText(left time.Duration) string {
	hours := int(left.Round(time.Hour) / time.Hour)
	if hours < 1 {
		return "✅ Your cookies are active but expire within the hour."
	}
	return fmt.Sprintf("✅ Your cookies are active. They expire in about %dh.", hours)
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

// truncate cuts s to limit runes, marking the cut with "..."
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

// formatCount renders n with thousands separators
func formatCount(n int64) string {
	digits := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}
