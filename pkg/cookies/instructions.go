package cookies

import "strings"

// Instructions explains how to export and upload a cookie file. The text is
// Telegram HTML.
func Instructions() string {
	var b strings.Builder

	b.WriteString("🍪 <b>Instagram cookies</b>\n\n")
	b.WriteString("Instagram rate-limits anonymous downloads. Uploading your browser cookies lets me fetch reels as you.\n\n")

	b.WriteString("<b>1.</b> Log in to https://www.instagram.com in your browser\n")
	b.WriteString("<b>2.</b> Install a cookie exporter such as \"Get cookies.txt LOCALLY\" (Chrome) or \"cookies.txt\" (Firefox)\n")
	b.WriteString("<b>3.</b> Open instagram.com and export cookies in Netscape format\n")
	b.WriteString("<b>4.</b> Send the exported file here as a document, for example <code>cookies.txt</code>\n\n")

	b.WriteString("The file must contain tab-separated lines for <code>.instagram.com</code>.\n")
	b.WriteString("Uploaded cookies are deleted after 24 hours. Check yours with /cookiestatus.\n\n")
	b.WriteString("⚠️ Cookies grant access to your account. Only share them with bots you trust.")

	return b.String()
}
