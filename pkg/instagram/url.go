package instagram

import (
	"regexp"
	"strings"

	igerrors "igreelbot/pkg/errors"
)

var (
	hosts = []string{"instagram.com", "instagr.am"}

	shortcodePattern = regexp.MustCompile(`(?:instagram\.com|instagr\.am)/(?:[A-Za-z0-9._]+/)?(?:p|reel|reels|tv)/([A-Za-z0-9_-]+)`)
	ownerPattern     = regexp.MustCompile(`instagram\.com/([A-Za-z0-9._]+)/(?:p|reel|reels|tv)/`)
)

// reserved path segments that can never be an account name
var reservedSegments = map[string]bool{
	"p": true, "reel": true, "reels": true, "tv": true,
	"stories": true, "explore": true, "accounts": true,
}

// ValidateURL checks that raw looks like an Instagram link. Only the host is
// checked; whether the post exists is left to the extractor.
func ValidateURL(raw string) error {
	u := strings.TrimSpace(raw)
	if u == "" {
		return igerrors.New(igerrors.ErrorTypeInvalidInput, "missing url")
	}

	lower := strings.ToLower(u)
	for _, h := range hosts {
		if strings.Contains(lower, h) {
			return nil
		}
	}
	return igerrors.New(igerrors.ErrorTypeInvalidInput, "not an Instagram url")
}

// ParseShortcode extracts the post identifier from a reel or post URL
func ParseShortcode(rawURL string) (string, bool) {
	m := shortcodePattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ownerFromURL returns the account name embedded in links of the form
// instagram.com/<user>/reel/<code>
func ownerFromURL(rawURL string) string {
	m := ownerPattern.FindStringSubmatch(rawURL)
	if m == nil || reservedSegments[strings.ToLower(m[1])] {
		return ""
	}
	return m[1]
}
