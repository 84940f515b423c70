package instagram

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	UnknownUploader = "Unknown"
	NoCaption       = "No caption"
)

// Reel holds a downloaded video and the metadata relayed with it
type Reel struct {
	VideoPath  string
	Shortcode  string
	Uploader   string
	Caption    string
	Likes      int64
	WebpageURL string
	Duration   float64
}

// NewReel builds a Reel from the extractor's JSON metadata. Missing fields
// fall back to sentinels instead of failing.
func NewReel(videoPath, requestURL string, meta gjson.Result) *Reel {
	reel := &Reel{
		VideoPath:  videoPath,
		WebpageURL: requestURL,
		Uploader:   ResolveUploader(Source{URL: requestURL, Metadata: meta}, DefaultUploaderStrategies...),
		Caption:    NoCaption,
		Duration:   meta.Get("duration").Float(),
	}

	if u := meta.Get("webpage_url").String(); u != "" {
		reel.WebpageURL = u
	}

	if id := meta.Get("id").String(); id != "" {
		reel.Shortcode = id
	} else if code, ok := ParseShortcode(reel.WebpageURL); ok {
		reel.Shortcode = code
	} else if code, ok := ParseShortcode(requestURL); ok {
		reel.Shortcode = code
	}

	if desc := strings.TrimSpace(meta.Get("description").String()); desc != "" {
		reel.Caption = desc
	}

	if likes := meta.Get("like_count").Int(); likes > 0 {
		reel.Likes = likes
	}

	return reel
}
