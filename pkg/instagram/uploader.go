package instagram

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Source is what an uploader strategy can look at
type Source struct {
	URL      string
	Metadata gjson.Result
}

// UploaderStrategy returns an uploader name, or "" when it has nothing to offer
type UploaderStrategy func(Source) string

// DefaultUploaderStrategies are tried in order by NewReel
var DefaultUploaderStrategies = []UploaderStrategy{
	FromURLPattern,
	FromMetadataFields("channel", "uploader_id"),
	FromMetadataFields("uploader"),
}

// ResolveUploader returns the first non-empty strategy result, or
// UnknownUploader
func ResolveUploader(src Source, strategies ...UploaderStrategy) string {
	for _, strategy := range strategies {
		if name := strings.TrimSpace(strategy(src)); name != "" {
			return name
		}
	}
	return UnknownUploader
}

// FromURLPattern reads the account name out of the request URL
func FromURLPattern(src Source) string {
	return ownerFromURL(src.URL)
}

// FromMetadataFields returns a strategy yielding the first non-empty string
// among the given metadata fields
func FromMetadataFields(fields ...string) UploaderStrategy {
	return func(src Source) string {
		for _, field := range fields {
			v := src.Metadata.Get(field)
			if v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
		return ""
	}
}
