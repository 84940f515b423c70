package cookies

import (
	"strings"
)

// DefaultDomain is the site cookie files must reference
const DefaultDomain = "instagram.com"

const (
	netscapeFields = 7
	httpOnlyPrefix = "#HttpOnly_"
)

// Validate reports whether content is a Netscape cookie export holding at
// least one instagram.com cookie
func Validate(content string) bool {
	return ValidateDomain(content, DefaultDomain)
}

// ValidateDomain reports whether content has at least one cookie line with
// seven or more tab-separated fields whose domain contains domain. Blank
// and comment lines are ignored, except curl's #HttpOnly_ prefix which marks
// a regular cookie line.
func ValidateDomain(content, domain string) bool {
	if domain == "" {
		return false
	}
	domain = strings.ToLower(domain)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, httpOnlyPrefix) {
			line = strings.TrimPrefix(line, httpOnlyPrefix)
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < netscapeFields {
			continue
		}
		if strings.Contains(strings.ToLower(fields[0]), domain) {
			return true
		}
	}
	return false
}
