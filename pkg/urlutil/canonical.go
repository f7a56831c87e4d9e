// Package urlutil provides URL canonicalization and platform URL helpers.
package urlutil

import (
	"net/url"
	"strings"
)

// trackingParams are query keys that only exist for click attribution or
// share tracking. Stripping them never changes what a platform serves.
var trackingParams = map[string]bool{
	"fbclid":       true,
	"gclid":        true,
	"dclid":        true,
	"msclkid":      true,
	"twclid":       true,
	"ttclid":       true,
	"igshid":       true,
	"igsh":         true,
	"si":           true,
	"spm":          true,
	"share_app_id": true,
	"share_token":  true,
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
}

// Canonicalize removes known tracking query parameters from a URL while
// preserving every other parameter in its original relative order. Scheme,
// host, path, and fragment are never altered. Canonicalization is an
// optimization: on any parse error the input is returned unchanged.
func Canonicalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.RawQuery == "" {
		return raw
	}

	// url.Values is a map and would reorder parameters, so the query is
	// filtered pair by pair instead.
	var kept []string
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if i := strings.Index(pair, "="); i >= 0 {
			key = pair[:i]
		}
		decoded, err := url.QueryUnescape(key)
		if err != nil {
			decoded = key
		}
		if trackingParams[strings.ToLower(decoded)] {
			continue
		}
		kept = append(kept, pair)
	}

	u.RawQuery = strings.Join(kept, "&")
	return u.String()
}
