// Package platform selects per-platform extraction profiles.
//
// Source platforms throttle or block generic clients, so acquisition
// impersonates a client tuned per platform. Profiles are data: adding support
// for a new platform means appending a profile here, never branching inside
// acquisition code.
package platform

import (
	"net/url"
	"strings"
)

// Profile fixes the client identity and format preference used when
// extracting media from one platform family.
type Profile struct {
	Name string

	// Headers sent with every extraction request. User-Agent included.
	UserAgent string
	Headers   map[string]string

	// ClientHint is passed to yt-dlp as an extractor argument where the
	// platform has multiple player clients (empty means extractor default).
	ClientHint string

	// FormatPreference is the yt-dlp format selector for this platform.
	FormatPreference string
}

type rule struct {
	match   func(u *url.URL) bool
	profile Profile
}

const (
	desktopChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	mobileSafariUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1"
)

func hostHas(u *url.URL, fragments ...string) bool {
	host := strings.ToLower(u.Hostname())
	for _, f := range fragments {
		if host == f || strings.HasSuffix(host, "."+f) {
			return true
		}
	}
	return false
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{
		match: func(u *url.URL) bool { return hostHas(u, "youtube.com", "youtu.be") },
		profile: Profile{
			Name:      "youtube",
			UserAgent: desktopChromeUA,
			Headers: map[string]string{
				"Accept-Language": "en-US,en;q=0.9",
			},
			ClientHint:       "youtube:player_client=android,web",
			FormatPreference: "bestaudio/best",
		},
	},
	{
		match: func(u *url.URL) bool { return hostHas(u, "tiktok.com") },
		profile: Profile{
			Name:      "tiktok",
			UserAgent: mobileSafariUA,
			Headers: map[string]string{
				"Referer": "https://www.tiktok.com/",
			},
			FormatPreference: "bestaudio/best",
		},
	},
	{
		match: func(u *url.URL) bool { return hostHas(u, "instagram.com") },
		profile: Profile{
			Name:      "instagram",
			UserAgent: mobileSafariUA,
			Headers: map[string]string{
				"Referer": "https://www.instagram.com/",
				"Origin":  "https://www.instagram.com",
			},
			FormatPreference: "bestaudio/best",
		},
	},
	{
		match: func(u *url.URL) bool { return hostHas(u, "twitter.com", "x.com") },
		profile: Profile{
			Name:             "twitter",
			UserAgent:        desktopChromeUA,
			Headers:          map[string]string{},
			FormatPreference: "bestaudio/best",
		},
	},
}

// defaultProfile serves any URL no rule claims.
var defaultProfile = Profile{
	Name:             "default",
	UserAgent:        desktopChromeUA,
	Headers:          map[string]string{},
	FormatPreference: "bestaudio/best",
}

// Select returns the extraction profile for a URL. Unparseable URLs get the
// default profile; acquisition will surface the real error.
func Select(raw string) Profile {
	u, err := url.Parse(raw)
	if err != nil {
		return defaultProfile
	}
	for _, r := range rules {
		if r.match(u) {
			return r.profile
		}
	}
	return defaultProfile
}
