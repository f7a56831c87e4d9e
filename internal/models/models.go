package models

import "time"

// Request represents a validated identification request. Exactly one of
// SourceURL or Upload is set; the HTTP/MCP/CLI layers enforce this before
// the pipeline ever sees the request.
type Request struct {
	SourceURL string

	Upload *Upload
}

// Upload carries the bytes of a user-supplied media file together with the
// extension the client declared for it.
type Upload struct {
	Bytes     []byte
	Extension string // without the leading dot, e.g. "mp3"
}

// HasURL reports whether the request identifies by remote URL.
func (r *Request) HasURL() bool {
	return r.SourceURL != ""
}

// AudioAsset is a local audio file produced by acquisition (or persisted from
// an upload). It is owned by exactly one request and is removed when that
// request's scope closes.
type AudioAsset struct {
	LocalPath   string
	SourceLabel string // "yt-dlp", "upload"
	CreatedAt   time.Time
}

// TrackMatch is a successful identification from one provider. Fields are
// never nil; unknown values are empty strings.
type TrackMatch struct {
	Title         string
	Subtitle      string // artist
	CoverArtURL   string
	SpotifyURL    string
	YouTubeURL    string
	AppleMusicURL string
	Provider      string
}

// Response is the canonical flat response shape. The fixed keys and
// empty-string placeholders are a contract with external callers: every key
// is always present, and Error is mutually exclusive with a populated match.
type Response struct {
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Image      string `json:"image"`
	SpotifyURL string `json:"spotify_url"`
	YouTubeURL string `json:"youtube_url"`
	AppleMusic string `json:"apple_music"`
	Error      string `json:"error,omitempty"`
}
