// Package normalize maps provider results into the canonical response shape.
package normalize

import (
	"net/url"

	"github.com/pastefind/pastefind/internal/models"
)

// Success flattens a TrackMatch into the response contract. Every deep-link
// field left empty by the provider gets a search-query fallback so the UI
// always has somewhere to send the user.
func Success(match *models.TrackMatch) models.Response {
	resp := models.Response{
		Title:      match.Title,
		Subtitle:   match.Subtitle,
		Image:      match.CoverArtURL,
		SpotifyURL: match.SpotifyURL,
		YouTubeURL: match.YouTubeURL,
		AppleMusic: match.AppleMusicURL,
	}

	if match.Title == "" {
		return resp
	}
	query := url.QueryEscape(searchQuery(match))
	if resp.SpotifyURL == "" {
		resp.SpotifyURL = "https://open.spotify.com/search/" + query
	}
	if resp.YouTubeURL == "" {
		resp.YouTubeURL = "https://www.youtube.com/results?search_query=" + query
	}
	if resp.AppleMusic == "" {
		resp.AppleMusic = "https://music.apple.com/search?term=" + query
	}
	return resp
}

// Failure produces the error response shape: a message plus empty
// placeholders for every success field.
func Failure(message string) models.Response {
	return models.Response{Error: message}
}

func searchQuery(match *models.TrackMatch) string {
	if match.Subtitle == "" {
		return match.Title
	}
	return match.Title + " " + match.Subtitle
}
