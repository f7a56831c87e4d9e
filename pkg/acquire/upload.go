package acquire

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pastefind/pastefind/internal/models"
)

// allowedExtensions lists the audio and video container formats accepted for
// direct upload. Anything else is rejected before touching disk.
var allowedExtensions = map[string]bool{
	"mp3":  true,
	"m4a":  true,
	"aac":  true,
	"ogg":  true,
	"opus": true,
	"wav":  true,
	"flac": true,
	"webm": true,
	"mp4":  true,
	"mov":  true,
	"mkv":  true,
	"avi":  true,
	"3gp":  true,
}

// ValidExtension reports whether the declared extension is acceptable for an
// uploaded file. Leading dots and case are ignored.
func ValidExtension(ext string) bool {
	return allowedExtensions[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// SaveUpload persists uploaded bytes as an audio asset inside the scope. The
// extension is validated first; a disallowed extension fails without creating
// any file.
func SaveUpload(up *models.Upload, scope *Scope) (*models.AudioAsset, error) {
	ext := strings.ToLower(strings.TrimPrefix(up.Extension, "."))
	if !ValidExtension(ext) {
		return nil, &Error{Kind: FailureInvalid, Msg: fmt.Sprintf("unsupported file extension: %q", up.Extension)}
	}
	if len(up.Bytes) == 0 {
		return nil, &Error{Kind: FailureInvalid, Msg: "uploaded file is empty"}
	}

	path := scope.Filename(ext)
	if err := os.WriteFile(path, up.Bytes, 0o600); err != nil {
		return nil, &Error{Kind: FailureTransient, Msg: "failed to persist upload", Err: err}
	}

	return &models.AudioAsset{
		LocalPath:   path,
		SourceLabel: "upload",
		CreatedAt:   time.Now(),
	}, nil
}
