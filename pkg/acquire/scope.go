package acquire

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/pastefind/pastefind/pkg/logger"
)

var scopeLog = logger.WithName("acquire-scope")

// Scope owns every on-disk asset created while serving one identification
// request. Closing the scope removes them all; Close is safe to call from a
// defer on any exit path and runs its removal exactly once.
type Scope struct {
	dir string
	id  string

	mu     sync.Mutex
	closed bool
}

// NewScope creates a request-scoped temp namespace under dir. The embedded
// uuid keeps concurrent requests from ever sharing a path.
func NewScope(dir string) *Scope {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Scope{dir: dir, id: uuid.NewString()}
}

// Filename returns the scope-unique path for the given extension.
func (s *Scope) Filename(ext string) string {
	return filepath.Join(s.dir, "pastefind-"+s.id+"."+ext)
}

// OutputTemplate returns a yt-dlp output template inside the scope. The
// %(ext)s placeholder lets the postprocessor pick the final extension while
// intermediate downloads stay under the scope prefix.
func (s *Scope) OutputTemplate() string {
	return filepath.Join(s.dir, "pastefind-"+s.id+".%(ext)s")
}

// Close removes every file the scope produced, including partial downloads
// left behind by a cancelled extraction. Subsequent calls are no-ops.
func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	pattern := filepath.Join(s.dir, "pastefind-"+s.id+".*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		scopeLog.WithError(err).WithField("pattern", pattern).Warn("Temp scope glob failed")
		return
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			scopeLog.WithError(err).WithField("path", path).Warn("Failed to remove temp asset")
		}
	}
}
