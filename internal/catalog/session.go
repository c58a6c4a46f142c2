package catalog

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

// maxStagedBytes bounds an upload held in a session.
const maxStagedBytes = 32 << 20

// Session is an authenticated user's context. It is created by
// Service.Login and destroyed by Service.Logout; every other Service call
// takes it explicitly.
type Session struct {
	ID        uuid.UUID
	User      types.User
	StartedAt time.Time

	mu         sync.Mutex
	closed     bool
	stagedName string
	staged     []byte
	hasStaged  bool
}

func newSession(u types.User, started time.Time) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	return &Session{ID: id, User: u, StartedAt: started}, nil
}

// Stage reads r into the session's upload buffer, replacing anything staged
// before. Uploads larger than 32 MiB are rejected.
func (s *Session) Stage(name string, r io.Reader) error {
	if s.Closed() {
		return types.ErrSessionClosed
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, maxStagedBytes+1))
	if err != nil {
		return fmt.Errorf("staging %s: %w", name, err)
	}
	if n > maxStagedBytes {
		return fmt.Errorf("staging %s: upload exceeds %d bytes", name, maxStagedBytes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stagedName = name
	s.staged = buf.Bytes()
	s.hasStaged = true
	return nil
}

// Staged returns the staged upload, if any.
func (s *Session) Staged() (name string, data []byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stagedName, s.staged, s.hasStaged
}

// ClearStaged drops the staged upload.
func (s *Session) ClearStaged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stagedName = ""
	s.staged = nil
	s.hasStaged = false
}

// Closed reports whether the session has been logged out. A nil session
// counts as closed.
func (s *Session) Closed() bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) close() {
	s.ClearStaged()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
