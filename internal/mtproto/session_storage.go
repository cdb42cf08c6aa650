package mtproto

import (
	"context"
	"sync"

	"github.com/gotd/td/session"
)

// memorySession is a session.Storage over a byte slice. gotd rewrites the
// session during a run (DC migration, key rotation), so callers read the
// final bytes back with Bytes after the run completes.
type memorySession struct {
	mu   sync.Mutex
	data []byte
}

func (s *memorySession) LoadSession(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.data) == 0 {
		return nil, session.ErrNotFound
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (s *memorySession) StoreSession(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make([]byte, len(data))
	copy(s.data, data)
	return nil
}

func (s *memorySession) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}
