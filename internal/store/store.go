package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"revoice/internal/ports"
)

// TempStore keeps session-scoped local copies of fetched audio: raw bytes in
// a TTL cache and a playable temp file per key. Files are owned by the store
// and removed on Release/Close so superseded copies never accumulate.
type TempStore struct {
	dir   string
	bytes *gocache.Cache

	mu    sync.Mutex
	paths map[string]string
}

func NewTempStore(ttl time.Duration) (*TempStore, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	dir, err := os.MkdirTemp("", "revoice-audio-")
	if err != nil {
		return nil, fmt.Errorf("create audio temp dir: %w", err)
	}
	return &TempStore{
		dir:   dir,
		bytes: gocache.New(ttl, ttl/2),
		paths: make(map[string]string),
	}, nil
}

var _ ports.AudioStore = (*TempStore)(nil)

func (s *TempStore) Materialize(key string, data []byte, ext string) (string, error) {
	if ext == "" {
		ext = ".wav"
	}
	path := filepath.Join(s.dir, uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write local audio copy: %w", err)
	}

	s.mu.Lock()
	if previous, ok := s.paths[key]; ok && previous != path {
		_ = os.Remove(previous)
	}
	s.paths[key] = path
	s.mu.Unlock()

	s.bytes.Set(key, data, gocache.DefaultExpiration)
	return path, nil
}

func (s *TempStore) Path(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path, ok := s.paths[key]
	return path, ok
}

func (s *TempStore) Bytes(key string) ([]byte, bool) {
	cached, ok := s.bytes.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := cached.([]byte)
	return data, ok
}

func (s *TempStore) Release(key string) {
	s.bytes.Delete(key)

	s.mu.Lock()
	path, ok := s.paths[key]
	delete(s.paths, key)
	s.mu.Unlock()

	if ok {
		_ = os.Remove(path)
	}
}

func (s *TempStore) Close() {
	s.bytes.Flush()

	s.mu.Lock()
	paths := s.paths
	s.paths = make(map[string]string)
	s.mu.Unlock()

	for _, path := range paths {
		_ = os.Remove(path)
	}
	_ = os.Remove(s.dir)
}
