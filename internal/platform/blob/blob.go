// Package blob stores evidence files and hands back the URL that responses record.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// EvidenceKey builds a collision-free object key under the audit's prefix.
func EvidenceKey(auditID uuid.UUID, filename string, now time.Time) string {
	base := strings.TrimSpace(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	if base == "" || base == "." || base == "/" {
		base = "file"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 0x20, r == '?', r == '#', r == '%':
			return -1
		default:
			return r
		}
	}, base)
	return fmt.Sprintf("audits/%s/%s-%s-%s", auditID, now.UTC().Format("20060102T150405"), uuid.NewString()[:8], base)
}

// MemoryStore keeps objects in process; used when no bucket is configured.
type MemoryStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]MemoryObject
}

type MemoryObject struct {
	Data        []byte
	ContentType string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://blobs"
	}
	return &MemoryStore{baseURL: strings.TrimRight(baseURL, "/"), objects: map[string]MemoryObject{}}
}

func (s *MemoryStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("blob key required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.objects[key] = MemoryObject{Data: b, ContentType: contentType}
	s.mu.Unlock()
	return s.baseURL + "/" + key, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, strings.TrimLeft(strings.TrimSpace(key), "/"))
	return nil
}

func (s *MemoryStore) Get(key string) (MemoryObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[key]
	return o, ok
}
