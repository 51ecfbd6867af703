package media

import (
	"context"
	"io"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]File
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]File)}
}

func (s *MemoryStore) Upload(_ context.Context, name, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	id := primitive.NewObjectID().Hex()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = File{ID: id, Name: name, ContentType: contentType, Data: data}
	return id, nil
}

func (s *MemoryStore) Open(_ context.Context, id string) (*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, ErrNotFound
	}
	f.Data = append([]byte(nil), f.Data...)
	return &f, nil
}
