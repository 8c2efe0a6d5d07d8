package storage

import (
	"context"
	"sort"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryBlobStore keeps objects in process memory. It backs local
// development and tests.
type MemoryBlobStore struct {
	baseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

// NewMemoryBlobStore creates an empty store whose URLs start with baseURL
func NewMemoryBlobStore(baseURL string) *MemoryBlobStore {
	if baseURL == "" {
		baseURL = "memory://blobs"
	}
	return &MemoryBlobStore{
		baseURL: baseURL,
		objects: make(map[string]memoryObject),
	}
}

// Put stores a copy of data under key
func (m *MemoryBlobStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.objects[key] = memoryObject{data: buf, contentType: contentType}
	m.mu.Unlock()
	return objectURL(m.baseURL, key), nil
}

// Get returns a copy of the object at url
func (m *MemoryBlobStore) Get(_ context.Context, url string) ([]byte, error) {
	key, err := keyFromURL(m.baseURL, url)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrObjectNotFound
	}
	buf := make([]byte, len(obj.data))
	copy(buf, obj.data)
	return buf, nil
}

// Delete removes the object at url; missing objects are ignored
func (m *MemoryBlobStore) Delete(_ context.Context, url string) error {
	key, err := keyFromURL(m.baseURL, url)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Keys lists stored keys in order
func (m *MemoryBlobStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ContentType returns the content type recorded for key
func (m *MemoryBlobStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects[key].contentType
}
