package storage

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

const maxLabels = 64

var (
	// ErrInvalidLabels indicates the provided label set violates validation rules.
	ErrInvalidLabels = errors.New("labels must contain between 1 and 64 entries with non-empty keys")
	// ErrLabelNotFound indicates a lookup for an unknown label key.
	ErrLabelNotFound = errors.New("label not found")
)

// Store provides access to the label set served by the API.
type Store interface {
	Labels() (map[string]string, error)
	Label(key string) (string, error)
	SetLabels(labels map[string]string) error
}

// MemoryStore keeps labels in-memory and guards access with a RWMutex.
type MemoryStore struct {
	mu     sync.RWMutex
	labels map[string]string
}

// NewMemoryStore initialises an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{labels: map[string]string{}}
}

// Labels returns a defensive copy of the current label set.
func (s *MemoryStore) Labels() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneLabels(s.labels), nil
}

// Label returns the value stored under key.
func (s *MemoryStore) Label(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.labels[key]
	if !ok {
		return "", ErrLabelNotFound
	}
	return value, nil
}

// SetLabels validates and replaces the stored label set.
func (s *MemoryStore) SetLabels(labels map[string]string) error {
	normalized, err := normalizeLabels(labels)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.labels = normalized
	s.mu.Unlock()

	return nil
}

// SortedKeys returns the label keys in lexical order, for stable responses.
func SortedKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneLabels(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}

func normalizeLabels(labels map[string]string) (map[string]string, error) {
	if len(labels) == 0 || len(labels) > maxLabels {
		return nil, ErrInvalidLabels
	}

	out := make(map[string]string, len(labels))
	for key, value := range labels {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, ErrInvalidLabels
		}
		out[key] = value
	}
	return out, nil
}
