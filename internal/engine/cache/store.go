package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const cacheFileExtension = ".json"

// Common cache errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrCacheExpired    = errors.New("cache entry expired")
	ErrInvalidCacheKey = errors.New("cache key cannot be empty")
	ErrCacheDisabled   = errors.New("cache is disabled")
)

// FileStore stores cache entries as JSON files in one directory.
// Thread-safe for concurrent access.
type FileStore struct {
	directory  string
	enabled    bool
	ttlSeconds int
	now        func() time.Time

	// mu protects concurrent access to file operations.
	mu sync.RWMutex
}

// StoreOption customizes a FileStore.
type StoreOption func(*FileStore)

// WithClock overrides time.Now for entry creation and expiry checks.
func WithClock(now func() time.Time) StoreOption {
	return func(s *FileStore) {
		s.now = now
	}
}

// NewFileStore creates a file-based cache store. The directory is created if
// it doesn't exist. A disabled store accepts no writes and finds nothing.
func NewFileStore(directory string, enabled bool, ttlSeconds int, opts ...StoreOption) (*FileStore, error) {
	if !enabled {
		return &FileStore{enabled: false, now: time.Now}, nil
	}

	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if err := ValidateTTL(ttlSeconds); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &FileStore{
		directory:  directory,
		enabled:    true,
		ttlSeconds: ttlSeconds,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Key derives a filesystem-safe cache key from its parts.
func Key(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = strings.ToLower(strings.TrimSpace(p))
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Get retrieves a cache entry by key.
// Returns ErrCacheNotFound if the entry doesn't exist and ErrCacheExpired
// if it has outlived its TTL.
func (s *FileStore) Get(key string) (*Entry, error) {
	if !s.enabled {
		return nil, ErrCacheDisabled
	}
	if key == "" {
		return nil, ErrInvalidCacheKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.keyToFilePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entry Entry
	if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", unmarshalErr)
	}

	if entry.IsExpiredAt(s.now()) {
		return nil, ErrCacheExpired
	}
	return &entry, nil
}

// Set stores data under key, overwriting any existing entry.
func (s *FileStore) Set(key string, data json.RawMessage) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := NewEntry(key, data, s.ttlSeconds, s.now())
	entryData, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	filePath := s.keyToFilePath(key)
	tempPath := filePath + ".tmp"
	if writeErr := os.WriteFile(tempPath, entryData, 0o600); writeErr != nil {
		return fmt.Errorf("failed to write cache file: %w", writeErr)
	}
	if renameErr := os.Rename(tempPath, filePath); renameErr != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename cache file: %w", renameErr)
	}
	return nil
}

// Delete removes a cache entry by key. Missing entries are not an error.
func (s *FileStore) Delete(key string) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if key == "" {
		return ErrInvalidCacheKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.keyToFilePath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// CleanupExpired removes all expired entries and returns how many it removed.
func (s *FileStore) CleanupExpired() (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	now := s.now()
	removed := 0
	for _, dirEntry := range entries {
		if dirEntry.IsDir() || filepath.Ext(dirEntry.Name()) != cacheFileExtension {
			continue
		}

		filePath := filepath.Join(s.directory, dirEntry.Name())
		data, readErr := os.ReadFile(filePath)
		if readErr != nil {
			continue
		}

		var entry Entry
		if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
			continue
		}

		if entry.IsExpiredAt(now) && os.Remove(filePath) == nil {
			removed++
		}
	}
	return removed, nil
}

// IsEnabled returns true if caching is enabled.
func (s *FileStore) IsEnabled() bool {
	return s.enabled
}

// Now returns the store's current time.
func (s *FileStore) Now() time.Time {
	return s.now()
}

func (s *FileStore) keyToFilePath(key string) string {
	safeKey := strings.ReplaceAll(key, "/", "_")
	safeKey = strings.ReplaceAll(safeKey, "\\", "_")
	safeKey = strings.ReplaceAll(safeKey, ":", "_")
	return filepath.Join(s.directory, safeKey+cacheFileExtension)
}
