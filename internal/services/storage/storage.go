// Package storage keeps small state files (the signed-in session) under the data
// directory, optionally sealed with an age passphrase.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"filippo.io/age"
)

const (
	// ageHeader is the prefix of age-encrypted files
	ageHeader = "age-encryption.org"

	// markerFile indicates the directory is sealed
	markerFile = ".encrypted"

	// verifyFile holds verifyMagic encrypted with the passphrase
	verifyFile = ".encryption-verify"

	verifyMagic = `{"magic":"decisiondash-session-verify","version":1}`

	// MinPassphraseLength is enforced when sealing
	MinPassphraseLength = 8
)

var (
	// ErrLocked is returned when a sealed file is read or written before Unlock
	ErrLocked = errors.New("session storage is locked")

	// ErrWrongPassphrase is returned when the passphrase does not open the verify file
	ErrWrongPassphrase = errors.New("incorrect passphrase")
)

// Store reads and writes named files in one directory
type Store struct {
	baseDir   string
	encrypted bool
	identity  *age.ScryptIdentity
	recipient *age.ScryptRecipient
	mu        sync.RWMutex
}

// New opens the store rooted at baseDir, creating the directory if needed
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &Store{baseDir: baseDir}
	if _, err := os.Stat(filepath.Join(baseDir, markerFile)); err == nil {
		s.encrypted = true
	}
	return s, nil
}

// BaseDir returns the directory files are stored in
func (s *Store) BaseDir() string {
	return s.baseDir
}

// IsEncrypted reports whether files are sealed at rest
func (s *Store) IsEncrypted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encrypted
}

// IsUnlocked reports whether files can currently be read and written
func (s *Store) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.encrypted || s.identity != nil
}

// Unlock loads the key for a sealed store. It is a no-op for a plain store.
func (s *Store) Unlock(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.encrypted {
		return nil
	}

	identity, recipient, err := s.verify(passphrase)
	if err != nil {
		return err
	}
	s.identity = identity
	s.recipient = recipient
	return nil
}

// Lock drops the key from memory
func (s *Store) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = nil
	s.recipient = nil
}

// ReadFile returns the plaintext contents of name
func (s *Store) ReadFile(name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !isAgeEncrypted(data) {
		return data, nil
	}
	if s.identity == nil {
		return nil, ErrLocked
	}
	plain, err := decryptData(data, s.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting %s: %w", name, err)
	}
	return plain, nil
}

// WriteFile replaces name atomically, sealing it when the store is encrypted
func (s *Store) WriteFile(name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.encrypted {
		if s.recipient == nil {
			return ErrLocked
		}
		sealed, err := encryptData(data, s.recipient)
		if err != nil {
			return fmt.Errorf("encrypting %s: %w", name, err)
		}
		data = sealed
	}
	return atomicWrite(path, data)
}

// Remove deletes name. A missing file is not an error.
func (s *Store) Remove(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether name is present
func (s *Store) Exists(name string) bool {
	path, err := s.path(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// path resolves name inside baseDir, rejecting anything that escapes it
func (s *Store) path(name string) (string, error) {
	clean := filepath.Clean(name)
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if isReserved(clean) {
		return "", fmt.Errorf("file name %q is reserved", name)
	}
	return filepath.Join(s.baseDir, clean), nil
}

func isReserved(name string) bool {
	base := filepath.Base(name)
	return base == markerFile || base == verifyFile
}

// atomicWrite writes to a temp file and renames it over path
func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func isAgeEncrypted(data []byte) bool {
	return len(data) > len(ageHeader) && string(data[:len(ageHeader)]) == ageHeader
}
