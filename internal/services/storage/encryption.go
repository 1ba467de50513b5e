package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
)

func encryptData(data []byte, recipient *age.ScryptRecipient) ([]byte, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decryptData(data []byte, identity *age.ScryptIdentity) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// verify checks passphrase against the verify file. Caller holds s.mu.
func (s *Store) verify(passphrase string) (*age.ScryptIdentity, *age.ScryptRecipient, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, nil, fmt.Errorf("creating identity: %w", err)
	}

	sealed, err := os.ReadFile(filepath.Join(s.baseDir, verifyFile))
	if err != nil {
		return nil, nil, fmt.Errorf("reading verification file: %w", err)
	}
	plain, err := decryptData(sealed, identity)
	if err != nil || string(plain) != verifyMagic {
		return nil, nil, ErrWrongPassphrase
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, nil, fmt.Errorf("creating recipient: %w", err)
	}
	return identity, recipient, nil
}

// EnableEncryption seals every existing file with passphrase and keeps the store unlocked
func (s *Store) EnableEncryption(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encrypted {
		return fmt.Errorf("encryption is already enabled")
	}
	if len(passphrase) < MinPassphraseLength {
		return fmt.Errorf("passphrase must be at least %d characters", MinPassphraseLength)
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating recipient: %w", err)
	}
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("creating identity: %w", err)
	}

	verifyPath := filepath.Join(s.baseDir, verifyFile)
	sealed, err := encryptData([]byte(verifyMagic), recipient)
	if err != nil {
		return fmt.Errorf("encrypting verification file: %w", err)
	}
	if err := atomicWrite(verifyPath, sealed); err != nil {
		return fmt.Errorf("writing verification file: %w", err)
	}

	files, err := s.dataFiles()
	if err != nil {
		os.Remove(verifyPath)
		return err
	}

	var done []string
	for _, path := range files {
		err := rewrite(path, func(data []byte) ([]byte, error) {
			if isAgeEncrypted(data) {
				return nil, nil
			}
			return encryptData(data, recipient)
		})
		if err != nil {
			for _, p := range done {
				rewrite(p, func(data []byte) ([]byte, error) { return decryptData(data, identity) })
			}
			os.Remove(verifyPath)
			return fmt.Errorf("encrypting %s: %w", filepath.Base(path), err)
		}
		done = append(done, path)
	}

	if err := os.WriteFile(filepath.Join(s.baseDir, markerFile), []byte("encrypted"), 0600); err != nil {
		return fmt.Errorf("creating marker file: %w", err)
	}

	s.encrypted = true
	s.identity = identity
	s.recipient = recipient
	return nil
}

// DisableEncryption writes every file back in plaintext. The passphrase must match.
func (s *Store) DisableEncryption(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.encrypted {
		return fmt.Errorf("encryption is not enabled")
	}

	identity, _, err := s.verify(passphrase)
	if err != nil {
		return err
	}

	files, err := s.dataFiles()
	if err != nil {
		return err
	}
	for _, path := range files {
		err := rewrite(path, func(data []byte) ([]byte, error) {
			if !isAgeEncrypted(data) {
				return nil, nil
			}
			return decryptData(data, identity)
		})
		if err != nil {
			return fmt.Errorf("decrypting %s: %w", filepath.Base(path), err)
		}
	}

	os.Remove(filepath.Join(s.baseDir, markerFile))
	os.Remove(filepath.Join(s.baseDir, verifyFile))

	s.encrypted = false
	s.identity = nil
	s.recipient = nil
	return nil
}

// dataFiles lists the regular files under baseDir, skipping the marker and verify files
func (s *Store) dataFiles() ([]string, error) {
	var files []string
	err := filepath.Walk(s.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || isReserved(path) || filepath.Ext(path) == ".tmp" {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.baseDir, err)
	}
	return files, nil
}

// rewrite replaces path with fn(contents). A nil result leaves the file untouched.
func rewrite(path string, fn func([]byte) ([]byte, error)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := fn(data)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return atomicWrite(path, out)
}
