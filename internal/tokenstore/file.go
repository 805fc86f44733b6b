package tokenstore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// FileStore keeps the token in a single 0600 file. With a key the contents
// are sealed with secretbox, nonce first.
type FileStore struct {
	path string
	key  *[32]byte
}

func NewFileStore(path string, key *[32]byte) *FileStore {
	return &FileStore{path: path, key: key}
}

func (s *FileStore) Load(_ context.Context) (string, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read token file: %w", err)
	}
	if len(data) == 0 {
		return "", false, nil
	}

	if s.key == nil {
		token := strings.TrimSpace(string(data))
		return token, token != "", nil
	}

	if len(data) < nonceSize+secretbox.Overhead {
		return "", false, ErrSealed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])
	plain, ok := secretbox.Open(nil, data[nonceSize:], &nonce, s.key)
	if !ok {
		return "", false, ErrSealed
	}
	return string(plain), len(plain) > 0, nil
}

func (s *FileStore) Save(_ context.Context, token string) error {
	data := []byte(token)
	if s.key != nil {
		var nonce [nonceSize]byte
		if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
			return fmt.Errorf("failed to generate nonce: %w", err)
		}
		data = secretbox.Seal(nonce[:], data, &nonce, s.key)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
