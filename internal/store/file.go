package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"lingua-client/internal/domain"
)

// File keeps the credential pair in a JSON file, the durable analog of the
// browser client's local storage. Writes go through a temp file and rename
// so a crash cannot leave a half-written credentials file.
type File struct {
	path string
	mu   sync.Mutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Load(_ context.Context) (domain.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *File) Save(_ context.Context, pair domain.TokenPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(pair)
}

func (f *File) SetAccessToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pair, err := f.read()
	if err != nil {
		return err
	}
	pair.AccessToken = token
	return f.write(pair)
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (f *File) read() (domain.TokenPair, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.TokenPair{}, domain.ErrNoCredentials
	}
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("read credentials: %w", err)
	}
	var pair domain.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return domain.TokenPair{}, fmt.Errorf("decode credentials: %w", err)
	}
	if pair.AccessToken == "" && pair.RefreshToken == "" {
		return domain.TokenPair{}, domain.ErrNoCredentials
	}
	return pair, nil
}

func (f *File) write(pair domain.TokenPair) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	data, err := json.MarshalIndent(pair, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
