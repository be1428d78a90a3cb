package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend keeps all keys in one JSON object on disk. Every write goes
// through a temp file and a rename, so a crash never leaves a torn file.
type FileBackend struct {
	path string
	mu   sync.Mutex
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

func (f *FileBackend) Path() string {
	return f.path
}

func (f *FileBackend) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *FileBackend) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	data[key] = value
	return f.save(data)
}

func (f *FileBackend) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(data, k)
	}
	return f.save(data)
}

func (f *FileBackend) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs: %w", err)
	}
	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode prefs %s: %w", f.path, err)
	}
	return data, nil
}

func (f *FileBackend) save(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".prefs-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	defer os.Remove(tmp.Name()) // rename 成功后这里是 no-op

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
