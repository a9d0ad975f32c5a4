package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// storageKey is the fixed key the credential is saved under
const storageKey = "gemini_api_key"

// FilePersister keeps the credential in a small YAML file readable only by
// the current user.
type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

func (f *FilePersister) Load(ctx context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.path, err)
	}

	var doc map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("parse %s: %w", f.path, err)
	}
	return doc[storageKey], nil
}

func (f *FilePersister) Save(ctx context.Context, key string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	data, err := yaml.Marshal(map[string]string{storageKey: key})
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	// CreateTemp opens with 0600, and the rename replaces the old file whole
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create credential file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (f *FilePersister) Delete(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", f.path, err)
	}
	return nil
}
