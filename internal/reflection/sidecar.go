package reflection

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// Write serializes the manifest to path. The payload lands in a temp file
// first and is moved into place with one rename, so readers never observe
// a half-written sidecar.
func Write(path string, man *Manifest) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("reflection: %w", err)
	}
	f, err := os.CreateTemp(dir, ".ember-reflect-*")
	if err != nil {
		return fmt.Errorf("reflection: %w", err)
	}
	if err := msgpack.NewEncoder(f).Encode(man); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("reflection: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("reflection: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("reflection: %w", err)
	}
	return nil
}

// Read loads and validates a sidecar.
func Read(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reflection: %w", err)
	}
	defer func() { _ = f.Close() }()

	var man Manifest
	if err := msgpack.NewDecoder(f).Decode(&man); err != nil {
		return nil, fmt.Errorf("reflection: decode %s: %w", path, err)
	}
	if man.Schema != Schema {
		return nil, fmt.Errorf("reflection: sidecar %s has schema %d, this build reads %d", path, man.Schema, Schema)
	}
	return &man, nil
}
