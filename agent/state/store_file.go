package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists the memory document as an indented UTF-8 JSON file.
type FileStore struct {
	path string
}

type FileStoreConfig struct {
	Path string `envconfig:"PATH" split_words:"true" default:"memory_store.json"`
}

func NewFileStore(cfg FileStoreConfig) (*FileStore, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("memory store path is required")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Load(_ context.Context) (*Document, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("read memory document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode memory document: %w", err)
	}
	return &doc, nil
}

func (s *FileStore) Save(_ context.Context, doc *Document) error {
	if doc == nil {
		return ErrNilDocument
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory document: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create memory directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("write memory document: %w", err)
	}
	return nil
}
