package repository

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
)

type fileRepository struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *bufio.Writer
}

// NewFileRepository truncates (or creates) path and writes one identifier per
// line. Every save is flushed to disk before returning.
func NewFileRepository(path string) (IdentifierRepository, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &fileRepository{
		path:   path,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (r *fileRepository) SaveIdentifiers(_ context.Context, _ string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if _, err := r.writer.WriteString(id + "\n"); err != nil {
			return fmt.Errorf("failed to write identifiers to %s: %w", r.path, err)
		}
	}

	if err := r.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush identifiers to %s: %w", r.path, err)
	}
	if err := r.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", r.path, err)
	}
	return nil
}

func (r *fileRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writer.Flush(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to flush identifiers to %s: %w", r.path, err)
	}
	return r.file.Close()
}
