package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLocalBaseURL is where the API serves the local upload directory on a default install.
const DefaultLocalBaseURL = "http://localhost:8080/uploads"

// Local writes blobs below a base directory.
type Local struct {
	basePath string
	baseURL  string
}

// NewLocal creates basePath if needed. An empty baseURL falls back to DefaultLocalBaseURL.
func NewLocal(basePath, baseURL string) (*Local, error) {
	if basePath == "" {
		basePath = "./uploads"
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultLocalBaseURL
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Local{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Local) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}

// Save writes body to the key's file.
func (s *Local) Save(_ context.Context, key string, body io.Reader, _ string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	file, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		return fmt.Errorf("write file: %w", err)
	}
	return file.Close()
}

// Delete removes the key's file. Missing files are not an error.
func (s *Local) Delete(_ context.Context, key string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// URL returns the absolute public URL of key.
func (s *Local) URL(key string) string {
	return s.baseURL + "/" + url.PathEscape(key)
}
