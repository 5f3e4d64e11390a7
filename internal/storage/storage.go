// Package storage persists uploaded application documents and returns their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/jobboard/job-board/internal/config"
)

// Store saves blobs under a key and resolves the key to a URL.
type Store interface {
	Save(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New builds the store selected by cfg.Driver.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.BasePath, cfg.BaseURL)
	case "s3":
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// ObjectKey returns "<unix millis>-<name>" with whitespace runs replaced by underscores.
func ObjectKey(now time.Time, name string) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + whitespace.ReplaceAllString(name, "_")
}
