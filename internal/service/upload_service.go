package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobboard/job-board/internal/observability"
	"github.com/jobboard/job-board/internal/storage"
	apperrors "github.com/jobboard/job-board/pkg/util/errorutil"
)

// UploadResult references a stored document.
type UploadResult struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// UploadService stores single documents ahead of an application submission.
type UploadService struct {
	store   storage.Store
	maxSize int64
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewUploadService builds the service. maxSize <= 0 disables the size check.
func NewUploadService(store storage.Store, maxSize int64, metrics *observability.Metrics, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{store: store, maxSize: maxSize, metrics: metrics, logger: logger, now: time.Now}
}

// Upload saves one file and returns where it can be fetched. Nothing about applications is
// touched here; the caller submits the returned reference later.
func (s *UploadService) Upload(ctx context.Context, name, contentType string, size int64, body io.Reader) (*UploadResult, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) || size <= 0 {
		return nil, apperrors.NewValidationError("No file uploaded.", nil)
	}
	if s.maxSize > 0 && size > s.maxSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("File exceeds the maximum size of %d bytes.", s.maxSize),
			map[string]any{"maxBytes": s.maxSize},
		)
	}

	key := storage.ObjectKey(s.now(), name)
	if err := s.store.Save(ctx, key, body, contentType); err != nil {
		s.logger.Error("store upload", zap.String("key", key), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	s.metrics.Inc(observability.CounterUploads)
	s.logger.Info("document uploaded", zap.String("key", key), zap.Int64("size", size))
	return &UploadResult{URL: s.store.URL(key), Name: name}, nil
}
