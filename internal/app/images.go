package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"hotel_booking/internal/domain"
)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true}

// ImageService stores uploads under dir and queues a resize job for each.
type ImageService struct {
	dir  string
	jobs domain.JobPublisher
}

func NewImageService(dir string, jobs domain.JobPublisher) *ImageService {
	return &ImageService{dir: dir, jobs: jobs}
}

type StoredImage struct {
	Path  string
	JobID string
}

// Upload writes src to a fresh file named after a UUID and submits a resize job.
// It returns as soon as the job is queued.
func (s *ImageService) Upload(ctx context.Context, filename string, src io.Reader) (StoredImage, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExts[ext] {
		return StoredImage{}, fmt.Errorf("%w: unsupported image type %q", domain.ErrValidation, ext)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return StoredImage{}, err
	}

	path := filepath.Join(s.dir, uuid.NewString()+ext)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return StoredImage{}, err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		_ = os.Remove(path)
		return StoredImage{}, err
	}
	if err := f.Close(); err != nil {
		return StoredImage{}, err
	}

	job := domain.Job{ID: uuid.NewString(), Type: domain.JobImageResize, Data: map[string]any{"path": path}}
	if err := s.jobs.Publish(ctx, job); err != nil {
		return StoredImage{Path: path}, fmt.Errorf("submit resize job: %w", err)
	}
	return StoredImage{Path: path, JobID: job.ID}, nil
}
