package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"socratic-coach/backend/internal/document"
	app_errors "socratic-coach/backend/internal/errors"
)

// UploadRecorder receives one observation per processed upload.
type UploadRecorder interface {
	RecordUpload(kind string, err error)
}

// DocumentService turns an uploaded file into problem text. The upload is
// spooled to a temporary file which is always removed before returning.
type DocumentService struct {
	maxBytes int64
	maxChars int
	tempDir  string
	recorder UploadRecorder
}

func NewDocumentService(maxBytes int64, maxChars int, tempDir string, recorder UploadRecorder) *DocumentService {
	return &DocumentService{maxBytes: maxBytes, maxChars: maxChars, tempDir: tempDir, recorder: recorder}
}

// MaxBytes is the largest accepted upload.
func (s *DocumentService) MaxBytes() int64 {
	return s.maxBytes
}

func (s *DocumentService) Extract(ctx context.Context, filename, contentType string, r io.Reader) (result *document.Result, err error) {
	kind, err := document.DetectKind(contentType, filename)
	label := string(kind)
	if label == "" {
		label = "unknown"
	}
	defer func() {
		if s.recorder != nil {
			s.recorder.RecordUpload(label, err)
		}
	}()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", app_errors.ErrValidation, err)
	}

	path, err := s.spool(r, filepath.Ext(filename))
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			slog.WarnContext(ctx, "Failed to remove temporary upload", "path", path, "error", rmErr)
		}
	}()

	text, err := document.Extract(path, kind)
	if err != nil {
		if errors.Is(err, document.ErrEmptyContent) || errors.Is(err, document.ErrEncrypted) {
			return nil, fmt.Errorf("%w: %v", app_errors.ErrValidation, err)
		}
		slog.ErrorContext(ctx, "Document extraction failed", "kind", kind, "filename", filename, "error", err)
		return nil, fmt.Errorf("%w: could not process the uploaded document", app_errors.ErrInternal)
	}

	res := document.Truncate(text, s.maxChars)
	slog.InfoContext(ctx, "Extracted document text", "kind", kind, "chars", res.OriginalLength, "truncated", res.Truncated)
	return &res, nil
}

// spool copies at most maxBytes from r into a temporary file and returns its
// path. Larger uploads are rejected and leave nothing behind.
func (s *DocumentService) spool(r io.Reader, ext string) (string, error) {
	f, err := os.CreateTemp(s.tempDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("could not create temporary file: %w", err)
	}
	path := f.Name()

	n, copyErr := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("could not store upload: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("could not store upload: %w", closeErr)
	case n > s.maxBytes:
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: file exceeds the %d byte limit", app_errors.ErrValidation, s.maxBytes)
	}
	return path, nil
}
