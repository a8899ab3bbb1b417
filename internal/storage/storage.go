// Package storage delivers rendered reports to their destination: a local
// file or an S3 object.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joshsymonds/tyr/pkg/logger"
	"github.com/joshsymonds/tyr/pkg/pathutil"
)

// Sink stores one rendered report and returns where it went.
type Sink interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// ContentType returns the MIME type for a report file extension.
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// FileSink writes reports beneath a directory.
type FileSink struct {
	logger logger.Logger
	dir    string
}

// NewFileSinkWithLogger creates a sink rooted at dir with a custom logger.
func NewFileSinkWithLogger(dir string, log logger.Logger) *FileSink {
	return &FileSink{dir: dir, logger: log}
}

// Put writes data to name inside the sink directory. The file is replaced
// atomically so readers never see a partial report.
func (s *FileSink) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	path, err := pathutil.JoinAndValidate(s.dir, name)
	if err != nil {
		return "", fmt.Errorf("invalid report path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("creating temporary report: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("setting report permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("saving report: %w", err)
	}

	s.logger.Debug("Saved report", "path", path, "bytes", len(data))
	return path, nil
}
