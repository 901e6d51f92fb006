// Package storage writes generated report files under a confined output
// directory.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// FileType represents the kind of report being stored
type FileType int

const (
	FileTypeGeneric FileType = iota
	FileTypePDF
	FileTypeExcel
)

func (t FileType) String() string {
	switch t {
	case FileTypePDF:
		return "pdf"
	case FileTypeExcel:
		return "xlsx"
	default:
		return "generic"
	}
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// FileStorage saves report files
type FileStorage interface {
	// SaveReport writes content as name inside the base directory and
	// returns the full path written
	SaveReport(name string, content []byte, fileType FileType) (string, error)

	// ValidatePath checks path security (no traversal, within base)
	ValidatePath(fullPath string) error
}

// LocalFileStorage implements FileStorage on the local filesystem
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// BaseDir returns the output directory
func (s *LocalFileStorage) BaseDir() string {
	return s.baseDir
}

// SaveReport writes content to baseDir/name, creating the directory and
// replacing any previous file of the same name.
func (s *LocalFileStorage) SaveReport(name string, content []byte, fileType FileType) (string, error) {
	safe := SanitizeFileName(name)
	if safe == "" {
		return "", fmt.Errorf("invalid report file name: %q", name)
	}

	fullPath := filepath.Join(s.baseDir, safe)
	if err := s.ValidatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		s.logger.Error("Failed to create output directory",
			zap.String("path", s.baseDir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write file",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Info("Report saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)),
		zap.Stringer("file_type", fileType))

	return fullPath, nil
}

// ValidatePath checks that the path is within baseDir
func (s *LocalFileStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}

// SanitizeFileName strips separators, parent references and any character
// outside [a-zA-Z0-9-_.]
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = unsafeNameChars.ReplaceAllString(name, "")
	return strings.TrimLeft(name, ".")
}
