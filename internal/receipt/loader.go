// Package receipt validates uploaded receipt files and prepares them for
// analysis.
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

var (
	ErrTooLarge        = errors.New("receipt: file too large")
	ErrUnsupportedType = errors.New("receipt: unsupported file type")
)

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
	mimeGIF  = "image/gif"
	mimePDF  = "application/pdf"
)

// Loader checks receipt size and content type. PDF scans are rasterised to
// a JPEG of their first page.
type Loader struct {
	maxBytes int64
	logger   *zap.Logger
}

// NewLoader creates a receipt loader
func NewLoader(maxBytes int64, logger *zap.Logger) *Loader {
	return &Loader{maxBytes: maxBytes, logger: logger}
}

// Load validates data and returns a receipt ready to attach to an analysis
func (l *Loader) Load(name string, data []byte) (*entity.Receipt, error) {
	if int64(len(data)) > l.maxBytes {
		return nil, l.tooLarge()
	}

	mtype := mimetype.Detect(data)
	l.logger.Debug("Receipt content detected",
		zap.String("name", name),
		zap.String("mime", mtype.String()),
		zap.Int("size", len(data)))

	switch {
	case mtype.Is(mimeJPEG), mtype.Is(mimePNG), mtype.Is(mimeGIF):
		return &entity.Receipt{Name: name, MimeType: baseMime(mtype.String()), Data: data}, nil
	case mtype.Is(mimePDF):
		img, err := firstPageJPEG(data)
		if err != nil {
			l.logger.Warn("Failed to rasterise PDF receipt", zap.String("name", name), zap.Error(err))
			return nil, &entity.ValidationError{
				Field:   "receipt",
				Message: "Could not read the PDF receipt. Please upload an image instead.",
				Err:     fmt.Errorf("%w: %v", ErrUnsupportedType, err),
			}
		}
		if int64(len(img)) > l.maxBytes {
			return nil, l.tooLarge()
		}
		return &entity.Receipt{Name: name, MimeType: mimeJPEG, Data: img}, nil
	default:
		return nil, &entity.ValidationError{
			Field:   "receipt",
			Message: "Invalid file type. Please upload JPG, PNG, GIF or PDF.",
			Err:     ErrUnsupportedType,
		}
	}
}

// LoadFile reads a receipt from disk, checking its size before reading
func (l *Loader) LoadFile(path string) (*entity.Receipt, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat receipt: %w", err)
	}
	if info.Size() > l.maxBytes {
		return nil, l.tooLarge()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt: %w", err)
	}
	return l.Load(filepath.Base(path), data)
}

func (l *Loader) tooLarge() error {
	return &entity.ValidationError{
		Field:   "receipt",
		Message: fmt.Sprintf("File is too large. Maximum size is %dMB.", l.maxBytes/(1024*1024)),
		Err:     ErrTooLarge,
	}
}

func firstPageJPEG(data []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// baseMime drops parameters such as "; charset=binary"
func baseMime(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		return strings.TrimSpace(m[:i])
	}
	return m
}
