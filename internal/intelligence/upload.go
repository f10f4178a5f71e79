package intelligence

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/alphadoc/pkg/formatting"
)

// SupportedExtensions lists the document types the analysis engine accepts.
var SupportedExtensions = []string{".pdf", ".docx", ".doc"}

// Upload is a document checked locally and ready for analysis.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	// Pages is zero when the page count could not be determined.
	Pages int
}

func (u *Upload) Size() int64 {
	return int64(len(u.Data))
}

// OpenUpload reads the file at path and validates it for analysis. An empty
// path yields ErrNoFile. maxSize <= 0 disables the size check.
func OpenUpload(path string, maxSize int64) (*Upload, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoFile
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoFile, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidFile, path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf(
			"%w: %s is %s, limit %s",
			ErrFileTooLarge,
			filepath.Base(path),
			formatting.FormatBytes(info.Size(), 1),
			formatting.FormatBytes(maxSize, 1),
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return NewUpload(filepath.Base(path), data, maxSize)
}

// NewUpload validates in-memory document content.
func NewUpload(filename string, data []byte, maxSize int64) (*Upload, error) {
	if filename == "" {
		return nil, ErrNoFile
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(SupportedExtensions, ext) {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedType, filename, strings.Join(SupportedExtensions, ", "))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, filename)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge, filename, formatting.FormatBytes(maxSize, 1))
	}

	u := &Upload{
		Filename:    filename,
		ContentType: contentType(ext),
		Data:        data,
	}

	if ext == ".pdf" {
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			return nil, fmt.Errorf("%w: %s is not a PDF document", ErrInvalidFile, filename)
		}
		u.Pages = PageCount(data)
	}

	return u, nil
}

// PageCount returns the number of pages in a PDF, or zero when the document
// cannot be read.
func PageCount(data []byte) (n int) {
	// pdfcpu may panic on malformed cross-reference tables.
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()

	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0
	}
	return n
}

func contentType(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	default:
		return "application/octet-stream"
	}
}
