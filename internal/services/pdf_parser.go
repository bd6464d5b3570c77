package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// CVDocument is a selected CV file read into memory for upload.
type CVDocument struct {
	Name    string
	Path    string
	Content []byte
	Size    int64
}

// PDFSummary describes what the local preflight saw in a PDF.
type PDFSummary struct {
	PageCount int
	HasText   bool
}

type DocumentService interface {
	Load(path string) (*CVDocument, error)
	InspectPDF(path string) (*PDFSummary, error)
}

type documentService struct {
	maxFileSize int64
}

// NewDocumentService loads CV files. maxFileSize <= 0 disables the
// size check.
func NewDocumentService(maxFileSize int64) DocumentService {
	return &documentService{maxFileSize: maxFileSize}
}

func (d *documentService) Load(path string) (*CVDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileUnreadable, path)
	}
	if d.maxFileSize > 0 && info.Size() > d.maxFileSize {
		return nil, fmt.Errorf("%w: max size %d bytes", ErrFileTooLarge, d.maxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}

	return &CVDocument{
		Name:    filepath.Base(path),
		Path:    path,
		Content: content,
		Size:    info.Size(),
	}, nil
}

// InspectPDF opens a PDF and counts pages that carry text.
func (d *documentService) InspectPDF(path string) (*PDFSummary, error) {
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return nil, fmt.Errorf("not a PDF: %s", filepath.Base(path))
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	summary := &PDFSummary{PageCount: r.NumPage()}

	for pageIndex := 1; pageIndex <= summary.PageCount; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			summary.HasText = true
			break
		}
	}

	return summary, nil
}
