package plaintext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
)

var pdfMagic = []byte("%PDF-")

// Extractor reads UTF-8 text files and the text layer of PDFs.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	var text string
	if isPDF(doc, raw) {
		text, err = extractPDF(raw)
		if err != nil {
			return "", domain.WrapError(domain.ErrInvalidInput, "extract pdf text", err)
		}
	} else {
		if !utf8.Valid(raw) {
			return "", domain.WrapError(domain.ErrInvalidInput, "extract text", fmt.Errorf("unsupported binary format: %s", doc.Filename))
		}
		text = string(raw)
	}

	return normalizeNewlines(strings.TrimSpace(text)), nil
}

func isPDF(doc *domain.Document, raw []byte) bool {
	if bytes.HasPrefix(raw, pdfMagic) {
		return true
	}
	return strings.EqualFold(filepath.Ext(doc.Filename), ".pdf") || doc.MimeType == "application/pdf"
}

func extractPDF(raw []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return "", errors.New("pdf has no text layer")
	}
	return string(out), nil
}

func normalizeNewlines(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	return strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text)
}
