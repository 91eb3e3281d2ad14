// Package extract 按文件扩展名抽取文档纯文本。
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
)

// MaxFileSize is the largest file accepted for extraction.
const MaxFileSize = 50 * 1024 * 1024

// ErrUnsupportedType is wrapped by errors for unknown extensions. The text is
// surfaced verbatim in ingestion job errors.
var ErrUnsupportedType = errors.New("Unsupported file type") //nolint:staticcheck // user-facing message

// Kind is a supported document type.
type Kind string

const (
	PDF  Kind = "pdf"
	DOCX Kind = "docx"
	CSV  Kind = "csv"
	TXT  Kind = "txt"
)

var kindByExt = map[string]Kind{
	".pdf":  PDF,
	".docx": DOCX,
	".csv":  CSV,
	".txt":  TXT,
	".md":   TXT,
}

// KindOf maps a path to its Kind by lower-cased extension.
func KindOf(path string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	k, ok := kindByExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	return k, nil
}

// File extracts the text of the document at path along with its Kind.
func File(path string) (string, Kind, error) {
	kind, err := KindOf(path)
	if err != nil {
		return "", "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", kind, fmt.Errorf("file not found: %w", err)
	}
	if info.Size() > MaxFileSize {
		return "", kind, fmt.Errorf("file exceeds size limit of %d bytes", MaxFileSize)
	}

	var text string
	switch kind {
	case PDF:
		text, err = readPDF(path)
	case DOCX:
		text, err = readDOCX(path)
	case CSV:
		text, err = readCSV(path)
	default:
		text, err = readText(path)
	}
	return text, kind, err
}

func readText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), ""), nil
}

func readPDF(path string) (string, error) {
	r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}
