// Package extract turns an uploaded document into the text that gets
// fingerprinted. Only plain-text documents are handled here; PDF and DOCX
// parsing belongs to the upstream document service.
package extract

import (
	"bytes"
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	dErrors "lexchain/pkg/domain-errors"
)

// DefaultMaxBytes caps an uploaded document.
const DefaultMaxBytes = 10 << 20

// Extractor yields the text of a document.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, filename string) (string, error)
}

// PlainText decodes UTF-8, UTF-16 (with BOM) and Windows-1252 text files.
type PlainText struct {
	MaxBytes int64
}

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
	pdfMagic   = []byte("%PDF-")
	zipMagic   = []byte("PK\x03\x04")
)

// Extract reads the document, decodes it to UTF-8, normalizes line breaks
// and trims surrounding whitespace. Binary formats are rejected.
func (p PlainText) Extract(ctx context.Context, r io.Reader, filename string) (string, error) {
	max := p.MaxBytes
	if max <= 0 {
		max = DefaultMaxBytes
	}
	raw, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read document")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if int64(len(raw)) > max {
		return "", dErrors.New(dErrors.CodeInvalidInput, "document too large")
	}
	if bytes.HasPrefix(raw, pdfMagic) || bytes.HasPrefix(raw, zipMagic) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported document format for "+filename+": submit extracted text")
	}

	decoded, err := decode(raw)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "document encoding not recognized")
	}
	if bytes.IndexByte(decoded, 0) >= 0 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "document appears to be binary")
	}

	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "no extractable text found")
	}
	return text, nil
}

func decode(raw []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, utf16LEBOM), bytes.HasPrefix(raw, utf16BEBOM):
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
		return out, err
	case utf8.Valid(raw):
		return bytes.TrimPrefix(raw, utf8BOM), nil
	default:
		return charmap.Windows1252.NewDecoder().Bytes(raw)
	}
}
