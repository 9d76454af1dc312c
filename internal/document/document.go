// Package document turns tool inputs (base64 payloads or file paths) into
// document bytes the extraction service accepts, with the format sniffed and
// the page count known up front.
package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrInvalidDocument means the input is not a decodable, supported document.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrFileNotFound means the path does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileUnreadable means the path exists but cannot be read as a file.
	ErrFileUnreadable = errors.New("file unreadable")
)

// Supported MIME types.
const (
	MIMEPDF  = "application/pdf"
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMETIFF = "image/tiff"
	MIMEBMP  = "image/bmp"
	MIMEGIF  = "image/gif"
	MIMEWEBP = "image/webp"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var supported = map[string]bool{
	MIMEPDF:  true,
	MIMEPNG:  true,
	MIMEJPEG: true,
	MIMETIFF: true,
	MIMEBMP:  true,
	MIMEGIF:  true,
	MIMEWEBP: true,
	MIMEDOCX: true,
	MIMEPPTX: true,
	MIMEXLSX: true,
}

// Document is a loaded document ready for extraction.
type Document struct {
	Data      []byte
	Filename  string
	Path      string // absolute path, empty for base64 input
	MIME      string
	Extension string

	// PageCount is 1 for images and 0 when the format has no cheap page
	// count (Office documents).
	PageCount int
}

// IsImage reports whether the document is a single raster image.
func (d *Document) IsImage() bool {
	return strings.HasPrefix(d.MIME, "image/")
}

// Decode builds a document from a base64 payload. Standard and URL-safe
// alphabets are accepted, padded or not, with an optional data URL prefix.
func Decode(encoded string) (*Document, error) {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, fmt.Errorf("%w: malformed data URL", ErrInvalidDocument)
		}
		payload = payload[comma+1:]
	}
	payload = strings.Join(strings.Fields(payload), "")
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDocument)
	}

	var data []byte
	var err error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if data, err = enc.DecodeString(payload); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: not valid base64: %v", ErrInvalidDocument, err)
	}

	return New(data, "")
}

// Load reads a document from the filesystem. Relative paths resolve against
// the working directory.
func Load(path string) (*Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrFileNotFound)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileUnreadable, path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, classifyFSError(abs, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileUnreadable, abs)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, classifyFSError(abs, err)
	}

	doc, err := New(data, filepath.Base(abs))
	if err != nil {
		return nil, err
	}
	doc.Path = abs
	return doc, nil
}

func classifyFSError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return fmt.Errorf("%w: %s: %v", ErrFileUnreadable, path, err)
}

// New sniffs the format of data and counts its pages.
func New(data []byte, filename string) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if kind == filetype.Unknown {
		return nil, fmt.Errorf("%w: unrecognized format", ErrInvalidDocument)
	}
	if !supported[kind.MIME.Value] {
		return nil, fmt.Errorf("%w: unsupported format %s", ErrInvalidDocument, kind.MIME.Value)
	}

	doc := &Document{
		Data:      data,
		Filename:  filename,
		MIME:      kind.MIME.Value,
		Extension: kind.Extension,
	}
	if doc.Filename == "" {
		doc.Filename = "document." + kind.Extension
	}

	switch {
	case doc.MIME == MIMEPDF:
		pages, err := countPDFPages(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		doc.PageCount = pages
	case doc.IsImage():
		doc.PageCount = 1
	}
	return doc, nil
}

func countPDFPages(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	if pages < 1 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return pages, nil
}
