package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/citeshield/internal/document"
)

// Parser decodes raw document bytes into line-oriented text.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.Document, error)
}

// SupportedExtensions lists file extensions this service can handle. The
// empty extension is read as plain text.
var SupportedExtensions = map[string]bool{
	"":          true,
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Loader picks a parser by extension.
type Loader struct {
	// PDFFallback shells out to pdftotext when the Go PDF reader fails.
	PDFFallback bool
}

// DefaultLoader enables every fallback.
var DefaultLoader = Loader{PDFFallback: true}

// ForFile returns the appropriate parser for a filename.
func (l Loader) ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case "", ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: l.PDFFallback}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension %q: convert the brief to text first", ext)
	}
}

// Load opens path and decodes it with the parser for its extension.
func (l Loader) Load(path string) (*document.Document, error) {
	p, err := l.ForFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	return p.Parse(f, filepath.Base(path))
}

// ForFile uses DefaultLoader.
func ForFile(filename string) (Parser, error) {
	return DefaultLoader.ForFile(filename)
}

// Load uses DefaultLoader.
func Load(path string) (*document.Document, error) {
	return DefaultLoader.Load(path)
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func stem(filename string) string {
	base := filepath.Base(filename)
	if s := strings.TrimSuffix(base, filepath.Ext(base)); s != "" {
		return s
	}
	return base
}

func newDocument(filename, format, title, text string) *document.Document {
	if strings.TrimSpace(title) == "" {
		title = stem(filename)
	}
	return &document.Document{Name: filename, Title: title, Format: format, Text: text}
}
