// Package upload validates local files and turns them into document create requests.
package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabe/consultant/internal/metrics"
	"github.com/gabe/consultant/internal/models"
	"golang.org/x/text/encoding/charmap"
)

const (
	DefaultMaxFileSize = 10 * 1024 * 1024
	DefaultMaxPDFPages = 15
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrTooManyPages    = errors.New("too many PDF pages")
)

// extensions maps the allowed file extensions to document types. Matching is case-sensitive.
var extensions = map[string]models.DocumentType{
	"pdf": models.DocumentTypePDF,
	"md":  models.DocumentTypeMarkdown,
	"csv": models.DocumentTypeCSV,
}

// AllowedExtensions lists the accepted extensions in display order
func AllowedExtensions() []string {
	return []string{"pdf", "md", "csv"}
}

// Limits bounds what may be uploaded
type Limits struct {
	MaxFileSize int64
	MaxPDFPages int
}

func DefaultLimits() Limits {
	return Limits{MaxFileSize: DefaultMaxFileSize, MaxPDFPages: DefaultMaxPDFPages}
}

func (l Limits) withDefaults() Limits {
	if l.MaxFileSize <= 0 {
		l.MaxFileSize = DefaultMaxFileSize
	}
	if l.MaxPDFPages <= 0 {
		l.MaxPDFPages = DefaultMaxPDFPages
	}
	return l
}

// ValidationError explains why a file was rejected. It wraps one of
// ErrUnsupportedType, ErrFileTooLarge or ErrTooManyPages.
type ValidationError struct {
	Name   string
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v (%s)", e.Name, e.Err, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// extension returns the text after the last dot, or the whole name when there is none
func extension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// DocumentTypeFor maps a file name to its document type
func DocumentTypeFor(name string) (models.DocumentType, error) {
	t, ok := extensions[extension(name)]
	if !ok {
		return "", &ValidationError{
			Name:   name,
			Err:    ErrUnsupportedType,
			Detail: "allowed: " + strings.Join(AllowedExtensions(), ", "),
		}
	}
	return t, nil
}

// Title strips the final extension from a file name
func Title(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return name
}

var pageMarker = regexp.MustCompile(`/Type\s*/Page\b`)

// EstimatePDFPages counts page objects in raw PDF bytes. It is a heuristic:
// compressed object streams hide pages (undercount) and a "/Type /Page" inside
// content or metadata is counted too (overcount).
func EstimatePDFPages(data []byte) int {
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		text = data
	}
	return len(pageMarker.FindAllIndex(text, -1))
}

// Validate checks name and size without reading the content
func Validate(name string, size int64, limits Limits) (models.DocumentType, error) {
	limits = limits.withDefaults()

	docType, err := DocumentTypeFor(name)
	if err != nil {
		return "", err
	}
	if size > limits.MaxFileSize {
		return "", &ValidationError{
			Name:   name,
			Err:    ErrFileTooLarge,
			Detail: fmt.Sprintf("%d bytes, limit %d", size, limits.MaxFileSize),
		}
	}
	return docType, nil
}

// PrepareBytes validates in-memory content and builds the create request
func PrepareBytes(name string, data []byte, limits Limits) (*models.CreateDocumentRequest, error) {
	limits = limits.withDefaults()

	docType, err := Validate(name, int64(len(data)), limits)
	if err != nil {
		return nil, err
	}

	if docType == models.DocumentTypePDF {
		if pages := EstimatePDFPages(data); pages > limits.MaxPDFPages {
			return nil, &ValidationError{
				Name:   name,
				Err:    ErrTooManyPages,
				Detail: fmt.Sprintf("%d pages, limit %d", pages, limits.MaxPDFPages),
			}
		}
	}

	return &models.CreateDocumentRequest{
		Title:        Title(name),
		DocumentType: docType,
		Data:         base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Prepare validates the file at path and builds the create request. The size
// limit is checked from file metadata before any content is read.
func Prepare(path string, limits Limits) (*models.CreateDocumentRequest, error) {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if _, err := Validate(name, info.Size(), limits); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return PrepareBytes(name, data, limits)
}

// Creator sends a create request to the backend
type Creator interface {
	CreateDocument(ctx context.Context, req models.CreateDocumentRequest) (string, error)
}

// Uploader validates and uploads files
type Uploader struct {
	creator Creator
	limits  Limits
	metrics *metrics.Metrics
}

func NewUploader(creator Creator, limits Limits, m *metrics.Metrics) *Uploader {
	return &Uploader{creator: creator, limits: limits.withDefaults(), metrics: m}
}

// Upload sends the file at path and returns the new document id. Nothing is
// sent when validation fails.
func (u *Uploader) Upload(ctx context.Context, path string) (string, error) {
	req, err := Prepare(path, u.limits)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			u.metrics.ObserveUpload("rejected")
		}
		return "", err
	}

	id, err := u.creator.CreateDocument(ctx, *req)
	if err != nil {
		u.metrics.ObserveUpload("failed")
		return "", fmt.Errorf("failed to upload %s: %w", req.Title, err)
	}
	u.metrics.ObserveUpload("ok")
	return id, nil
}
