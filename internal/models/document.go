package models

import (
	"fmt"
	"time"
)

// DocumentType is the kind of content stored in a document
type DocumentType string

const (
	DocumentTypePDF      DocumentType = "pdf"
	DocumentTypeMarkdown DocumentType = "markdown"
	DocumentTypeCSV      DocumentType = "csv"
)

// DocumentStatus tracks server-side ingestion of an uploaded document
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusDone       DocumentStatus = "done"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// DocumentTypes lists every document type
func DocumentTypes() []DocumentType {
	return []DocumentType{DocumentTypePDF, DocumentTypeMarkdown, DocumentTypeCSV}
}

// DocumentStatuses lists every status in ingestion order
func DocumentStatuses() []DocumentStatus {
	return []DocumentStatus{DocumentStatusPending, DocumentStatusProcessing, DocumentStatusDone, DocumentStatusFailed}
}

// ParseDocumentType validates a document type. The empty string is allowed
// and means "any".
func ParseDocumentType(value string) (DocumentType, error) {
	for _, t := range append(DocumentTypes(), "") {
		if string(t) == value {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q (want one of %v)", value, DocumentTypes())
}

// ParseDocumentStatus validates a document status. The empty string is
// allowed and means "any".
func ParseDocumentStatus(value string) (DocumentStatus, error) {
	for _, s := range append(DocumentStatuses(), "") {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown document status %q (want one of %v)", value, DocumentStatuses())
}

// IsTerminal reports whether ingestion has finished, successfully or not
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusDone || s == DocumentStatusFailed
}

// Document is a user-supplied reference file
type Document struct {
	ID             string         `json:"id" yaml:"id"`
	Title          string         `json:"title" yaml:"title"`
	DocumentType   DocumentType   `json:"documentType" yaml:"document_type"`
	DocumentStatus DocumentStatus `json:"documentStatus" yaml:"document_status"`
	RetryCount     int            `json:"retryCount" yaml:"retry_count"`
	CreatedAt      time.Time      `json:"createdAt" yaml:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" yaml:"updated_at"`
}

// CreateDocumentRequest is the body of POST /api/documents.
// Data holds the base64-encoded file content.
type CreateDocumentRequest struct {
	Title        string       `json:"title"`
	DocumentType DocumentType `json:"documentType"`
	Data         string       `json:"data"`
}
