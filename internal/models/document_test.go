package models

import "testing"

func TestParseDocumentFilters(t *testing.T) {
	if got, err := ParseDocumentType("csv"); err != nil || got != DocumentTypeCSV {
		t.Fatalf("expected csv, got %q %v", got, err)
	}
	if got, err := ParseDocumentType(""); err != nil || got != "" {
		t.Fatalf("empty type should mean any, got %q %v", got, err)
	}
	if _, err := ParseDocumentType("md"); err == nil {
		t.Error("md is an extension, not a document type")
	}
	if got, err := ParseDocumentStatus("failed"); err != nil || got != DocumentStatusFailed {
		t.Fatalf("expected failed, got %q %v", got, err)
	}
	if _, err := ParseDocumentStatus("uploading"); err == nil {
		t.Error("expected error for unknown status")
	}
}
