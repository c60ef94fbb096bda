package trip

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeniva/backend/internal/domain/shared"
)

// DocumentKind classifies a document attached to a trip
type DocumentKind string

const (
	DocumentInvoice   DocumentKind = "invoice"
	DocumentTicket    DocumentKind = "ticket"
	DocumentVoucher   DocumentKind = "voucher"
	DocumentItinerary DocumentKind = "itinerary"
	DocumentOther     DocumentKind = "other"
)

// ParseDocumentKind maps free text to a kind, defaulting to other
func ParseDocumentKind(s string) DocumentKind {
	switch k := DocumentKind(strings.ToLower(strings.TrimSpace(s))); k {
	case DocumentInvoice, DocumentTicket, DocumentVoucher, DocumentItinerary:
		return k
	}
	return DocumentOther
}

// Document is a file stored in the object store and listed on a trip
type Document struct {
	ID          uuid.UUID
	TripID      uuid.UUID
	Name        string
	Kind        DocumentKind
	StorageKey  string
	ContentType string
	Size        int64
	UploadedBy  uuid.UUID
	UploadedAt  time.Time
}

// NewDocument records an uploaded file
func NewDocument(tripID uuid.UUID, name string, kind DocumentKind, storageKey, contentType string, size int64, uploadedBy uuid.UUID) (*Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document name is required")
	}
	if storageKey == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document storage key is required")
	}
	return &Document{
		ID:          uuid.New(),
		TripID:      tripID,
		Name:        name,
		Kind:        kind,
		StorageKey:  storageKey,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  uploadedBy,
		UploadedAt:  time.Now(),
	}, nil
}
