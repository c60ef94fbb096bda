package trip

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zeniva/backend/internal/domain/audit"
	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/trip"
	"github.com/zeniva/backend/internal/infrastructure/telemetry"
	"github.com/zeniva/backend/internal/infrastructure/validation"
)

// AllowedContentTypes is the whitelist of document uploads. SVG and HTML
// are excluded since browsers execute scripts embedded in them.
var AllowedContentTypes = map[string]bool{
	// Documents
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	// Images
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/heic": true,
	// Text
	"text/plain": true,
	"text/csv":   true,
	// Archives
	"application/zip": true,
}

// DocumentStore is the object storage behind trip documents
type DocumentStore interface {
	// Put uploads size bytes of r under key
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// DownloadURL returns a time-limited link to the object
	DownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// AttachDocument uploads content to the object store and lists it on the
// trip. The object is removed again when the trip cannot be saved.
func (s *Service) AttachDocument(ctx context.Context, p identity.Principal, tripID uuid.UUID, in AttachDocumentInput, content io.Reader) (resp *DocumentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "AttachDocument")
	details := map[string]any{"name": in.Name, "content_type": in.ContentType, "size": in.Size}
	defer func() {
		s.audit.Mutation(ctx, p, audit.ActionDocumentAttached, targetTrip, tripID, err, details)
		telemetry.End(span, err)
	}()

	if err = authorize(p, identity.PermDocumentsWrite); err != nil {
		return nil, err
	}
	if err = validation.Struct(in); err != nil {
		return nil, err
	}
	contentType := normalizeContentType(in.ContentType)
	if !AllowedContentTypes[contentType] {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE", fmt.Sprintf("Content type %s is not allowed", in.ContentType))
	}
	if s.config.MaxUploadSize > 0 && in.Size > s.config.MaxUploadSize {
		return nil, shared.NewDomainError("FILE_TOO_LARGE", fmt.Sprintf("Document exceeds the %d byte limit", s.config.MaxUploadSize))
	}

	f, err := s.loadFile(ctx, p, tripID)
	if err != nil {
		return nil, err
	}

	key := storageKey(p.TenantID, f.ID, in.Name)
	if err = s.documents.Put(ctx, key, content, in.Size, contentType); err != nil {
		s.logger.Error("failed to upload trip document",
			zap.String("trip_id", f.ID.String()),
			zap.String("storage_key", key),
			zap.Error(err),
		)
		return nil, shared.NewDomainErrorWithCause("STORAGE_ERROR", "Failed to store document", err)
	}

	doc, err := trip.NewDocument(f.ID, in.Name, trip.ParseDocumentKind(in.Kind), key, contentType, in.Size, p.AccountID)
	if err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}
	f.AttachDocument(doc)
	details["document_id"] = doc.ID.String()

	if _, err = s.save(ctx, f); err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}

	r := toDocumentResponse(doc)
	s.withDownloadURL(ctx, &r, doc)
	return &r, nil
}

// ListDocuments lists the trip documents with fresh download links
func (s *Service) ListDocuments(ctx context.Context, p identity.Principal, tripID uuid.UUID) ([]DocumentResponse, error) {
	if err := authorize(p, identity.PermTripsRead); err != nil {
		return nil, err
	}
	f, err := s.loadFile(ctx, p, tripID)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentResponse, len(f.Documents))
	for i, d := range f.Documents {
		out[i] = toDocumentResponse(d)
		s.withDownloadURL(ctx, &out[i], d)
	}
	return out, nil
}

func (s *Service) withDownloadURL(ctx context.Context, r *DocumentResponse, d *trip.Document) {
	url, expires, err := s.documents.DownloadURL(ctx, d.StorageKey, s.config.DownloadURLExpiry)
	if err != nil {
		s.logger.Warn("failed to sign document url", zap.String("document_id", d.ID.String()), zap.Error(err))
		return
	}
	r.DownloadURL = url
	r.ExpiresAt = &expires
}

func (s *Service) removeObject(ctx context.Context, key string) {
	if err := s.documents.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to remove orphaned document", zap.String("storage_key", key), zap.Error(err))
	}
}

// storageKey lays objects out as tenants/{tenant}/trips/{trip}/documents/{id}{ext}
func storageKey(tenantID, tripID uuid.UUID, fileName string) string {
	return fmt.Sprintf("tenants/%s/trips/%s/documents/%s%s",
		tenantID, tripID, uuid.New(), strings.ToLower(filepath.Ext(fileName)))
}

func normalizeContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}
