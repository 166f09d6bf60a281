package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/stagegate/internal/authz"
	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/repository"
	"github.com/alexanderramin/stagegate/internal/storage"
)

type documentService struct {
	documents repository.DocumentRepo
	blobs     *storage.BlobStore
	uow       db.UnitOfWork
	observer  UseCaseObserver
	now       func() time.Time
}

func NewDocumentService(documents repository.DocumentRepo, blobs *storage.BlobStore, uow db.UnitOfWork, observers ...UseCaseObserver) DocumentService {
	return &documentService{
		documents: documents,
		blobs:     blobs,
		uow:       uow,
		observer:  useCaseObserverOrNoop(observers),
		now:       systemNow,
	}
}

// Upload stores the content first and the metadata second. If the metadata
// write fails, a blob no other document references is removed again.
func (s *documentService) Upload(ctx context.Context, actor *domain.User, projectID, fileName string, r io.Reader) (doc *domain.Document, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"project_id": projectID}
	defer func() { observe(ctx, s.observer, "document-upload", startedAt, fields, err) }()

	if err = authz.Require(actor, authz.ActionDocumentWrite); err != nil {
		return nil, err
	}
	name := storage.SanitizeFileName(fileName)
	blob, err := s.blobs.Put(r)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, fmt.Errorf("%s: %w: %w", name, err, domain.ErrValidation)
		}
		return nil, fmt.Errorf("storing %s: %w", name, err)
	}
	fields["size"] = blob.Size

	contentType := storage.ContentType(name)
	doc = &domain.Document{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		FileName:    name,
		ContentType: contentType,
		SizeBytes:   blob.Size,
		SHA256:      blob.SHA256,
		UploadedBy:  actor.Username,
		CreatedAt:   s.now(),
	}
	if storage.IsTextual(contentType, name) {
		doc.ExtractedText = storage.ExtractText(blob.Head)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, projectID); err != nil {
			return err
		}
		if err := repository.NewSQLiteDocumentRepo(tx).Create(ctx, doc); err != nil {
			return err
		}
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "document.upload", "document", doc.ID,
			fmt.Sprintf("%s (%d bytes, sha256 %s)", name, blob.Size, blob.SHA256), doc.CreatedAt)
	})
	if err != nil {
		s.dropUnreferenced(ctx, blob.SHA256)
		return nil, err
	}
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documents.GetByID(ctx, id)
}

func (s *documentService) Open(ctx context.Context, id string) (io.ReadCloser, *domain.Document, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Open(doc.SHA256)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", doc.FileName, err)
	}
	return rc, doc, nil
}

func (s *documentService) List(ctx context.Context, projectID string) ([]*domain.Document, error) {
	return s.documents.ListByProject(ctx, projectID)
}

// Delete removes the metadata and, once nothing else points at it, the blob.
func (s *documentService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := authz.Require(actor, authz.ActionDocumentWrite); err != nil {
		return err
	}
	var sha string
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txDocs := repository.NewSQLiteDocumentRepo(tx)
		doc, err := txDocs.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := txDocs.Delete(ctx, id); err != nil {
			return err
		}
		sha = doc.SHA256
		return appendAudit(ctx, repository.NewSQLiteAuditRepo(tx), actor, "document.delete", "document", id, doc.FileName, s.now())
	})
	if err != nil {
		return err
	}
	s.dropUnreferenced(ctx, sha)
	return nil
}

func (s *documentService) dropUnreferenced(ctx context.Context, sha string) {
	n, err := s.documents.CountBySHA(ctx, sha)
	if err != nil || n > 0 {
		return
	}
	_ = s.blobs.Delete(sha)
}
