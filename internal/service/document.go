package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/kryptonation/creamrun-sub000/internal/lib/storage"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/rs/zerolog"
)

type UploadDocumentInput struct {
	ObjectType   model.ObjectType
	ObjectID     uuid.UUID
	DocumentType string
	Filename     string
	ContentType  string
	Size         int64
	Body         io.Reader
	UploadedBy   *string
}

type DocumentService struct {
	repos   *repository.Repositories
	storage storage.Storage
	cfg     config.StorageConfig
	logger  *zerolog.Logger
}

func NewDocumentService(repos *repository.Repositories, store storage.Storage, cfg config.StorageConfig, logger *zerolog.Logger) *DocumentService {
	return &DocumentService{repos: repos, storage: store, cfg: cfg, logger: logger}
}

// StorageKey is where a document for the object lives: <type>/<id>/<uuid><ext>.
func StorageKey(objectType model.ObjectType, objectID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s/%s%s", objectType, objectID, uuid.New(), ext)
}

func (s *DocumentService) objectExists(ctx context.Context, t model.ObjectType, id uuid.UUID) error {
	var err error
	switch t {
	case model.ObjectTypeVehicle:
		_, err = s.repos.Vehicles.GetByID(ctx, id)
	case model.ObjectTypeDriver:
		_, err = s.repos.Drivers.GetByID(ctx, id)
	case model.ObjectTypeLease:
		_, err = s.repos.Leases.GetByID(ctx, id)
	case model.ObjectTypeMedallion:
		_, err = s.repos.Medallions.GetByID(ctx, id)
	case model.ObjectTypeExpense:
		_, err = s.repos.Expenses.GetByID(ctx, id)
	}
	return err
}

// Upload streams the file to object storage and records its metadata. The
// stored object is removed again when the record cannot be written.
func (s *DocumentService) Upload(ctx context.Context, in UploadDocumentInput) (*model.Document, error) {
	if err := s.objectExists(ctx, in.ObjectType, in.ObjectID); err != nil {
		return nil, err
	}

	key := StorageKey(in.ObjectType, in.ObjectID, in.Filename)
	info, err := s.storage.Put(ctx, key, in.Body, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata:    map[string]string{"filename": in.Filename},
	})
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	doc, err := s.repos.Documents.Create(ctx, &model.Document{
		ObjectType:   in.ObjectType,
		ObjectID:     in.ObjectID,
		DocumentType: in.DocumentType,
		Filename:     in.Filename,
		StoragePath:  key,
		Size:         info.Size,
		ContentType:  in.ContentType,
		UploadedBy:   in.UploadedBy,
	})
	if err != nil {
		if delErr := s.storage.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.Error().Err(delErr).Str("key", key).Msg("failed to remove orphaned document object")
		}
		return nil, err
	}

	s.logger.Info().
		Str("document_id", doc.ID.String()).
		Str("object_type", string(doc.ObjectType)).
		Str("key", key).
		Int64("size", doc.Size).
		Msg("document uploaded")
	return doc, nil
}

// Get returns the document with a presigned download URL.
func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	doc, err := s.repos.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.PresignGet(ctx, doc.StoragePath, s.presignTTL())
	if err != nil {
		return nil, fmt.Errorf("presign document %s: %w", doc.ID, err)
	}
	doc.DownloadURL = url
	return doc, nil
}

func (s *DocumentService) presignTTL() time.Duration {
	if s.cfg.PresignTTL <= 0 {
		return 15 * time.Minute
	}
	return s.cfg.PresignTTL
}

func (s *DocumentService) List(ctx context.Context, objectType model.ObjectType, objectID uuid.UUID) ([]model.Document, error) {
	return s.repos.Documents.ListByObject(ctx, objectType, objectID)
}

// Delete removes the stored object and then its record.
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.repos.Documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete document object: %w", err)
	}
	if err := s.repos.Documents.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("document_id", id.String()).Msg("document deleted")
	return nil
}

// Count returns how many documents of documentType the object has.
func (s *DocumentService) Count(ctx context.Context, objectType model.ObjectType, objectID uuid.UUID, documentType string) (int, error) {
	return s.repos.Documents.CountByObjectAndType(ctx, objectType, objectID, documentType)
}
