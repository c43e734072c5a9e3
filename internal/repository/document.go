package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/sqlerr"
)

type DocumentRepository interface {
	Create(ctx context.Context, d *model.Document) (*model.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	ListByObject(ctx context.Context, objectType model.ObjectType, objectID uuid.UUID) ([]model.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByObjectAndType(ctx context.Context, objectType model.ObjectType, objectID uuid.UUID, documentType string) (int, error)
}

const documentColumns = `id, object_type, object_id, document_type, filename, storage_path, size, content_type,
	uploaded_by, created_at, updated_at`

type documentRepository struct {
	db DBTX
}

func NewDocumentRepository(db DBTX) DocumentRepository {
	return &documentRepository{db: db}
}

func scanDocument(row scanner) (*model.Document, error) {
	var d model.Document
	err := row.Scan(
		&d.ID, &d.ObjectType, &d.ObjectID, &d.DocumentType, &d.Filename, &d.StoragePath, &d.Size, &d.ContentType,
		&d.UploadedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepository) Create(ctx context.Context, d *model.Document) (*model.Document, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO documents (object_type, object_id, document_type, filename, storage_path, size, content_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+documentColumns,
		d.ObjectType, d.ObjectID, d.DocumentType, d.Filename, d.StoragePath, d.Size, d.ContentType, d.UploadedBy,
	)
	created, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return created, nil
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	d, err := scanDocument(r.db.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		return nil, sqlerr.NotFound("documents", err)
	}
	return d, nil
}

func (r *documentRepository) ListByObject(ctx context.Context, objectType model.ObjectType, objectID uuid.UUID) ([]model.Document, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE object_type = $1 AND object_id = $2
		ORDER BY created_at DESC`,
		objectType, objectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return collect(rows, scanDocument)
}

func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (r *documentRepository) CountByObjectAndType(ctx context.Context, objectType model.ObjectType, objectID uuid.UUID, documentType string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM documents
		WHERE object_type = $1 AND object_id = $2 AND document_type = $3`,
		objectType, objectID, documentType,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
