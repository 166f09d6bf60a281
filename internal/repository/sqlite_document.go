package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
)

// SQLiteDocumentRepo stores document metadata. File contents live in the
// content-addressed blob store.
type SQLiteDocumentRepo struct {
	db db.DBTX
}

// NewSQLiteDocumentRepo creates a new SQLiteDocumentRepo.
func NewSQLiteDocumentRepo(conn db.DBTX) *SQLiteDocumentRepo {
	return &SQLiteDocumentRepo{db: conn}
}

const documentColumns = `id, project_id, file_name, content_type, size_bytes, sha256, extracted_text, uploaded_by, created_at`

func (r *SQLiteDocumentRepo) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ProjectID, d.FileName, d.ContentType, d.SizeBytes, d.SHA256,
		d.ExtractedText, d.UploadedBy, formatTimestamp(d.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (r *SQLiteDocumentRepo) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

func (r *SQLiteDocumentRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE project_id = ? ORDER BY created_at, file_name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

func (r *SQLiteDocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireAffected(res, "document", id)
}

// CountBySHA reports how many documents reference the blob with digest sha.
func (r *SQLiteDocumentRepo) CountBySHA(ctx context.Context, sha string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE sha256 = ?`, sha).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting document references: %w", err)
	}
	return n, nil
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var d domain.Document
	var createdAtStr string
	err := row.Scan(&d.ID, &d.ProjectID, &d.FileName, &d.ContentType, &d.SizeBytes, &d.SHA256,
		&d.ExtractedText, &d.UploadedBy, &createdAtStr)
	if err != nil {
		return nil, notFound("document", err)
	}
	if d.CreatedAt, err = parseTimestamp(createdAtStr, "created_at"); err != nil {
		return nil, err
	}
	return &d, nil
}
