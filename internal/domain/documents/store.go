package documents

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const documentColumns = `
    id, emp_id, doc_type, storage_key, file_url, status,
    COALESCE(reject_reason, ''), uploaded_at, reviewed_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var doc Document
	err := row.Scan(
		&doc.ID, &doc.EmpID, &doc.Type, &doc.StorageKey, &doc.FileURL,
		&doc.Status, &doc.RejectReason, &doc.UploadedAt, &doc.ReviewedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (s *Store) Get(ctx context.Context, docID string) (*Document, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT`+documentColumns+`
    FROM documents
    WHERE id = $1
  `, docID)
	return scanDocument(row)
}

func (s *Store) GetByEmployeeAndType(ctx context.Context, empID, docType string) (*Document, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT`+documentColumns+`
    FROM documents
    WHERE emp_id = $1 AND doc_type = $2
  `, empID, docType)
	return scanDocument(row)
}

func (s *Store) ListByEmployee(ctx context.Context, empID string) ([]Document, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+documentColumns+`
    FROM documents
    WHERE emp_id = $1
  `, empID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces the row for (emp_id, doc_type). A conflict is a
// re-upload: last write wins, status resets to pending and any previous
// review outcome is cleared so the document goes back through review.
func (s *Store) Upsert(ctx context.Context, empID, docType, storageKey, fileURL string) (*Document, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO documents (emp_id, doc_type, storage_key, file_url, status)
    VALUES ($1, $2, $3, $4, 'pending')
    ON CONFLICT (emp_id, doc_type) DO UPDATE
    SET storage_key = EXCLUDED.storage_key,
        file_url = EXCLUDED.file_url,
        status = 'pending',
        reject_reason = NULL,
        uploaded_at = now(),
        reviewed_at = NULL
    RETURNING`+documentColumns+`
  `, empID, docType, storageKey, fileURL)
	return scanDocument(row)
}

// RecordUpload satisfies directory.DocumentRecorder for the avatar row.
func (s *Store) RecordUpload(ctx context.Context, empID, docType, storageKey, fileURL string) error {
	_, err := s.Upsert(ctx, empID, docType, storageKey, fileURL)
	return err
}

// Approve transitions pending -> approved. The status guard in the UPDATE
// makes concurrent reviews race-safe: the loser sees ErrInvalidState.
func (s *Store) Approve(ctx context.Context, docID string) (*Document, error) {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE documents
    SET status = 'approved', reject_reason = NULL, reviewed_at = now()
    WHERE id = $1 AND status = 'pending'
  `, docID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, s.transitionFailure(ctx, docID)
	}
	return s.Get(ctx, docID)
}

// Reject transitions pending -> rejected and records the reason verbatim.
func (s *Store) Reject(ctx context.Context, docID, reason string) (*Document, error) {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE documents
    SET status = 'rejected', reject_reason = $1, reviewed_at = now()
    WHERE id = $2 AND status = 'pending'
  `, reason, docID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, s.transitionFailure(ctx, docID)
	}
	return s.Get(ctx, docID)
}

func (s *Store) transitionFailure(ctx context.Context, docID string) error {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM documents WHERE id = $1", docID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrInvalidState
}

// EmployeeForDocument resolves the owning employee for review notifications.
func (s *Store) EmployeeForDocument(ctx context.Context, docID string) (name, officialEmail string, err error) {
	err = s.DB.QueryRow(ctx, `
    SELECT e.name, e.official_email
    FROM documents d
    JOIN employees e ON d.emp_id = e.emp_id
    WHERE d.id = $1
  `, docID).Scan(&name, &officialEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return name, officialEmail, err
}
