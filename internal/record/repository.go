// AngelaMos | 2026
// repository.go

package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

type Repository interface {
	List(ctx context.Context) ([]Record, error)
	ListByFolder(ctx context.Context, folderID string) ([]Record, error)
	FolderIDs(ctx context.Context) ([]string, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	SetStackNumber(ctx context.Context, id string, stackNumber *int) error
	Delete(ctx context.Context, id string) error
	// LockFolder serializes stack changes within one folder until the
	// surrounding transaction ends.
	LockFolder(ctx context.Context, folderID string) error
	InTx(ctx context.Context, fn func(Repository) error) error
}

type repository struct {
	db   core.DBTX
	conn *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db, conn: db}
}

const recordColumns = `
	id, pr_number, description, shelf_id, cabinet_id, folder_id, status,
	urgency_level, date_added, stack_number, borrowed_by, division,
	borrowed_date, return_date, created_by, created_by_name, created_at,
	edited_by, edited_by_name, last_edited_at, tags, notes`

func (r *repository) List(ctx context.Context) ([]Record, error) {
	query := `SELECT ` + recordColumns + `
		FROM records
		ORDER BY date_added DESC, id`

	records := []Record{}
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (r *repository) ListByFolder(
	ctx context.Context,
	folderID string,
) ([]Record, error) {
	query := `SELECT ` + recordColumns + `
		FROM records
		WHERE folder_id = $1
		ORDER BY stack_number NULLS LAST, date_added, id`

	records := []Record{}
	if err := r.db.SelectContext(ctx, &records, query, folderID); err != nil {
		return nil, fmt.Errorf("list folder records: %w", err)
	}
	return records, nil
}

func (r *repository) FolderIDs(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT folder_id FROM records ORDER BY folder_id`

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list record folders: %w", err)
	}
	return ids, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Record, error) {
	query := `SELECT ` + recordColumns + `
		FROM records
		WHERE id = $1`

	var rec Record
	err := r.db.GetContext(ctx, &rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get record: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &rec, nil
}

func (r *repository) Create(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO records (
			id, pr_number, description, shelf_id, cabinet_id, folder_id,
			status, urgency_level, date_added, stack_number, borrowed_by,
			division, borrowed_date, return_date, created_by, created_by_name,
			tags, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18
		)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &rec.CreatedAt, query,
		rec.ID,
		rec.PRNumber,
		rec.Description,
		rec.ShelfID,
		rec.CabinetID,
		rec.FolderID,
		rec.Status,
		rec.UrgencyLevel,
		rec.DateAdded,
		rec.StackNumber,
		rec.BorrowedBy,
		rec.Division,
		rec.BorrowedDate,
		rec.ReturnDate,
		rec.CreatedBy,
		rec.CreatedByName,
		rec.Tags,
		rec.Notes,
	)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("create record: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, rec *Record) error {
	query := `
		UPDATE records
		SET pr_number = $2, description = $3, shelf_id = $4, cabinet_id = $5,
		    folder_id = $6, status = $7, urgency_level = $8, date_added = $9,
		    stack_number = $10, borrowed_by = $11, division = $12,
		    borrowed_date = $13, return_date = $14, edited_by = $15,
		    edited_by_name = $16, last_edited_at = $17, tags = $18, notes = $19
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.PRNumber,
		rec.Description,
		rec.ShelfID,
		rec.CabinetID,
		rec.FolderID,
		rec.Status,
		rec.UrgencyLevel,
		rec.DateAdded,
		rec.StackNumber,
		rec.BorrowedBy,
		rec.Division,
		rec.BorrowedDate,
		rec.ReturnDate,
		rec.EditedBy,
		rec.EditedByName,
		rec.LastEditedAt,
		rec.Tags,
		rec.Notes,
	)
	if err != nil {
		if core.IsForeignKeyViolation(err) {
			return fmt.Errorf("update record: %w", core.ErrNotFound)
		}
		return fmt.Errorf("update record: %w", err)
	}

	return expectOneRow("update record", result)
}

func (r *repository) SetStackNumber(
	ctx context.Context,
	id string,
	stackNumber *int,
) error {
	query := `UPDATE records SET stack_number = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, stackNumber)
	if err != nil {
		return fmt.Errorf("set stack number: %w", err)
	}
	return expectOneRow("set stack number", result)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return expectOneRow("delete record", result)
}

func (r *repository) LockFolder(ctx context.Context, folderID string) error {
	var id string
	err := r.db.GetContext(ctx, &id,
		`SELECT id FROM folders WHERE id = $1 FOR UPDATE`, folderID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock folder: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock folder: %w", err)
	}
	return nil
}

// InTx runs fn against a transaction-bound repository. Nested calls reuse
// the outer transaction.
func (r *repository) InTx(
	ctx context.Context,
	fn func(Repository) error,
) error {
	if r.conn == nil {
		return fn(r)
	}
	return core.InTx(ctx, r.conn, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx})
	})
}

func expectOneRow(op string, result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}
