// AngelaMos | 2026
// repository.go

package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

type Repository interface {
	ListShelves(ctx context.Context) ([]Shelf, error)
	GetShelf(ctx context.Context, id string) (*Shelf, error)
	CreateShelf(ctx context.Context, s *Shelf) error
	UpdateShelf(ctx context.Context, s *Shelf) error
	DeleteShelf(ctx context.Context, id string) error

	ListCabinets(ctx context.Context, shelfID string) ([]Cabinet, error)
	GetCabinet(ctx context.Context, id string) (*Cabinet, error)
	CreateCabinet(ctx context.Context, c *Cabinet) error
	UpdateCabinet(ctx context.Context, c *Cabinet) error
	DeleteCabinet(ctx context.Context, id string) error

	ListFolders(ctx context.Context, cabinetID string) ([]Folder, error)
	GetFolder(ctx context.Context, id string) (*Folder, error)
	CreateFolder(ctx context.Context, f *Folder) error
	UpdateFolder(ctx context.Context, f *Folder) error
	DeleteFolder(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ListShelves(ctx context.Context) ([]Shelf, error) {
	query := `
		SELECT id, code, name, created_at, updated_at
		FROM shelves
		ORDER BY code`

	shelves := []Shelf{}
	if err := r.db.SelectContext(ctx, &shelves, query); err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	return shelves, nil
}

func (r *repository) GetShelf(ctx context.Context, id string) (*Shelf, error) {
	query := `
		SELECT id, code, name, created_at, updated_at
		FROM shelves
		WHERE id = $1`

	var s Shelf
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get shelf: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get shelf: %w", err)
	}
	return &s, nil
}

func (r *repository) CreateShelf(ctx context.Context, s *Shelf) error {
	query := `
		INSERT INTO shelves (id, code, name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, s.ID, s.Code, s.Name).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	return wrapWriteErr("create shelf", err)
}

func (r *repository) UpdateShelf(ctx context.Context, s *Shelf) error {
	query := `
		UPDATE shelves
		SET code = $2, name = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &s.UpdatedAt, query, s.ID, s.Code, s.Name)
	return wrapWriteErr("update shelf", err)
}

func (r *repository) DeleteShelf(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "delete shelf", `DELETE FROM shelves WHERE id = $1`, id)
}

func (r *repository) ListCabinets(
	ctx context.Context,
	shelfID string,
) ([]Cabinet, error) {
	query := `
		SELECT id, shelf_id, code, name, created_at, updated_at
		FROM cabinets
		WHERE ($1 = '' OR shelf_id::text = $1)
		ORDER BY code`

	cabinets := []Cabinet{}
	if err := r.db.SelectContext(ctx, &cabinets, query, shelfID); err != nil {
		return nil, fmt.Errorf("list cabinets: %w", err)
	}
	return cabinets, nil
}

func (r *repository) GetCabinet(ctx context.Context, id string) (*Cabinet, error) {
	query := `
		SELECT id, shelf_id, code, name, created_at, updated_at
		FROM cabinets
		WHERE id = $1`

	var c Cabinet
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get cabinet: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get cabinet: %w", err)
	}
	return &c, nil
}

func (r *repository) CreateCabinet(ctx context.Context, c *Cabinet) error {
	query := `
		INSERT INTO cabinets (id, shelf_id, code, name)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, c.ID, c.ShelfID, c.Code, c.Name).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	return wrapWriteErr("create cabinet", err)
}

func (r *repository) UpdateCabinet(ctx context.Context, c *Cabinet) error {
	query := `
		UPDATE cabinets
		SET shelf_id = $2, code = $3, name = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &c.UpdatedAt, query, c.ID, c.ShelfID, c.Code, c.Name)
	return wrapWriteErr("update cabinet", err)
}

func (r *repository) DeleteCabinet(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "delete cabinet", `DELETE FROM cabinets WHERE id = $1`, id)
}

func (r *repository) ListFolders(
	ctx context.Context,
	cabinetID string,
) ([]Folder, error) {
	query := `
		SELECT id, cabinet_id, code, name, color, created_at, updated_at
		FROM folders
		WHERE ($1 = '' OR cabinet_id::text = $1)
		ORDER BY code`

	folders := []Folder{}
	if err := r.db.SelectContext(ctx, &folders, query, cabinetID); err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return folders, nil
}

func (r *repository) GetFolder(ctx context.Context, id string) (*Folder, error) {
	query := `
		SELECT id, cabinet_id, code, name, color, created_at, updated_at
		FROM folders
		WHERE id = $1`

	var f Folder
	err := r.db.GetContext(ctx, &f, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get folder: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return &f, nil
}

func (r *repository) CreateFolder(ctx context.Context, f *Folder) error {
	query := `
		INSERT INTO folders (id, cabinet_id, code, name, color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		f.ID, f.CabinetID, f.Code, f.Name, f.Color,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	return wrapWriteErr("create folder", err)
}

func (r *repository) UpdateFolder(ctx context.Context, f *Folder) error {
	query := `
		UPDATE folders
		SET cabinet_id = $2, code = $3, name = $4, color = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &f.UpdatedAt, query,
		f.ID, f.CabinetID, f.Code, f.Name, f.Color,
	)
	return wrapWriteErr("update folder", err)
}

func (r *repository) DeleteFolder(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "delete folder", `DELETE FROM folders WHERE id = $1`, id)
}

func (r *repository) deleteByID(
	ctx context.Context,
	op, query, id string,
) error {
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return wrapWriteErr(op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func wrapWriteErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	case core.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateKey)
	case core.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, core.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
