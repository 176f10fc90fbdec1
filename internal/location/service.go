// AngelaMos | 2026
// service.go

package location

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/feed"
)

type Service struct {
	repo      Repository
	publisher feed.Publisher
}

func NewService(repo Repository, publisher feed.Publisher) *Service {
	return &Service{repo: repo, publisher: publisher}
}

// Hierarchy loads all three collections.
func (s *Service) Hierarchy(ctx context.Context) (Hierarchy, error) {
	shelves, err := s.repo.ListShelves(ctx)
	if err != nil {
		return Hierarchy{}, err
	}
	cabinets, err := s.repo.ListCabinets(ctx, "")
	if err != nil {
		return Hierarchy{}, err
	}
	folders, err := s.repo.ListFolders(ctx, "")
	if err != nil {
		return Hierarchy{}, err
	}
	return Hierarchy{Shelves: shelves, Cabinets: cabinets, Folders: folders}, nil
}

// ResolvePath loads the shelf → cabinet → folder chain for folderID.
func (s *Service) ResolvePath(ctx context.Context, folderID string) (Path, error) {
	if !core.ValidID(folderID) {
		return Path{}, fmt.Errorf("resolve path: %w", core.ErrNotFound)
	}

	folder, err := s.repo.GetFolder(ctx, folderID)
	if err != nil {
		return Path{}, err
	}
	cabinet, err := s.repo.GetCabinet(ctx, folder.CabinetID)
	if err != nil {
		return Path{}, err
	}
	shelf, err := s.repo.GetShelf(ctx, cabinet.ShelfID)
	if err != nil {
		return Path{}, err
	}

	return Path{Shelf: *shelf, Cabinet: *cabinet, Folder: *folder}, nil
}

func (s *Service) ListShelves(ctx context.Context) ([]Shelf, error) {
	return s.repo.ListShelves(ctx)
}

func (s *Service) GetShelf(ctx context.Context, id string) (*Shelf, error) {
	if !core.ValidID(id) {
		return nil, fmt.Errorf("get shelf: %w", core.ErrNotFound)
	}
	return s.repo.GetShelf(ctx, id)
}

func (s *Service) CreateShelf(ctx context.Context, req ShelfRequest) (*Shelf, error) {
	shelf := &Shelf{
		ID:   core.NewID(),
		Code: normalizeCode(req.Code),
		Name: strings.TrimSpace(req.Name),
	}

	if err := s.repo.CreateShelf(ctx, shelf); err != nil {
		return nil, err
	}

	s.changed(ctx, feed.Shelves)
	return shelf, nil
}

func (s *Service) UpdateShelf(
	ctx context.Context,
	id string,
	req ShelfRequest,
) (*Shelf, error) {
	shelf, err := s.GetShelf(ctx, id)
	if err != nil {
		return nil, err
	}

	shelf.Code = normalizeCode(req.Code)
	shelf.Name = strings.TrimSpace(req.Name)

	if err := s.repo.UpdateShelf(ctx, shelf); err != nil {
		return nil, err
	}

	s.changed(ctx, feed.Shelves)
	return shelf, nil
}

// DeleteShelf fails with core.ErrConflict while cabinets or records still
// reference the shelf.
func (s *Service) DeleteShelf(ctx context.Context, id string) error {
	if !core.ValidID(id) {
		return fmt.Errorf("delete shelf: %w", core.ErrNotFound)
	}
	if err := s.repo.DeleteShelf(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, feed.Shelves)
	return nil
}

func (s *Service) ListCabinets(ctx context.Context, shelfID string) ([]Cabinet, error) {
	if shelfID != "" && !core.ValidID(shelfID) {
		return []Cabinet{}, nil
	}
	return s.repo.ListCabinets(ctx, shelfID)
}

func (s *Service) GetCabinet(ctx context.Context, id string) (*Cabinet, error) {
	if !core.ValidID(id) {
		return nil, fmt.Errorf("get cabinet: %w", core.ErrNotFound)
	}
	return s.repo.GetCabinet(ctx, id)
}

func (s *Service) CreateCabinet(
	ctx context.Context,
	req CabinetRequest,
) (*Cabinet, error) {
	if _, err := s.GetShelf(ctx, req.ShelfID); err != nil {
		return nil, fmt.Errorf("create cabinet: parent shelf: %w", err)
	}

	cabinet := &Cabinet{
		ID:      core.NewID(),
		ShelfID: req.ShelfID,
		Code:    normalizeCode(req.Code),
		Name:    strings.TrimSpace(req.Name),
	}

	if err := s.repo.CreateCabinet(ctx, cabinet); err != nil {
		return nil, err
	}

	s.changed(ctx, feed.Cabinets)
	return cabinet, nil
}

// UpdateCabinet may move the cabinet to another shelf; records filed under
// it keep pointing at the old shelf until they are edited, so a move is
// refused while the cabinet still holds folders.
func (s *Service) UpdateCabinet(
	ctx context.Context,
	id string,
	req CabinetRequest,
) (*Cabinet, error) {
	cabinet, err := s.GetCabinet(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ShelfID != cabinet.ShelfID {
		if _, err := s.GetShelf(ctx, req.ShelfID); err != nil {
			return nil, fmt.Errorf("update cabinet: parent shelf: %w", err)
		}
		folders, err := s.repo.ListFolders(ctx, cabinet.ID)
		if err != nil {
			return nil, err
		}
		if len(folders) > 0 {
			return nil, fmt.Errorf(
				"update cabinet: cannot move a cabinet that holds folders: %w",
				core.ErrConflict,
			)
		}
	}

	cabinet.ShelfID = req.ShelfID
	cabinet.Code = normalizeCode(req.Code)
	cabinet.Name = strings.TrimSpace(req.Name)

	if err := s.repo.UpdateCabinet(ctx, cabinet); err != nil {
		return nil, err
	}

	s.changed(ctx, feed.Cabinets)
	return cabinet, nil
}

func (s *Service) DeleteCabinet(ctx context.Context, id string) error {
	if !core.ValidID(id) {
		return fmt.Errorf("delete cabinet: %w", core.ErrNotFound)
	}
	if err := s.repo.DeleteCabinet(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, feed.Cabinets)
	return nil
}

func (s *Service) ListFolders(ctx context.Context, cabinetID string) ([]Folder, error) {
	if cabinetID != "" && !core.ValidID(cabinetID) {
		return []Folder{}, nil
	}
	return s.repo.ListFolders(ctx, cabinetID)
}

func (s *Service) GetFolder(ctx context.Context, id string) (*Folder, error) {
	if !core.ValidID(id) {
		return nil, fmt.Errorf("get folder: %w", core.ErrNotFound)
	}
	return s.repo.GetFolder(ctx, id)
}

func (s *Service) CreateFolder(ctx context.Context, req FolderRequest) (*Folder, error) {
	if _, err := s.GetCabinet(ctx, req.CabinetID); err != nil {
		return nil, fmt.Errorf("create folder: parent cabinet: %w", err)
	}

	folder := &Folder{
		ID:        core.NewID(),
		CabinetID: req.CabinetID,
		Code:      normalizeCode(req.Code),
		Name:      strings.TrimSpace(req.Name),
		Color:     colorOrDefault(req.Color),
	}

	if err := s.repo.CreateFolder(ctx, folder); err != nil {
		return nil, err
	}

	s.changed(ctx, feed.Folders)
	return folder, nil
}

// UpdateFolder edits code, name and color. Moving a folder between cabinets
// is not supported because records store the full path.
func (s *Service) UpdateFolder(
	ctx context.Context,
	id string,
	req FolderRequest,
) (*Folder, error) {
	folder, err := s.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CabinetID != folder.CabinetID {
		return nil, fmt.Errorf(
			"update folder: folders cannot change cabinet: %w",
			core.ErrInvalidInput,
		)
	}

	folder.Code = normalizeCode(req.Code)
	folder.Name = strings.TrimSpace(req.Name)
	folder.Color = colorOrDefault(req.Color)

	if err := s.repo.UpdateFolder(ctx, folder); err != nil {
		return nil, err
	}

	s.changed(ctx, feed.Folders)
	return folder, nil
}

func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	if !core.ValidID(id) {
		return fmt.Errorf("delete folder: %w", core.ErrNotFound)
	}
	if err := s.repo.DeleteFolder(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, feed.Folders)
	return nil
}

func (s *Service) changed(ctx context.Context, c feed.Collection) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, c); err != nil {
		slog.Warn("change event not published",
			"collection", c,
			"error", err,
		)
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func colorOrDefault(color string) string {
	if color == "" {
		return DefaultFolderColor
	}
	return strings.ToLower(color)
}
