// AngelaMos | 2026
// service_test.go

package location

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/feed"
)

type memRepo struct {
	shelves  map[string]Shelf
	cabinets map[string]Cabinet
	folders  map[string]Folder
}

func newMemRepo() *memRepo {
	return &memRepo{
		shelves:  map[string]Shelf{},
		cabinets: map[string]Cabinet{},
		folders:  map[string]Folder{},
	}
}

func (m *memRepo) ListShelves(context.Context) ([]Shelf, error) {
	out := []Shelf{}
	for _, s := range m.shelves {
		out = append(out, s)
	}
	return out, nil
}

func (m *memRepo) GetShelf(_ context.Context, id string) (*Shelf, error) {
	s, ok := m.shelves[id]
	if !ok {
		return nil, fmt.Errorf("get shelf: %w", core.ErrNotFound)
	}
	return &s, nil
}

func (m *memRepo) CreateShelf(_ context.Context, s *Shelf) error {
	m.shelves[s.ID] = *s
	return nil
}

func (m *memRepo) UpdateShelf(_ context.Context, s *Shelf) error {
	m.shelves[s.ID] = *s
	return nil
}

func (m *memRepo) DeleteShelf(_ context.Context, id string) error {
	for _, c := range m.cabinets {
		if c.ShelfID == id {
			return fmt.Errorf("delete shelf: %w", core.ErrConflict)
		}
	}
	if _, ok := m.shelves[id]; !ok {
		return fmt.Errorf("delete shelf: %w", core.ErrNotFound)
	}
	delete(m.shelves, id)
	return nil
}

func (m *memRepo) ListCabinets(_ context.Context, shelfID string) ([]Cabinet, error) {
	out := []Cabinet{}
	for _, c := range m.cabinets {
		if shelfID == "" || c.ShelfID == shelfID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) GetCabinet(_ context.Context, id string) (*Cabinet, error) {
	c, ok := m.cabinets[id]
	if !ok {
		return nil, fmt.Errorf("get cabinet: %w", core.ErrNotFound)
	}
	return &c, nil
}

func (m *memRepo) CreateCabinet(_ context.Context, c *Cabinet) error {
	m.cabinets[c.ID] = *c
	return nil
}

func (m *memRepo) UpdateCabinet(_ context.Context, c *Cabinet) error {
	m.cabinets[c.ID] = *c
	return nil
}

func (m *memRepo) DeleteCabinet(_ context.Context, id string) error {
	delete(m.cabinets, id)
	return nil
}

func (m *memRepo) ListFolders(_ context.Context, cabinetID string) ([]Folder, error) {
	out := []Folder{}
	for _, f := range m.folders {
		if cabinetID == "" || f.CabinetID == cabinetID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memRepo) GetFolder(_ context.Context, id string) (*Folder, error) {
	f, ok := m.folders[id]
	if !ok {
		return nil, fmt.Errorf("get folder: %w", core.ErrNotFound)
	}
	return &f, nil
}

func (m *memRepo) CreateFolder(_ context.Context, f *Folder) error {
	m.folders[f.ID] = *f
	return nil
}

func (m *memRepo) UpdateFolder(_ context.Context, f *Folder) error {
	m.folders[f.ID] = *f
	return nil
}

func (m *memRepo) DeleteFolder(_ context.Context, id string) error {
	delete(m.folders, id)
	return nil
}

type recordingPublisher []feed.Collection

func (p *recordingPublisher) Publish(_ context.Context, c feed.Collection) error {
	*p = append(*p, c)
	return nil
}

func newTestService() (*Service, *memRepo, *recordingPublisher) {
	repo := newMemRepo()
	pub := &recordingPublisher{}
	return NewService(repo, pub), repo, pub
}

func seedPath(t *testing.T, svc *Service) (*Shelf, *Cabinet, *Folder) {
	t.Helper()
	ctx := context.Background()

	shelf, err := svc.CreateShelf(ctx, ShelfRequest{Code: " a1 ", Name: " Shelf A "})
	require.NoError(t, err)
	cabinet, err := svc.CreateCabinet(ctx, CabinetRequest{ShelfID: shelf.ID, Code: "c1", Name: "Cabinet 1"})
	require.NoError(t, err)
	folder, err := svc.CreateFolder(ctx, FolderRequest{CabinetID: cabinet.ID, Code: "f1", Name: "Invoices"})
	require.NoError(t, err)

	return shelf, cabinet, folder
}

func TestService_CreateNormalizesAndPublishes(t *testing.T) {
	svc, _, pub := newTestService()

	shelf, cabinet, folder := seedPath(t, svc)

	assert.Equal(t, "A1", shelf.Code)
	assert.Equal(t, "Shelf A", shelf.Name)
	assert.Equal(t, shelf.ID, cabinet.ShelfID)
	assert.Equal(t, DefaultFolderColor, folder.Color)
	assert.Equal(t, recordingPublisher{feed.Shelves, feed.Cabinets, feed.Folders}, *pub)
}

func TestService_CreateRequiresParent(t *testing.T) {
	svc, repo, pub := newTestService()
	ctx := context.Background()

	_, err := svc.CreateCabinet(ctx, CabinetRequest{ShelfID: core.NewID(), Code: "c", Name: "C"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.CreateFolder(ctx, FolderRequest{CabinetID: "not-a-uuid", Code: "f", Name: "F"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Empty(t, repo.cabinets)
	assert.Empty(t, repo.folders)
	assert.Empty(t, *pub)
}

func TestService_ResolvePath(t *testing.T) {
	svc, _, _ := newTestService()
	_, _, folder := seedPath(t, svc)

	path, err := svc.ResolvePath(context.Background(), folder.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shelf A / Cabinet 1 / Invoices", path.String())

	_, err = svc.ResolvePath(context.Background(), "garbage")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_CabinetCannotMoveWithFolders(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, cabinet, _ := seedPath(t, svc)

	other, err := svc.CreateShelf(ctx, ShelfRequest{Code: "b1", Name: "Shelf B"})
	require.NoError(t, err)

	_, err = svc.UpdateCabinet(ctx, cabinet.ID, CabinetRequest{ShelfID: other.ID, Code: "c1", Name: "Cabinet 1"})
	assert.ErrorIs(t, err, core.ErrConflict)

	renamed, err := svc.UpdateCabinet(ctx, cabinet.ID, CabinetRequest{ShelfID: cabinet.ShelfID, Code: "c1", Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Name)
}

func TestService_FolderCannotChangeCabinet(t *testing.T) {
	svc, _, _ := newTestService()
	_, _, folder := seedPath(t, svc)

	_, err := svc.UpdateFolder(context.Background(), folder.ID, FolderRequest{
		CabinetID: core.NewID(),
		Code:      "f1",
		Name:      "Invoices",
	})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestService_DeleteShelfWithChildren(t *testing.T) {
	svc, repo, pub := newTestService()
	shelf, _, _ := seedPath(t, svc)
	published := len(*pub)

	err := svc.DeleteShelf(context.Background(), shelf.ID)
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Contains(t, repo.shelves, shelf.ID)
	assert.Len(t, *pub, published)

	assert.ErrorIs(t, svc.DeleteShelf(context.Background(), "12"), core.ErrNotFound)
}

func TestService_ListWithMalformedParent(t *testing.T) {
	svc, _, _ := newTestService()
	seedPath(t, svc)

	cabinets, err := svc.ListCabinets(context.Background(), "bogus")
	require.NoError(t, err)
	assert.Empty(t, cabinets)
	assert.NotNil(t, cabinets)

	folders, err := svc.ListFolders(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, folders, 1)
}
