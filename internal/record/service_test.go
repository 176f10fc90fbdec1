// AngelaMos | 2026
// service_test.go

package record

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/feed"
	"github.com/useSafe/File-Allocation-System-2.0/internal/location"
)

// memRepo is an in-memory Repository. InTx runs one transaction at a time,
// which stands in for the folder row locks.
type memRepo struct {
	txMu sync.Mutex

	mu      sync.Mutex
	records map[string]Record
	writes  int
	locked  []string

	// beforeLock runs once, ahead of the first LockFolder, standing in for
	// a transaction that commits while this one waits on the lock.
	beforeLock func()
}

func newMemRepo(records ...Record) *memRepo {
	r := &memRepo{records: make(map[string]Record)}
	for _, rec := range records {
		r.records[rec.ID] = rec
	}
	return r
}

func (r *memRepo) List(_ context.Context) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b Record) int {
		if c := b.DateAdded.Compare(a.DateAdded); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *memRepo) ListByFolder(_ context.Context, folderID string) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Record
	for _, rec := range r.records {
		if rec.FolderID == folderID {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b Record) int {
		switch {
		case a.StackNumber != nil && b.StackNumber == nil:
			return -1
		case a.StackNumber == nil && b.StackNumber != nil:
			return 1
		case a.StackNumber != nil && b.StackNumber != nil:
			if c := cmp.Compare(*a.StackNumber, *b.StackNumber); c != 0 {
				return c
			}
		}
		if c := a.DateAdded.Compare(b.DateAdded); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *memRepo) FolderIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, rec := range r.records {
		if !slices.Contains(out, rec.FolderID) {
			out = append(out, rec.FolderID)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("get record: %w", core.ErrNotFound)
	}
	return &rec, nil
}

func (r *memRepo) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writes++
	r.records[rec.ID] = *rec
	return nil
}

func (r *memRepo) Update(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; !ok {
		return fmt.Errorf("update record: %w", core.ErrNotFound)
	}
	r.writes++
	r.records[rec.ID] = *rec
	return nil
}

func (r *memRepo) SetStackNumber(_ context.Context, id string, stackNumber *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return fmt.Errorf("set stack number: %w", core.ErrNotFound)
	}
	r.writes++
	rec.StackNumber = stackNumber
	r.records[id] = rec
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return fmt.Errorf("delete record: %w", core.ErrNotFound)
	}
	r.writes++
	delete(r.records, id)
	return nil
}

func (r *memRepo) LockFolder(_ context.Context, folderID string) error {
	r.mu.Lock()
	hook := r.beforeLock
	r.beforeLock = nil
	r.locked = append(r.locked, folderID)
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

func (r *memRepo) InTx(_ context.Context, fn func(Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	return fn(r)
}

func (r *memRepo) all() []Record {
	out, _ := r.List(context.Background())
	return out
}

func (r *memRepo) get(id string) Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[id]
}

func (r *memRepo) put(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
}

func (r *memRepo) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

type countingPublisher struct {
	mu     sync.Mutex
	events []feed.Collection
}

func (p *countingPublisher) Publish(_ context.Context, c feed.Collection) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, c)
	return nil
}

func (p *countingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakePaths map[string]location.Path

func (p fakePaths) ResolvePath(_ context.Context, folderID string) (location.Path, error) {
	path, ok := p[folderID]
	if !ok {
		return location.Path{}, fmt.Errorf("resolve path: %w", core.ErrNotFound)
	}
	return path, nil
}

func testID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

var (
	shelfA   = testID(900)
	cabinetA = testID(910)
	folderX  = testID(920)
	folderY  = testID(921)
	alice    = Actor{ID: testID(990), Name: "Alice"}
)

func testPaths() fakePaths {
	path := func(folder string) location.Path {
		return location.Path{
			Shelf:   location.Shelf{ID: shelfA},
			Cabinet: location.Cabinet{ID: cabinetA, ShelfID: shelfA},
			Folder:  location.Folder{ID: folder, CabinetID: cabinetA},
		}
	}
	return fakePaths{folderX: path(folderX), folderY: path(folderY)}
}

func seeded(id int, folder, status string, added time.Time, stack *int) Record {
	return Record{
		ID:           testID(id),
		PRNumber:     fmt.Sprintf("PR-%03d", id),
		Description:  "record",
		ShelfID:      shelfA,
		CabinetID:    cabinetA,
		FolderID:     folder,
		Status:       status,
		UrgencyLevel: UrgencyMedium,
		DateAdded:    added,
		StackNumber:  stack,
		Tags:         Tags{},
	}
}

func newTestService(repo *memRepo) (*Service, *countingPublisher) {
	pub := &countingPublisher{}
	svc := NewService(repo, testPaths(), pub, 4)
	svc.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, pub
}

func TestService_CreateArchivedGoesOnTop(t *testing.T) {
	repo := newMemRepo(
		seeded(1, folderX, StatusArchived, day1, ptr(1)),
		seeded(2, folderX, StatusArchived, day1, ptr(2)),
		seeded(3, folderX, StatusBorrowed, day1, nil),
	)
	svc, pub := newTestService(repo)

	rec, err := svc.Create(context.Background(), alice, CreateRecordRequest{
		PRNumber:    " PR-100 ",
		Description: "New chairs",
		ShelfID:     shelfA,
		CabinetID:   cabinetA,
		FolderID:    folderX,
		Status:      StatusArchived,
		Tags:        []string{"a", "A", " b "},
	})
	require.NoError(t, err)

	require.NotNil(t, rec.StackNumber)
	assert.Equal(t, 3, *rec.StackNumber)
	assert.Equal(t, "PR-100", rec.PRNumber)
	assert.Equal(t, UrgencyMedium, rec.UrgencyLevel)
	assert.Equal(t, Tags{"a", "b"}, rec.Tags)
	assert.Equal(t, alice.Name, rec.CreatedByName)
	assert.NoError(t, CheckStack(repo.all(), folderX))
	assert.Equal(t, 1, pub.count())
}

func TestService_CreateBorrowedNeedsDetails(t *testing.T) {
	repo := newMemRepo()
	svc, pub := newTestService(repo)

	_, err := svc.Create(context.Background(), alice, CreateRecordRequest{
		PRNumber:    "PR-1",
		Description: "Laptop",
		ShelfID:     shelfA,
		CabinetID:   cabinetA,
		FolderID:    folderX,
		Status:      StatusBorrowed,
		BorrowedBy:  "Bob",
	})

	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.ErrorContains(t, err, "division")
	assert.Zero(t, repo.writeCount())
	assert.Zero(t, pub.count())
}

func TestService_CreateBorrowed(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)

	rec, err := svc.Create(context.Background(), alice, CreateRecordRequest{
		PRNumber:    "PR-1",
		Description: "Laptop",
		ShelfID:     shelfA,
		CabinetID:   cabinetA,
		FolderID:    folderX,
		Status:      StatusBorrowed,
		BorrowedBy:  "Bob",
		Division:    "Finance",
	})
	require.NoError(t, err)

	assert.Nil(t, rec.StackNumber)
	require.NotNil(t, rec.BorrowedDate)
	assert.Equal(t, "Finance", *rec.Division)
}

func TestService_CreateRejectsMismatchedPath(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), alice, CreateRecordRequest{
		PRNumber:    "PR-1",
		Description: "Laptop",
		ShelfID:     testID(999),
		CabinetID:   cabinetA,
		FolderID:    folderX,
		Status:      StatusArchived,
	})

	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Zero(t, repo.writeCount())
}

func TestService_TransitionToBorrowed(t *testing.T) {
	repo := newMemRepo(
		seeded(1, folderX, StatusArchived, day1, ptr(1)),
		seeded(2, folderX, StatusArchived, day1.AddDate(0, 0, 1), ptr(2)),
		seeded(3, folderX, StatusArchived, day1.AddDate(0, 0, 2), ptr(3)),
	)
	svc, pub := newTestService(repo)

	rec, err := svc.Transition(context.Background(), alice, testID(2), StatusBorrowed,
		BorrowDetails{BorrowedBy: "Bob", Division: "Audit"})
	require.NoError(t, err)

	assert.Equal(t, StatusBorrowed, rec.Status)
	assert.Nil(t, rec.StackNumber)
	require.NotNil(t, rec.BorrowedDate)
	assert.Equal(t, svc.now(), *rec.BorrowedDate)
	assert.Equal(t, "Bob", *rec.BorrowedBy)

	assert.Nil(t, repo.get(testID(2)).StackNumber)
	assert.Equal(t, 1, *repo.get(testID(1)).StackNumber)
	assert.Equal(t, 2, *repo.get(testID(3)).StackNumber)
	assert.NoError(t, CheckStack(repo.all(), folderX))
	assert.Contains(t, repo.locked, folderX)
	assert.Equal(t, 1, pub.count())
}

func TestService_TransitionMissingDivisionWritesNothing(t *testing.T) {
	repo := newMemRepo(seeded(1, folderX, StatusArchived, day1, ptr(1)))
	svc, pub := newTestService(repo)

	_, err := svc.Transition(context.Background(), alice, testID(1), StatusBorrowed,
		BorrowDetails{BorrowedBy: "Bob", Division: "  "})

	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Zero(t, repo.writeCount())
	assert.Zero(t, pub.count())
	assert.Equal(t, StatusArchived, repo.get(testID(1)).Status)
}

func TestService_TransitionToArchivedJoinsStack(t *testing.T) {
	repo := newMemRepo(
		seeded(1, folderX, StatusArchived, day1, ptr(1)),
		seeded(2, folderX, StatusArchived, day1.AddDate(0, 0, 1), ptr(2)),
		seeded(3, folderX, StatusBorrowed, day1.AddDate(0, 0, 2), nil),
	)
	svc, _ := newTestService(repo)

	rec, err := svc.Transition(context.Background(), alice, testID(3), StatusArchived, BorrowDetails{})
	require.NoError(t, err)

	assert.Equal(t, StatusArchived, rec.Status)
	require.NotNil(t, rec.StackNumber)
	assert.Equal(t, 3, *rec.StackNumber)
	require.NotNil(t, rec.ReturnDate)
	assert.NoError(t, CheckStack(repo.all(), folderX))
}

func TestService_TransitionToCurrentStatusConflicts(t *testing.T) {
	repo := newMemRepo(seeded(1, folderX, StatusArchived, day1, ptr(1)))
	svc, _ := newTestService(repo)

	_, err := svc.Transition(context.Background(), alice, testID(1), StatusArchived, BorrowDetails{})

	require.ErrorIs(t, err, core.ErrConflict)
	assert.Zero(t, repo.writeCount())
}

func TestService_DeleteClosesGap(t *testing.T) {
	repo := newMemRepo(
		seeded(1, folderX, StatusArchived, day1, ptr(1)),
		seeded(2, folderX, StatusArchived, day1.AddDate(0, 0, 1), ptr(2)),
		seeded(3, folderX, StatusArchived, day1.AddDate(0, 0, 2), ptr(3)),
	)
	svc, _ := newTestService(repo)

	require.NoError(t, svc.Delete(context.Background(), testID(1)))

	assert.Equal(t, 1, *repo.get(testID(2)).StackNumber)
	assert.Equal(t, 2, *repo.get(testID(3)).StackNumber)
	assert.NoError(t, CheckStack(repo.all(), folderX))
}

func TestService_DeleteUnknown(t *testing.T) {
	svc, pub := newTestService(newMemRepo())

	assert.ErrorIs(t, svc.Delete(context.Background(), testID(42)), core.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), "not-a-uuid"), core.ErrNotFound)
	assert.Zero(t, pub.count())
}

func TestService_UpdateMovesArchivedRecord(t *testing.T) {
	repo := newMemRepo(
		seeded(1, folderX, StatusArchived, day1, ptr(1)),
		seeded(2, folderX, StatusArchived, day1.AddDate(0, 0, 1), ptr(2)),
		seeded(3, folderY, StatusArchived, day1, ptr(1)),
	)
	svc, _ := newTestService(repo)

	rec, err := svc.Update(context.Background(), alice, testID(1), UpdateRecordRequest{
		ShelfID:     ptr(shelfA),
		CabinetID:   ptr(cabinetA),
		FolderID:    ptr(folderY),
		Description: ptr("moved"),
	})
	require.NoError(t, err)

	assert.Equal(t, folderY, rec.FolderID)
	assert.Equal(t, "moved", rec.Description)
	assert.Equal(t, 2, *rec.StackNumber)
	assert.Equal(t, alice.Name, *rec.EditedByName)
	assert.Equal(t, 1, *repo.get(testID(2)).StackNumber)
	assert.NoError(t, CheckStack(repo.all(), folderX))
	assert.NoError(t, CheckStack(repo.all(), folderY))
	assert.ElementsMatch(t, []string{folderX, folderY}, repo.locked)
}

func TestService_UpdateKeepsConcurrentBorrow(t *testing.T) {
	repo := newMemRepo(
		seeded(1, folderX, StatusArchived, day1, ptr(1)),
		seeded(2, folderX, StatusArchived, day1.AddDate(0, 0, 1), ptr(2)),
	)
	repo.beforeLock = func() {
		borrowed := repo.get(testID(2))
		borrowed.Status = StatusBorrowed
		borrowed.StackNumber = nil
		borrowed.BorrowedBy = ptr("Bob")
		borrowed.Division = ptr("Audit")
		repo.put(borrowed)
	}
	svc, _ := newTestService(repo)

	rec, err := svc.Update(context.Background(), alice, testID(2), UpdateRecordRequest{
		Description: ptr("relabelled"),
	})
	require.NoError(t, err)

	assert.Equal(t, "relabelled", rec.Description)
	assert.Equal(t, StatusBorrowed, rec.Status)
	assert.Nil(t, rec.StackNumber)
	assert.Equal(t, "Bob", *rec.BorrowedBy)
	assert.NoError(t, CheckStack(repo.all(), folderX))
}

func TestService_DeleteOfRecordMovedAwayConflicts(t *testing.T) {
	repo := newMemRepo(
		seeded(1, folderX, StatusArchived, day1, ptr(1)),
		seeded(2, folderX, StatusArchived, day1.AddDate(0, 0, 1), ptr(2)),
		seeded(3, folderY, StatusArchived, day1, ptr(1)),
	)
	repo.beforeLock = func() {
		moved := repo.get(testID(2))
		moved.FolderID = folderY
		moved.StackNumber = ptr(2)
		repo.put(moved)
	}
	svc, pub := newTestService(repo)

	err := svc.Delete(context.Background(), testID(2))

	require.ErrorIs(t, err, core.ErrConflict)
	assert.Len(t, repo.all(), 3)
	assert.Zero(t, repo.writeCount())
	assert.NoError(t, CheckStack(repo.all(), folderX))
	assert.NoError(t, CheckStack(repo.all(), folderY))
	assert.Zero(t, pub.count())

	require.NoError(t, svc.Delete(context.Background(), testID(2)))
	assert.Equal(t, 1, *repo.get(testID(3)).StackNumber)
	assert.NoError(t, CheckStack(repo.all(), folderY))
}

func TestService_UpdateLocationMustMoveTogether(t *testing.T) {
	repo := newMemRepo(seeded(1, folderX, StatusArchived, day1, ptr(1)))
	svc, _ := newTestService(repo)

	_, err := svc.Update(context.Background(), alice, testID(1), UpdateRecordRequest{
		FolderID: ptr(folderY),
	})

	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Zero(t, repo.writeCount())
}

func TestService_UpdateBorrowerDetailsOnArchivedFails(t *testing.T) {
	repo := newMemRepo(seeded(1, folderX, StatusArchived, day1, ptr(1)))
	svc, _ := newTestService(repo)

	_, err := svc.Update(context.Background(), alice, testID(1), UpdateRecordRequest{
		Division: ptr("Audit"),
	})

	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Zero(t, repo.writeCount())
}

func TestService_BulkDelete(t *testing.T) {
	repo := newMemRepo(
		seeded(1, folderX, StatusArchived, day1, ptr(1)),
		seeded(2, folderX, StatusArchived, day1.AddDate(0, 0, 1), ptr(2)),
		seeded(3, folderX, StatusArchived, day1.AddDate(0, 0, 2), ptr(3)),
		seeded(4, folderY, StatusBorrowed, day1, nil),
	)
	svc, pub := newTestService(repo)

	result, err := svc.BulkDelete(context.Background(), []string{
		testID(1), testID(1), testID(4), testID(77), "bogus",
	})
	require.NoError(t, err)

	assert.Equal(t, BulkDeleteResult{Requested: 4, Deleted: 2, Failed: 2}, result)
	assert.Len(t, repo.all(), 2)
	assert.NoError(t, CheckStack(repo.all(), folderX))
	assert.Equal(t, 1, pub.count())
}

func TestService_BulkDeleteCancelled(t *testing.T) {
	repo := newMemRepo(seeded(1, folderX, StatusArchived, day1, ptr(1)))
	svc, _ := newTestService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.BulkDelete(ctx, []string{testID(1)})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, 1, result.Failed)
}

func TestService_RenumberAll(t *testing.T) {
	repo := newMemRepo(
		seeded(1, folderX, StatusArchived, day1, ptr(4)),
		seeded(2, folderX, StatusArchived, day1.AddDate(0, 0, 1), ptr(4)),
		seeded(3, folderX, StatusBorrowed, day1, ptr(1)),
		seeded(4, folderY, StatusArchived, day1, ptr(1)),
	)
	svc, pub := newTestService(repo)

	changed, err := svc.RenumberAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{folderX: 3, folderY: 0}, changed)
	assert.NoError(t, CheckStack(repo.all(), folderX))
	assert.NoError(t, CheckStack(repo.all(), folderY))
	assert.Equal(t, 1, pub.count())
}
