// AngelaMos | 2026
// service.go

package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
	"github.com/useSafe/File-Allocation-System-2.0/internal/feed"
	"github.com/useSafe/File-Allocation-System-2.0/internal/location"
)

// PathResolver looks up the shelf → cabinet → folder chain of a folder.
type PathResolver interface {
	ResolvePath(ctx context.Context, folderID string) (location.Path, error)
}

type Service struct {
	repo        Repository
	paths       PathResolver
	publisher   feed.Publisher
	concurrency int
	now         func() time.Time
}

func NewService(
	repo Repository,
	paths PathResolver,
	publisher feed.Publisher,
	bulkConcurrency int,
) *Service {
	if bulkConcurrency < 1 {
		bulkConcurrency = 1
	}
	return &Service{
		repo:        repo,
		paths:       paths,
		publisher:   publisher,
		concurrency: bulkConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	if !core.ValidID(id) {
		return nil, fmt.Errorf("get record: %w", core.ErrNotFound)
	}
	return s.repo.GetByID(ctx, id)
}

// Create files a new record. An archived record goes on top of its folder's
// stack; a borrowed one needs borrower details.
func (s *Service) Create(
	ctx context.Context,
	actor Actor,
	req CreateRecordRequest,
) (*Record, error) {
	rec := &Record{
		ID:            core.NewID(),
		PRNumber:      strings.TrimSpace(req.PRNumber),
		Description:   strings.TrimSpace(req.Description),
		ShelfID:       req.ShelfID,
		CabinetID:     req.CabinetID,
		FolderID:      req.FolderID,
		Status:        req.Status,
		UrgencyLevel:  req.UrgencyLevel,
		DateAdded:     s.now(),
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
		Tags:          normalizeTags(req.Tags),
		Notes:         trimmed(req.Notes),
	}
	if rec.UrgencyLevel == "" {
		rec.UrgencyLevel = UrgencyMedium
	}
	if req.DateAdded != nil {
		rec.DateAdded = req.DateAdded.UTC()
	}

	switch rec.Status {
	case StatusBorrowed:
		details := BorrowDetails{BorrowedBy: req.BorrowedBy, Division: req.Division}
		if err := details.Validate(); err != nil {
			return nil, fmt.Errorf("create record: %w", err)
		}
		rec.BorrowedBy = ptr(strings.TrimSpace(details.BorrowedBy))
		rec.Division = ptr(strings.TrimSpace(details.Division))
		rec.BorrowedDate = ptr(s.now())
	case StatusArchived:
	default:
		return nil, fmt.Errorf("create record: unknown status %q: %w",
			rec.Status, core.ErrInvalidInput)
	}

	if err := s.checkPath(ctx, rec.ShelfID, rec.CabinetID, rec.FolderID); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}

	err := s.repo.InTx(ctx, func(repo Repository) error {
		if err := repo.LockFolder(ctx, rec.FolderID); err != nil {
			return err
		}
		if rec.IsArchived() {
			existing, err := repo.ListByFolder(ctx, rec.FolderID)
			if err != nil {
				return err
			}
			rec.StackNumber = ptr(PreviewStackNumber(existing, rec.FolderID))
		}
		return repo.Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("record created",
		"record_id", rec.ID,
		"folder_id", rec.FolderID,
		"status", rec.Status,
		"created_by", actor.ID,
	)
	s.changed(ctx)
	return rec, nil
}

// Update edits details and may move the record to another folder. A moved
// archived record goes on top of the new folder; both folders are renumbered.
func (s *Service) Update(
	ctx context.Context,
	actor Actor,
	id string,
	req UpdateRecordRequest,
) (*Record, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkMove(ctx, current, req); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}

	var updated *Record
	err = s.repo.InTx(ctx, func(repo Repository) error {
		var moveTo string
		if req.FolderID != nil {
			moveTo = *req.FolderID
		}
		rec, err := lockRecord(ctx, repo, id, moveTo)
		if err != nil {
			return err
		}

		oldFolder := rec.FolderID
		newFolder := oldFolder
		if req.FolderID != nil {
			newFolder = *req.FolderID
		}

		if err := applyUpdate(rec, req); err != nil {
			return err
		}
		rec.EditedBy = ptr(actor.ID)
		rec.EditedByName = ptr(actor.Name)
		rec.LastEditedAt = ptr(s.now())

		if newFolder != oldFolder && rec.IsArchived() {
			target, err := repo.ListByFolder(ctx, newFolder)
			if err != nil {
				return err
			}
			rec.StackNumber = ptr(PreviewStackNumber(target, newFolder))
		}

		if err := repo.Update(ctx, rec); err != nil {
			return err
		}

		for _, folderID := range affectedFolders(oldFolder, newFolder) {
			if _, err := renumberFolder(ctx, repo, folderID); err != nil {
				return err
			}
		}

		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("record updated",
		"record_id", updated.ID,
		"folder_id", updated.FolderID,
		"edited_by", actor.ID,
	)
	s.changed(ctx)
	return updated, nil
}

// Transition moves a record between borrowed and archived and renumbers its
// folder in the same transaction. Moving to the current status is a
// conflict. Borrow details are checked before anything is read or written.
func (s *Service) Transition(
	ctx context.Context,
	actor Actor,
	id, target string,
	details BorrowDetails,
) (*Record, error) {
	switch target {
	case StatusBorrowed:
		if err := details.Validate(); err != nil {
			return nil, fmt.Errorf("transition record: %w", err)
		}
	case StatusArchived:
	default:
		return nil, fmt.Errorf("transition record: unknown status %q: %w",
			target, core.ErrInvalidInput)
	}

	if !core.ValidID(id) {
		return nil, fmt.Errorf("transition record: %w", core.ErrNotFound)
	}

	var result *Record
	err := s.repo.InTx(ctx, func(repo Repository) error {
		found, err := lockRecord(ctx, repo, id)
		if err != nil {
			return err
		}

		folder, err := repo.ListByFolder(ctx, found.FolderID)
		if err != nil {
			return err
		}
		idx := slices.IndexFunc(folder, func(r Record) bool { return r.ID == id })
		if idx < 0 {
			return fmt.Errorf("transition record: moved concurrently: %w",
				core.ErrConflict)
		}

		rec := &folder[idx]
		if rec.Status == target {
			return fmt.Errorf("transition record: already %s: %w",
				target, core.ErrConflict)
		}

		now := s.now()
		rec.Status = target
		rec.StackNumber = nil
		rec.EditedBy = ptr(actor.ID)
		rec.EditedByName = ptr(actor.Name)
		rec.LastEditedAt = ptr(now)

		if target == StatusBorrowed {
			rec.BorrowedBy = ptr(strings.TrimSpace(details.BorrowedBy))
			rec.Division = ptr(strings.TrimSpace(details.Division))
			rec.BorrowedDate = ptr(now)
			rec.ReturnDate = nil
		} else {
			rec.ReturnDate = ptr(now)
		}

		assignments := Renumber(folder, rec.FolderID)
		ApplyAssignments(folder, assignments)

		if err := repo.Update(ctx, rec); err != nil {
			return err
		}
		for _, a := range assignments {
			if a.ID == rec.ID {
				continue
			}
			if err := repo.SetStackNumber(ctx, a.ID, a.StackNumber); err != nil {
				return err
			}
		}

		result = new(Record)
		*result = *rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("record transitioned",
		"record_id", result.ID,
		"folder_id", result.FolderID,
		"status", result.Status,
		"edited_by", actor.ID,
	)
	s.changed(ctx)
	return result, nil
}

// Delete removes a record and closes the gap it leaves in its folder.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service) delete(ctx context.Context, id string) error {
	if !core.ValidID(id) {
		return fmt.Errorf("delete record: %w", core.ErrNotFound)
	}

	return s.repo.InTx(ctx, func(repo Repository) error {
		rec, err := lockRecord(ctx, repo, id)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		_, err = renumberFolder(ctx, repo, rec.FolderID)
		return err
	})
}

// BulkDelete deletes ids independently and concurrently. Individual failures
// are counted, not returned; only context cancellation aborts the batch.
func (s *Service) BulkDelete(ctx context.Context, ids []string) (BulkDeleteResult, error) {
	unique := slices.Compact(slices.Sorted(slices.Values(ids)))

	ctx, span := core.StartSpan(ctx, "record.BulkDelete",
		attribute.Int("records.requested", len(unique)),
	)
	defer span.End()

	var deleted atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, id := range unique {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.delete(gctx, id); err != nil {
				if !errors.Is(err, core.ErrNotFound) {
					slog.Warn("bulk delete item failed",
						"record_id", id,
						"error", err,
					)
				}
				return nil
			}
			deleted.Add(1)
			return nil
		})
	}

	err := g.Wait()

	result := BulkDeleteResult{
		Requested: len(unique),
		Deleted:   int(deleted.Load()),
	}
	result.Failed = result.Requested - result.Deleted

	if result.Deleted > 0 {
		s.changed(ctx)
	}

	slog.Info("records bulk deleted",
		"requested", result.Requested,
		"deleted", result.Deleted,
		"failed", result.Failed,
	)

	core.AddSpanEvent(ctx, "records.deleted",
		attribute.Int("records.deleted", result.Deleted),
		attribute.Int("records.failed", result.Failed),
	)

	if err != nil {
		core.SetSpanError(ctx, err)
		return result, fmt.Errorf("bulk delete: %w", err)
	}
	return result, nil
}

// RenumberFolder rewrites folderID's stack and returns how many rows
// changed.
func (s *Service) RenumberFolder(ctx context.Context, folderID string) (int, error) {
	if !core.ValidID(folderID) {
		return 0, fmt.Errorf("renumber folder: %w", core.ErrNotFound)
	}

	ctx, span := core.StartSpan(ctx, "record.RenumberFolder",
		attribute.String("folder.id", folderID),
	)
	defer span.End()

	var changed int
	err := s.repo.InTx(ctx, func(repo Repository) error {
		if err := repo.LockFolder(ctx, folderID); err != nil {
			return err
		}
		n, err := renumberFolder(ctx, repo, folderID)
		changed = n
		return err
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return 0, err
	}

	if changed > 0 {
		slog.Info("folder renumbered", "folder_id", folderID, "changed", changed)
		s.changed(ctx)
	}
	return changed, nil
}

// RenumberAll repairs every folder that holds records.
func (s *Service) RenumberAll(ctx context.Context) (map[string]int, error) {
	folderIDs, err := s.repo.FolderIDs(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(folderIDs))
	for _, id := range folderIDs {
		n, err := s.RenumberFolder(ctx, id)
		if err != nil {
			return out, fmt.Errorf("renumber folder %s: %w", id, err)
		}
		out[id] = n
	}
	return out, nil
}

func renumberFolder(ctx context.Context, repo Repository, folderID string) (int, error) {
	records, err := repo.ListByFolder(ctx, folderID)
	if err != nil {
		return 0, err
	}

	assignments := Renumber(records, folderID)
	for _, a := range assignments {
		if err := repo.SetStackNumber(ctx, a.ID, a.StackNumber); err != nil {
			return 0, err
		}
	}
	return len(assignments), nil
}

// checkMove validates a requested location change. The three location
// fields move together and must name one branch of the hierarchy.
func (s *Service) checkMove(
	ctx context.Context,
	rec *Record,
	req UpdateRecordRequest,
) error {
	set := 0
	for _, p := range []*string{req.ShelfID, req.CabinetID, req.FolderID} {
		if p != nil {
			set++
		}
	}
	if set == 0 {
		return nil
	}
	if set != 3 {
		return fmt.Errorf(
			"shelf_id, cabinet_id and folder_id must be changed together: %w",
			core.ErrInvalidInput,
		)
	}

	if *req.ShelfID == rec.ShelfID &&
		*req.CabinetID == rec.CabinetID &&
		*req.FolderID == rec.FolderID {
		return nil
	}
	return s.checkPath(ctx, *req.ShelfID, *req.CabinetID, *req.FolderID)
}

// lockRecord locks the folder holding id, plus any extra folders, and
// returns the record as read under those locks. Every writer that changes a
// record's folder or stack holds the folder lock, so the second read is
// current until the transaction ends. A record that left the locked folders
// in between is reported as a conflict.
func lockRecord(
	ctx context.Context,
	repo Repository,
	id string,
	extra ...string,
) (*Record, error) {
	seen, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	folders := []string{seen.FolderID}
	for _, f := range extra {
		if f != "" {
			folders = append(folders, f)
		}
	}
	if err := lockFolders(ctx, repo, folders...); err != nil {
		return nil, err
	}

	rec, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(folders, rec.FolderID) {
		return nil, fmt.Errorf("record %s moved concurrently: %w", id, core.ErrConflict)
	}
	return rec, nil
}

// checkPath verifies that the three ids name one branch of the hierarchy.
func (s *Service) checkPath(ctx context.Context, shelfID, cabinetID, folderID string) error {
	path, err := s.paths.ResolvePath(ctx, folderID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("folder %s: %w", folderID, core.ErrInvalidInput)
		}
		return err
	}
	if path.Cabinet.ID != cabinetID || path.Shelf.ID != shelfID {
		return fmt.Errorf(
			"folder %s is not inside cabinet %s on shelf %s: %w",
			folderID, cabinetID, shelfID, core.ErrInvalidInput,
		)
	}
	return nil
}

func applyUpdate(rec *Record, req UpdateRecordRequest) error {
	if req.PRNumber != nil {
		rec.PRNumber = strings.TrimSpace(*req.PRNumber)
	}
	if req.Description != nil {
		rec.Description = strings.TrimSpace(*req.Description)
	}
	if req.FolderID != nil {
		rec.ShelfID = *req.ShelfID
		rec.CabinetID = *req.CabinetID
		rec.FolderID = *req.FolderID
	}
	if req.UrgencyLevel != nil {
		rec.UrgencyLevel = *req.UrgencyLevel
	}
	if req.DateAdded != nil {
		rec.DateAdded = req.DateAdded.UTC()
	}
	if req.Tags != nil {
		rec.Tags = normalizeTags(*req.Tags)
	}
	if req.Notes != nil {
		rec.Notes = trimmed(req.Notes)
	}

	if req.BorrowedBy != nil || req.Division != nil {
		if !rec.IsBorrowed() {
			return fmt.Errorf(
				"borrower details apply to borrowed records only: %w",
				core.ErrInvalidInput,
			)
		}
		if req.BorrowedBy != nil {
			rec.BorrowedBy = trimmed(req.BorrowedBy)
		}
		if req.Division != nil {
			rec.Division = trimmed(req.Division)
		}
		if rec.BorrowedBy == nil || rec.Division == nil {
			return fmt.Errorf("borrowed_by and division are required: %w",
				core.ErrInvalidInput)
		}
	}
	return nil
}

// Validate reports missing borrower fields as one validation error.
func (d BorrowDetails) Validate() error {
	var missing []string
	if strings.TrimSpace(d.BorrowedBy) == "" {
		missing = append(missing, "borrowed_by is required")
	}
	if strings.TrimSpace(d.Division) == "" {
		missing = append(missing, "division is required")
	}
	if len(missing) > 0 {
		return core.ValidationError(strings.Join(missing, "; "))
	}
	return nil
}

// lockFolders takes folder locks in id order so two concurrent moves between
// the same pair of folders cannot deadlock.
func lockFolders(ctx context.Context, repo Repository, ids ...string) error {
	for _, id := range slices.Compact(slices.Sorted(slices.Values(ids))) {
		if err := repo.LockFolder(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func affectedFolders(oldFolder, newFolder string) []string {
	if oldFolder == newFolder {
		return []string{oldFolder}
	}
	return []string{oldFolder, newFolder}
}

func (s *Service) changed(ctx context.Context) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, feed.Records); err != nil {
		slog.Warn("change event not published",
			"collection", feed.Records,
			"error", err,
		)
	}
}

func normalizeTags(tags []string) Tags {
	out := make(Tags, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.ContainsFunc(out, func(have string) bool {
			return strings.EqualFold(have, t)
		}) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
