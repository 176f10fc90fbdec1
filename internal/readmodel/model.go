// AngelaMos | 2026
// model.go

package readmodel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/useSafe/File-Allocation-System-2.0/internal/feed"
	"github.com/useSafe/File-Allocation-System-2.0/internal/location"
	"github.com/useSafe/File-Allocation-System-2.0/internal/record"
)

const loadRetryInterval = 5 * time.Second

type LocationSource interface {
	ListShelves(ctx context.Context) ([]location.Shelf, error)
	ListCabinets(ctx context.Context, shelfID string) ([]location.Cabinet, error)
	ListFolders(ctx context.Context, cabinetID string) ([]location.Folder, error)
}

type RecordSource interface {
	List(ctx context.Context) ([]record.Record, error)
}

// Model is the process-wide snapshot of the live collections. Every reload
// replaces a whole collection; readers get the slice as of their call and
// must not modify it.
type Model struct {
	locations LocationSource
	records   RecordSource

	mu       sync.RWMutex
	shelves  []location.Shelf
	cabinets []location.Cabinet
	folders  []location.Folder
	recs     []record.Record
	versions map[feed.Collection]uint64
	loaded   map[feed.Collection]bool

	subMu   sync.Mutex
	subs    map[feed.Collection]map[uint64]func(feed.Frame)
	nextSub uint64

	// deliverMu orders frame delivery: a subscriber's first frame and every
	// later notify are read and handed over one at a time, so versions seen
	// by one subscriber never go backwards.
	deliverMu sync.Mutex

	retryEvery time.Duration
}

func New(locations LocationSource, records RecordSource) *Model {
	return &Model{
		locations: locations,
		records:   records,
		versions:  make(map[feed.Collection]uint64),
		loaded:    make(map[feed.Collection]bool),
		subs:      make(map[feed.Collection]map[uint64]func(feed.Frame)),

		retryEvery: loadRetryInterval,
	}
}

// Loading is true until every live collection has loaded once.
func (m *Model) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range feed.LiveCollections {
		if !m.loaded[c] {
			return true
		}
	}
	return false
}

func (m *Model) Records() []record.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recs
}

func (m *Model) Hierarchy() location.Hierarchy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return location.Hierarchy{
		Shelves:  m.shelves,
		Cabinets: m.cabinets,
		Folders:  m.folders,
	}
}

// Version is the reload count of c; zero means never loaded.
func (m *Model) Version(c feed.Collection) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versions[c]
}

// Subscribe registers fn for c and returns its unsubscribe handle. When c is
// already loaded fn receives the current snapshot before Subscribe returns.
// Callbacks run outside the model lock, one delivery at a time, and see
// non-decreasing versions. They must not call Subscribe.
func (m *Model) Subscribe(c feed.Collection, fn func(feed.Frame)) func() {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	m.subMu.Lock()
	m.nextSub++
	id := m.nextSub
	if m.subs[c] == nil {
		m.subs[c] = make(map[uint64]func(feed.Frame))
	}
	m.subs[c][id] = fn
	m.subMu.Unlock()

	if frame, ok := m.frame(c); ok {
		fn(frame)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs[c], id)
			m.subMu.Unlock()
		})
	}
}

// Load reloads every live collection.
func (m *Model) Load(ctx context.Context) error {
	for _, c := range feed.LiveCollections {
		if err := m.Reload(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Reload fetches c from the store, swaps it in and notifies subscribers.
// Collections outside the live set are ignored.
func (m *Model) Reload(ctx context.Context, c feed.Collection) error {
	var (
		shelves  []location.Shelf
		cabinets []location.Cabinet
		folders  []location.Folder
		recs     []record.Record
		err      error
	)

	switch c {
	case feed.Shelves:
		shelves, err = m.locations.ListShelves(ctx)
	case feed.Cabinets:
		cabinets, err = m.locations.ListCabinets(ctx, "")
	case feed.Folders:
		folders, err = m.locations.ListFolders(ctx, "")
	case feed.Records:
		recs, err = m.records.List(ctx)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("reload %s: %w", c, err)
	}

	m.mu.Lock()
	switch c {
	case feed.Shelves:
		m.shelves = shelves
	case feed.Cabinets:
		m.cabinets = cabinets
	case feed.Folders:
		m.folders = folders
	case feed.Records:
		m.recs = recs
	}
	m.versions[c]++
	m.loaded[c] = true
	m.mu.Unlock()

	m.notify(c)
	return nil
}

// Run loads every collection, then reloads on each change event until ctx
// is cancelled. Events that arrive during a reload are coalesced. A failed
// or dropped subscription is retried on the load retry ticker; once it is
// back every collection is reloaded to catch changes missed meanwhile.
func (m *Model) Run(ctx context.Context, bus feed.Bus) error {
	retry := time.NewTicker(m.retryEvery)
	defer retry.Stop()

	events, err := bus.Subscribe(ctx)
	if err != nil {
		slog.Warn("change subscription failed", "error", err)
	}

	if err := m.Load(ctx); err != nil {
		slog.Error("initial read model load failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-retry.C:
			if events == nil {
				events = m.resubscribe(ctx, bus)
			}
			m.loadMissing(ctx)
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				slog.Warn("change subscription closed")
				events = nil
				continue
			}

			pending := map[feed.Collection]struct{}{ev.Collection: {}}
			drain(events, pending)

			for _, c := range feed.LiveCollections {
				if _, ok := pending[c]; !ok {
					continue
				}
				if err := m.Reload(ctx, c); err != nil {
					slog.Warn("read model reload failed",
						"collection", c,
						"error", err,
					)
				}
			}
		}
	}
}

// resubscribe returns nil while the bus is still unavailable.
func (m *Model) resubscribe(ctx context.Context, bus feed.Bus) <-chan feed.Event {
	events, err := bus.Subscribe(ctx)
	if err != nil {
		slog.Warn("change subscription retry failed", "error", err)
		return nil
	}

	slog.Info("change subscription restored")
	for _, c := range feed.LiveCollections {
		if err := m.Reload(ctx, c); err != nil {
			slog.Warn("read model resync failed",
				"collection", c,
				"error", err,
			)
		}
	}
	return events
}

// loadMissing retries collections that have never loaded.
func (m *Model) loadMissing(ctx context.Context) {
	for _, c := range feed.LiveCollections {
		m.mu.RLock()
		loaded := m.loaded[c]
		m.mu.RUnlock()
		if loaded {
			continue
		}
		if err := m.Reload(ctx, c); err != nil {
			slog.Warn("read model load retry failed",
				"collection", c,
				"error", err,
			)
		}
	}
}

func drain(events <-chan feed.Event, pending map[feed.Collection]struct{}) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			pending[ev.Collection] = struct{}{}
		default:
			return
		}
	}
}

func (m *Model) frame(c feed.Collection) (feed.Frame, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.loaded[c] {
		return feed.Frame{}, false
	}

	f := feed.Frame{Collection: c, Version: m.versions[c]}
	switch c {
	case feed.Shelves:
		f.Items = m.shelves
	case feed.Cabinets:
		f.Items = m.cabinets
	case feed.Folders:
		f.Items = m.folders
	case feed.Records:
		f.Items = m.recs
	}
	return f, true
}

func (m *Model) notify(c feed.Collection) {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	frame, ok := m.frame(c)
	if !ok {
		return
	}

	m.subMu.Lock()
	fns := make([]func(feed.Frame), 0, len(m.subs[c]))
	for _, fn := range m.subs[c] {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(frame)
	}
}

var (
	_ feed.Source     = (*Model)(nil)
	_ record.Snapshot = (*Model)(nil)
)
