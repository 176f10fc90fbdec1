// AngelaMos | 2026
// bus.go

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

// Collection names one pushed collection.
type Collection string

const (
	Shelves  Collection = "shelves"
	Cabinets Collection = "cabinets"
	Folders  Collection = "folders"
	Records  Collection = "records"
	Users    Collection = "users"
)

// LiveCollections are the collections exposed to clients through the read
// model. Users stay admin-only and are never pushed.
var LiveCollections = []Collection{Shelves, Cabinets, Folders, Records}

func (c Collection) Valid() bool {
	switch c {
	case Shelves, Cabinets, Folders, Records, Users:
		return true
	}
	return false
}

// Event announces that a collection changed. It carries no payload:
// consumers reload the whole collection.
type Event struct {
	Collection Collection `json:"collection"`
	At         time.Time  `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, c Collection) error
}

type Bus interface {
	Publisher
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// ChangeStream is the Redis side of the bus; core.Redis implements it.
type ChangeStream interface {
	ChangeChannel() string
	PublishChange(ctx context.Context, payload []byte) error
	SubscribeChanges(ctx context.Context) (*redis.PubSub, error)
}

// RedisBus fans change events out to every API instance over Redis pub/sub.
type RedisBus struct {
	stream ChangeStream
}

func NewRedisBus(stream ChangeStream) *RedisBus {
	return &RedisBus{stream: stream}
}

func (b *RedisBus) Publish(ctx context.Context, c Collection) error {
	payload, err := json.Marshal(Event{Collection: c, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := b.stream.PublishChange(ctx, payload); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Subscribe returns a channel closed when ctx is cancelled.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	ps, err := b.stream.SubscribeChanges(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, 64)
	msgs := ps.Channel()

	go func() {
		defer close(out)
		defer ps.Close() //nolint:errcheck // best-effort unsubscribe

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					slog.Warn("dropping malformed change event",
						"channel", b.stream.ChangeChannel(),
						"error", err,
					)
					continue
				}
				if !ev.Collection.Valid() {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// LocalBus is an in-process Bus for single-instance runs and tests.
type LocalBus struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[chan Event]struct{})}
}

// Publish never blocks; a subscriber whose buffer is full misses the event.
func (b *LocalBus) Publish(_ context.Context, c Collection) error {
	ev := Event{Collection: c, At: time.Now().UTC()}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 64)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

var (
	_ Bus          = (*RedisBus)(nil)
	_ Bus          = (*LocalBus)(nil)
	_ ChangeStream = (*core.Redis)(nil)
)
