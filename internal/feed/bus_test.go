// AngelaMos | 2026
// bus_test.go

package feed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	published [][]byte
	err       error
}

func (f *fakeStream) ChangeChannel() string { return "fas:test" }

func (f *fakeStream) PublishChange(_ context.Context, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeStream) SubscribeChanges(context.Context) (*redis.PubSub, error) {
	return nil, f.err
}

func TestRedisBus_PublishEncodesEvent(t *testing.T) {
	stream := &fakeStream{}
	bus := NewRedisBus(stream)

	require.NoError(t, bus.Publish(context.Background(), Folders))
	require.Len(t, stream.published, 1)

	var ev Event
	require.NoError(t, json.Unmarshal(stream.published[0], &ev))
	assert.Equal(t, Folders, ev.Collection)
	assert.False(t, ev.At.IsZero())
}

func TestRedisBus_StreamErrors(t *testing.T) {
	down := errors.New("connection refused")
	bus := NewRedisBus(&fakeStream{err: down})

	assert.ErrorIs(t, bus.Publish(context.Background(), Records), down)

	events, err := bus.Subscribe(context.Background())
	assert.ErrorIs(t, err, down)
	assert.Nil(t, events)
}
