package alarm

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardcam/internal/dto"
	"guardcam/internal/logger"
)

type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) HandleAlarm(_ context.Context, event dto.AlarmEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, event.ID)
	return nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestDispatcher_DeliversInOrderToEveryHandler(t *testing.T) {
	first, second := &recorder{}, &recorder{}
	var order []string
	var mu sync.Mutex
	trace := func(name string) Handler {
		return HandlerFunc(func(_ context.Context, e dto.AlarmEvent) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name+":"+e.ID)
			return nil
		})
	}

	d := NewDispatcher(8, logger.NewDiscard(), first, trace("a"), second, trace("b"))
	d.Start(context.Background())

	for _, id := range []string{"1", "2", "3"} {
		require.True(t, d.Emit(dto.AlarmEvent{ID: id}))
	}
	d.Close()

	assert.Equal(t, []string{"1", "2", "3"}, first.seen())
	assert.Equal(t, []string{"1", "2", "3"}, second.seen())
	assert.Equal(t, []string{"a:1", "b:1", "a:2", "b:2", "a:3", "b:3"}, order)
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	blocking := HandlerFunc(func(_ context.Context, e dto.AlarmEvent) error {
		started <- struct{}{}
		<-release
		return nil
	})
	rec := &recorder{}

	d := NewDispatcher(1, logger.NewDiscard(), blocking, rec)
	d.Start(context.Background())

	require.True(t, d.Emit(dto.AlarmEvent{ID: "1"}))
	<-started

	assert.True(t, d.Emit(dto.AlarmEvent{ID: "2"}), "fits in queue")
	assert.False(t, d.Emit(dto.AlarmEvent{ID: "3"}), "queue full")
	assert.Equal(t, int64(1), d.Dropped())

	close(release)
	d.Close()

	assert.Equal(t, []string{"1", "2"}, rec.seen())
}

func TestDispatcher_HandlerErrorDoesNotStopOthers(t *testing.T) {
	failing := HandlerFunc(func(context.Context, dto.AlarmEvent) error {
		return errors.New("speaker unplugged")
	})
	rec := &recorder{}

	d := NewDispatcher(4, logger.NewDiscard(), failing, rec)
	d.Start(context.Background())
	d.Emit(dto.AlarmEvent{ID: "x"})
	d.Close()

	assert.Equal(t, []string{"x"}, rec.seen())
}

func TestDispatcher_EmitAfterClose(t *testing.T) {
	d := NewDispatcher(4, logger.NewDiscard())
	d.Start(context.Background())
	d.Close()
	d.Close()

	assert.False(t, d.Emit(dto.AlarmEvent{ID: "late"}))
	assert.Equal(t, int64(1), d.Dropped())
}
