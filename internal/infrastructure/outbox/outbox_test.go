package outbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domoutbox "github.com/Zhima-Mochi/marketplace-orders/internal/domain/outbox"
)

type testEvent struct{ name string }

func (e testEvent) EventName() string { return e.name }

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(nil)
	var got atomic.Int32
	bus.Subscribe("a", func(ctx context.Context, e domoutbox.Event) error {
		got.Add(1)
		return nil
	})
	bus.Subscribe("a", func(ctx context.Context, e domoutbox.Event) error {
		got.Add(1)
		return errors.New("handler failure is only logged")
	})
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "a"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "nobody"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	assert.Equal(t, int32(2), got.Load())
}

func TestBusRecoversFromPanics(t *testing.T) {
	bus := NewBus(nil)
	var after atomic.Bool
	bus.Subscribe("boom", func(context.Context, domoutbox.Event) error { panic("bad handler") })
	bus.Subscribe("ok", func(context.Context, domoutbox.Event) error { after.Store(true); return nil })
	bus.Start(context.Background())

	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "boom"}))
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "ok"}))
	require.NoError(t, bus.Stop(context.Background()))
	assert.True(t, after.Load())
}

func TestPublishAfterStop(t *testing.T) {
	bus := NewBus(nil)
	require.NoError(t, bus.Stop(context.Background()))
	assert.ErrorIs(t, bus.Publish(context.Background(), testEvent{name: "a"}), domoutbox.ErrClosed)
	require.NoError(t, bus.Stop(context.Background()))
}

func TestHandlerTimeout(t *testing.T) {
	bus := NewBus(nil, WithHandlerTimeout(20*time.Millisecond))
	errc := make(chan error, 1)
	bus.Subscribe("slow", func(ctx context.Context, e domoutbox.Event) error {
		<-ctx.Done()
		errc <- ctx.Err()
		return ctx.Err()
	})
	bus.Start(context.Background())
	require.NoError(t, bus.Publish(context.Background(), testEvent{name: "slow"}))

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("handler was not cancelled")
	}
	require.NoError(t, bus.Stop(context.Background()))
}
