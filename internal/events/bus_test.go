package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aparekh02/EvacuTrace/internal/types"
)

func receiveOne(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed before event arrived")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBus_PublishReachesSubscriber(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cleanup := bus.Subscribe(context.Background(), Filter{}, 0)
	defer cleanup()

	want := Event{
		Type:      EventMissionStarted,
		Timestamp: time.Now(),
		MissionID: types.NewID(),
	}
	require.NoError(t, bus.Publish(context.Background(), want))

	got := receiveOne(t, ch)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.MissionID, got.MissionID)
}

func TestBus_FilterByType(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cleanup := bus.Subscribe(context.Background(), Filter{
		Types: []EventType{EventMissionCompleted, EventMissionFailed},
	}, 0)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, Event{Type: EventAgentStatusChanged}))
	require.NoError(t, bus.Publish(ctx, Event{Type: EventMissionFailed}))

	got := receiveOne(t, ch)
	assert.Equal(t, EventMissionFailed, got.Type)
}

func TestBus_FilterByMissionAndAgent(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	missionID := types.NewID()
	ch, cleanup := bus.Subscribe(context.Background(), Filter{
		MissionID: missionID,
		AgentID:   "agent-1",
	}, 0)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, Event{Type: EventHazardObserved, MissionID: types.NewID(), AgentID: "agent-1"}))
	require.NoError(t, bus.Publish(ctx, Event{Type: EventHazardObserved, MissionID: missionID, AgentID: "agent-0"}))
	require.NoError(t, bus.Publish(ctx, Event{Type: EventHazardObserved, MissionID: missionID, AgentID: "agent-1"}))

	got := receiveOne(t, ch)
	assert.Equal(t, missionID, got.MissionID)
	assert.Equal(t, "agent-1", got.AgentID)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected second event: %+v", extra)
	default:
	}
}

func TestBus_SlowSubscriberDropsWithoutBlocking(t *testing.T) {
	var mu sync.Mutex
	dropped := 0
	bus := NewBus(WithDropHandler(func(string, Event) {
		mu.Lock()
		dropped++
		mu.Unlock()
	}))
	defer bus.Close()

	// Buffer of one; nobody reads.
	_, cleanup := bus.Subscribe(context.Background(), Filter{}, 1)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, Event{Type: EventMissionStarted}))
	require.NoError(t, bus.Publish(ctx, Event{Type: EventMissionStarted}))
	require.NoError(t, bus.Publish(ctx, Event{Type: EventMissionStarted}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, dropped)
}

func TestBus_CleanupRemovesSubscriber(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	_, cleanup := bus.Subscribe(context.Background(), Filter{}, 0)
	assert.Equal(t, 1, bus.SubscriberCount())

	cleanup()
	assert.Equal(t, 0, bus.SubscriberCount())

	// Idempotent.
	cleanup()
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestBus_CloseRejectsPublish(t *testing.T) {
	bus := NewBus()
	ch, cleanup := bus.Subscribe(context.Background(), Filter{}, 0)
	defer cleanup()

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), Event{Type: EventRunCompleted})
	assert.Error(t, err)

	_, ok := <-ch
	assert.False(t, ok, "subscriber channel must be closed")
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus(WithDefaultBufferSize(1000))
	defer bus.Close()

	ch, cleanup := bus.Subscribe(context.Background(), Filter{}, 1000)
	defer cleanup()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bus.Publish(context.Background(), Event{Type: EventHazardObserved})
		}()
	}
	wg.Wait()

	received := 0
	for {
		select {
		case <-ch:
			received++
			if received == n {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("received %d of %d events", received, n)
		}
	}
}
