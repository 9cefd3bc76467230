package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	received := false
	var receivedEvent Event

	bus.SubscribeFunc(TypeTrainingStarted, func(e Event) {
		received = true
		receivedEvent = e
	})

	bus.Publish(NewTrainingStartedEvent("run-1", 4, 4, 2000))

	assert.True(t, received, "Event handler should have been called")
	require.NotNil(t, receivedEvent)
	assert.Equal(t, TypeTrainingStarted, receivedEvent.Type())
	assert.Equal(t, "run-1", receivedEvent.RunID())
	assert.WithinDuration(t, time.Now(), receivedEvent.Timestamp(), time.Second)
}

func TestEventBusMultipleHandlers(t *testing.T) {
	bus := NewEventBus()

	handler1Called := false
	handler2Called := false

	id1 := bus.SubscribeFunc(TypeDungeonGenerated, func(e Event) { handler1Called = true })
	id2 := bus.SubscribeFunc(TypeDungeonGenerated, func(e Event) { handler2Called = true })
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, bus.GetFuncHandlerCount(TypeDungeonGenerated))

	bus.Publish(NewDungeonGeneratedEvent("d-1", 4, 4, 3, 14, true))

	assert.True(t, handler1Called, "Handler 1 should have been called")
	assert.True(t, handler2Called, "Handler 2 should have been called")
}

// TestSubscriber is a test implementation of Subscriber
type TestSubscriber struct {
	id              string
	interestedTypes map[string]bool
	receivedEvents  []Event
}

func (ts *TestSubscriber) ID() string {
	return ts.id
}

func (ts *TestSubscriber) HandleEvent(e Event) {
	ts.receivedEvents = append(ts.receivedEvents, e)
}

func (ts *TestSubscriber) InterestedIn(eventType string) bool {
	return ts.interestedTypes[eventType]
}

func TestEventBusSubscriberFiltering(t *testing.T) {
	bus := NewEventBus()
	sub := &TestSubscriber{
		id:              "generation-only",
		interestedTypes: map[string]bool{TypeCandidateRejected: true},
	}
	bus.Subscribe(sub)
	assert.Equal(t, 1, bus.GetSubscriberCount())

	bus.Publish(NewTrainingStartedEvent("run", 4, 4, 10))
	bus.Publish(NewCandidateRejectedEvent("d", 1, 5, 12))

	require.Len(t, sub.receivedEvents, 1)
	rejected, ok := sub.receivedEvents[0].(*CandidateRejectedEvent)
	require.True(t, ok)
	assert.Equal(t, 5, rejected.ComponentSize)
	assert.Equal(t, 12, rejected.Threshold)

	bus.Unsubscribe(sub.id)
	assert.Equal(t, 0, bus.GetSubscriberCount())
	bus.Publish(NewCandidateRejectedEvent("d", 2, 6, 12))
	assert.Len(t, sub.receivedEvents, 1)
}

type panickingSubscriber struct{}

func (panickingSubscriber) ID() string               { return "panics" }
func (panickingSubscriber) HandleEvent(Event)        { panic("boom") }
func (panickingSubscriber) InterestedIn(string) bool { return true }

func TestEventBusPanicIsolation(t *testing.T) {
	bus := NewEventBus()
	bus.Subscribe(panickingSubscriber{})

	called := false
	bus.SubscribeFunc(TypeGenerationExhausted, func(Event) { panic("handler boom") })
	bus.SubscribeFunc(TypeGenerationExhausted, func(Event) { called = true })

	assert.NotPanics(t, func() {
		bus.Publish(NewGenerationExhaustedEvent("d", 100, 9, 16))
	})
	assert.True(t, called, "later handlers still run after a panic")
}
