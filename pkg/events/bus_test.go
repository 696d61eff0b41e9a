package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesOnlyItsKind(t *testing.T) {
	bus := NewBus()

	var got []Kind
	bus.Subscribe(VariantCompleted, func(e Event) {
		got = append(got, e.Kind)
	})

	bus.Publish(Event{Kind: VariantStarted, Item: "720p"})
	bus.Publish(Event{Kind: VariantCompleted, Item: "720p"})
	bus.Publish(Event{Kind: JobCompleted})

	require.Len(t, got, 1)
	assert.Equal(t, VariantCompleted, got[0])
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewBus()

	var got []Kind
	bus.SubscribeAll(func(e Event) {
		got = append(got, e.Kind)
	})

	published := []Kind{JobStarted, PhaseStarted, VariantProgress, JobCompleted}
	for _, k := range published {
		bus.Publish(Event{Kind: k})
	}

	assert.Equal(t, published, got)
}

func TestDeliveryOrderAllThenKindScoped(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe(PhaseStarted, func(Event) { order = append(order, "kind-1") })
	bus.SubscribeAll(func(Event) { order = append(order, "all") })
	bus.Subscribe(PhaseStarted, func(Event) { order = append(order, "kind-2") })

	bus.Publish(Event{Kind: PhaseStarted})

	assert.Equal(t, []string{"all", "kind-1", "kind-2"}, order)
}

func TestPanickingHandlerDoesNotStopDelivery(t *testing.T) {
	bus := NewBus()

	var delivered int
	bus.Subscribe(Warning, func(Event) { panic("bad subscriber") })
	bus.Subscribe(Warning, func(Event) { delivered++ })

	require.NotPanics(t, func() {
		bus.Publish(Event{Kind: Warning, Message: "disk almost full"})
	})
	assert.Equal(t, 1, delivered)
}

func TestPublishStampsMissingTime(t *testing.T) {
	bus := NewBus()

	var got Event
	bus.Subscribe(Info, func(e Event) { got = e })

	bus.Publish(Event{Kind: Info})

	assert.False(t, got.Time.IsZero())
}
