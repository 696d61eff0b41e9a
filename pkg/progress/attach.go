package progress

import "gitlab.com/transcodeuz/hls-packager/pkg/events"

// Attach subscribes a fresh tracker to a job's event bus so observers can
// follow progress without access to the orchestrator internals. Phase and
// variant progress events are folded into the tracker as they arrive.
func Attach(bus *events.Bus) *Tracker {
	t := NewTracker()

	bus.Subscribe(events.PhaseStarted, func(e events.Event) {
		t.SetPhase(Phase(e.Phase), 0)
	})
	bus.Subscribe(events.PhaseProgress, func(e events.Event) {
		t.SetPhase(Phase(e.Phase), e.Percent)
	})
	bus.Subscribe(events.PhaseCompleted, func(e events.Event) {
		t.CompletePhase(Phase(e.Phase))
	})
	bus.Subscribe(events.VariantProgress, func(e events.Event) {
		t.SetVariant(e.Item, e.Percent)
	})
	bus.Subscribe(events.VariantCompleted, func(e events.Event) {
		t.SetVariant(e.Item, 100)
	})

	return t
}
