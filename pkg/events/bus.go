package events

import (
	"sync"
	"time"
)

// Kind names one lifecycle notification.
type Kind string

const (
	JobStarted   Kind = "job.started"
	JobCompleted Kind = "job.completed"
	JobFailed    Kind = "job.failed"

	PhaseStarted   Kind = "phase.started"
	PhaseProgress  Kind = "phase.progress"
	PhaseCompleted Kind = "phase.completed"
	PhaseFailed    Kind = "phase.failed"

	VariantStarted   Kind = "variant.started"
	VariantProgress  Kind = "variant.progress"
	VariantCompleted Kind = "variant.completed"
	VariantFailed    Kind = "variant.failed"

	AudioTrackStarted   Kind = "audio.started"
	AudioTrackProgress  Kind = "audio.progress"
	AudioTrackCompleted Kind = "audio.completed"
	AudioTrackFailed    Kind = "audio.failed"

	SubtitleStarted   Kind = "subtitle.started"
	SubtitleProgress  Kind = "subtitle.progress"
	SubtitleCompleted Kind = "subtitle.completed"
	SubtitleFailed    Kind = "subtitle.failed"

	PlaylistWritten Kind = "playlist.written"

	Warning Kind = "warning"
	Info    Kind = "info"
)

// Event is one notification published during a job.
type Event struct {
	Kind    Kind
	JobID   string
	Phase   string
	Item    string
	Percent float64
	Message string
	Err     error
	Time    time.Time
}

// Handler consumes events. Handlers run synchronously on the publishing
// goroutine; a panicking handler is isolated and must not stop delivery
// to the handlers after it.
type Handler func(Event)

// Bus is a typed publish/subscribe channel. Fan-out is synchronous and in
// subscription order; the bus itself performs no I/O.
type Bus struct {
	mu       sync.Mutex
	handlers map[Kind][]Handler
	all      []Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]Handler)}
}

// Subscribe registers a handler for one event kind.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// SubscribeAll registers a handler for every event kind.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers the event to all-kind subscribers first, then to
// kind-scoped subscribers, each in registration order. Publishing holds
// the bus lock, so events of one job are never observed out of the order
// they were published.
func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, h := range b.all {
		deliver(h, e)
	}
	for _, h := range b.handlers[e.Kind] {
		deliver(h, e)
	}
}

func deliver(h Handler, e Event) {
	defer func() {
		// A misbehaving subscriber must not take down the job.
		_ = recover()
	}()
	h(e)
}
