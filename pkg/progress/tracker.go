package progress

import (
	"sync"
	"time"
)

// Phase names one stage of a packaging job, in execution order.
type Phase string

const (
	PhaseAnalyzing           Phase = "analyzing"
	PhasePlanning            Phase = "planning"
	PhaseProcessingSubtitles Phase = "processing_subtitles"
	PhaseProcessingVideo     Phase = "processing_video"
	PhaseProcessingAudio     Phase = "processing_audio"
	PhaseGeneratingPlaylists Phase = "generating_playlists"
	PhaseCleanup             Phase = "cleanup"
	PhaseComplete            Phase = "complete"
)

// Weights is the fixed contribution of each phase to global progress.
// The table is a coarse duration estimate carried over from the original
// pipeline: it deliberately does not mirror execution order (subtitles run
// before video yet weigh less than audio). The weights sum to 100.
var Weights = map[Phase]float64{
	PhaseAnalyzing:           5,
	PhasePlanning:            5,
	PhaseProcessingSubtitles: 10,
	PhaseProcessingVideo:     60,
	PhaseProcessingAudio:     15,
	PhaseGeneratingPlaylists: 5,
	PhaseCleanup:             0,
}

// Snapshot is a point-in-time view of job progress.
type Snapshot struct {
	Phase              Phase
	Global             float64
	PhasePercent       map[Phase]float64
	Variants           map[string]float64
	Elapsed            time.Duration
	EstimatedRemaining time.Duration
}

// Tracker accumulates phase-weighted completion for one job. It is safe
// for concurrent use; in parallel variant mode multiple encode tasks
// report through it at once.
type Tracker struct {
	mu       sync.Mutex
	started  time.Time
	phase    Phase
	phasePct map[Phase]float64
	variants map[string]float64
}

func NewTracker() *Tracker {
	return &Tracker{
		started:  time.Now(),
		phase:    PhaseAnalyzing,
		phasePct: make(map[Phase]float64),
		variants: make(map[string]float64),
	}
}

// SetPhase records the completion percentage of a phase and marks it as
// the current one.
func (t *Tracker) SetPhase(phase Phase, percent float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = phase
	t.phasePct[phase] = clamp(percent)
}

// CompletePhase marks a phase fully done without changing the current phase.
func (t *Tracker) CompletePhase(phase Phase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phasePct[phase] = 100
}

// SetVariant records the completion percentage of one variant.
func (t *Tracker) SetVariant(name string, percent float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.variants[name] = clamp(percent)
}

// Snapshot returns the current progress view. Global percent is the
// weighted sum of phase completions, clamped to [0,100]. Remaining time
// is a linear extrapolation from elapsed time; at zero global progress it
// is reported as zero rather than unbounded.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	var global float64
	phasePct := make(map[Phase]float64, len(t.phasePct))
	for p, pct := range t.phasePct {
		phasePct[p] = pct
		global += Weights[p] * pct / 100
	}
	global = clamp(global)

	variants := make(map[string]float64, len(t.variants))
	for name, pct := range t.variants {
		variants[name] = pct
	}

	elapsed := time.Since(t.started)
	var remaining time.Duration
	if global > 0 {
		remaining = time.Duration(float64(elapsed) * (100 - global) / global)
	}

	return Snapshot{
		Phase:              t.phase,
		Global:             global,
		PhasePercent:       phasePct,
		Variants:           variants,
		Elapsed:            elapsed,
		EstimatedRemaining: remaining,
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
