package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightsSumToOneHundred(t *testing.T) {
	var sum float64
	for _, w := range Weights {
		sum += w
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestGlobalIsWeightedSumOfPhases(t *testing.T) {
	tr := NewTracker()

	tr.CompletePhase(PhaseAnalyzing)
	tr.CompletePhase(PhasePlanning)
	tr.CompletePhase(PhaseProcessingSubtitles)
	tr.SetPhase(PhaseProcessingVideo, 50)

	snap := tr.Snapshot()
	// 5 + 5 + 10 + 60*0.5
	assert.InDelta(t, 50.0, snap.Global, 1e-9)
	assert.Equal(t, PhaseProcessingVideo, snap.Phase)
}

func TestAllPhasesCompleteReachesHundred(t *testing.T) {
	tr := NewTracker()
	for phase := range Weights {
		tr.CompletePhase(phase)
	}

	assert.InDelta(t, 100.0, tr.Snapshot().Global, 1e-9)
}

func TestPhasePercentIsClamped(t *testing.T) {
	tr := NewTracker()

	tr.SetPhase(PhaseProcessingVideo, 250)
	assert.InDelta(t, 60.0, tr.Snapshot().Global, 1e-9)

	tr.SetPhase(PhaseProcessingVideo, -10)
	assert.InDelta(t, 0.0, tr.Snapshot().Global, 1e-9)
}

func TestCleanupCarriesNoWeight(t *testing.T) {
	tr := NewTracker()
	tr.CompletePhase(PhaseCleanup)

	assert.InDelta(t, 0.0, tr.Snapshot().Global, 1e-9)
}

func TestRemainingIsZeroBeforeAnyProgress(t *testing.T) {
	tr := NewTracker()

	snap := tr.Snapshot()
	assert.Zero(t, snap.Global)
	assert.Zero(t, snap.EstimatedRemaining)
}

func TestVariantPercentagesAreTracked(t *testing.T) {
	tr := NewTracker()
	tr.SetVariant("720p", 42)
	tr.SetVariant("480p", 130)

	snap := tr.Snapshot()
	assert.InDelta(t, 42.0, snap.Variants["720p"], 1e-9)
	assert.InDelta(t, 100.0, snap.Variants["480p"], 1e-9)
}

func TestSnapshotIsACopy(t *testing.T) {
	tr := NewTracker()
	tr.SetPhase(PhaseAnalyzing, 40)

	snap := tr.Snapshot()
	snap.PhasePercent[PhaseAnalyzing] = 0
	snap.Variants["1080p"] = 99

	assert.InDelta(t, 40.0, tr.Snapshot().PhasePercent[PhaseAnalyzing], 1e-9)
	assert.Empty(t, tr.Snapshot().Variants)
}
