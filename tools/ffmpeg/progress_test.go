package ffmpeg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/transcodeuz/hls-packager/pkg/orchestrator"
)

func feed(p *progressParser, lines ...string) {
	for _, l := range lines {
		p.consume(l)
	}
}

func TestParserEmitsSampleOnBlockEnd(t *testing.T) {
	var samples []orchestrator.ProgressSample
	p := newProgressParser(100, func(s orchestrator.ProgressSample) {
		samples = append(samples, s)
	})

	feed(p,
		"fps=48.2",
		"bitrate=3200.5kbits/s",
		"out_time_ms=25000000",
		"speed=1.25x",
		"progress=continue",
	)

	require.Len(t, samples, 1)
	s := samples[0]
	assert.InDelta(t, 25.0, s.Percent, 1e-9)
	assert.InDelta(t, 48.2, s.FPS, 1e-9)
	assert.InDelta(t, 1.25, s.Speed, 1e-9)
	assert.Equal(t, "3200.5kbits/s", s.Bitrate)
	assert.Equal(t, time.Duration(60*float64(time.Second)), s.ETA)
}

func TestParserFinalBlockReportsFullPercent(t *testing.T) {
	var samples []orchestrator.ProgressSample
	p := newProgressParser(100, func(s orchestrator.ProgressSample) {
		samples = append(samples, s)
	})

	feed(p,
		"out_time_ms=50000000",
		"progress=continue",
		"out_time_ms=99000000",
		"progress=end",
	)

	require.Len(t, samples, 2)
	assert.InDelta(t, 50.0, samples[0].Percent, 1e-9)
	assert.InDelta(t, 100.0, samples[1].Percent, 1e-9)
}

func TestParserAcceptsMicrosecondVariant(t *testing.T) {
	var samples []orchestrator.ProgressSample
	p := newProgressParser(200, func(s orchestrator.ProgressSample) {
		samples = append(samples, s)
	})

	feed(p, "out_time_us=100000000", "progress=continue")

	require.Len(t, samples, 1)
	assert.InDelta(t, 50.0, samples[0].Percent, 1e-9)
}

func TestParserClampsOvershoot(t *testing.T) {
	var samples []orchestrator.ProgressSample
	p := newProgressParser(10, func(s orchestrator.ProgressSample) {
		samples = append(samples, s)
	})

	// ffmpeg can report past the probed duration on files with odd timestamps.
	feed(p, "out_time_ms=12000000", "progress=continue")

	require.Len(t, samples, 1)
	assert.InDelta(t, 100.0, samples[0].Percent, 1e-9)
}

func TestParserIgnoresNoiseLines(t *testing.T) {
	var samples []orchestrator.ProgressSample
	p := newProgressParser(100, func(s orchestrator.ProgressSample) {
		samples = append(samples, s)
	})

	feed(p,
		"not a key value line",
		"out_time_ms=garbage",
		"speed=N/A",
		"progress=continue",
	)

	require.Len(t, samples, 1)
	assert.Zero(t, samples[0].Percent)
	assert.Zero(t, samples[0].Speed)
}

func TestParserZeroDurationNeverDividesByZero(t *testing.T) {
	var samples []orchestrator.ProgressSample
	p := newProgressParser(0, func(s orchestrator.ProgressSample) {
		samples = append(samples, s)
	})

	feed(p, "out_time_ms=5000000", "progress=continue")

	require.Len(t, samples, 1)
	assert.Zero(t, samples[0].Percent)
}
