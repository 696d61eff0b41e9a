package ffmpeg

import (
	"strconv"
	"strings"
	"time"

	"gitlab.com/transcodeuz/hls-packager/pkg/orchestrator"
)

// progressParser folds the key=value lines ffmpeg writes with
// `-progress pipe:1` into periodic samples. A sample is emitted every
// time a `progress=` line closes one reporting block.
type progressParser struct {
	duration float64
	onSample func(orchestrator.ProgressSample)
	current  orchestrator.ProgressSample
	seconds  float64
}

func newProgressParser(duration float64, onSample func(orchestrator.ProgressSample)) *progressParser {
	return &progressParser{duration: duration, onSample: onSample}
}

func (p *progressParser) consume(line string) {
	key, value, ok := cut(line)
	if !ok {
		return
	}

	switch key {
	case "out_time_ms", "out_time_us":
		// Both report microseconds.
		if us, err := strconv.ParseFloat(value, 64); err == nil {
			p.seconds = us / 1e6
		}
	case "speed":
		p.current.Speed = parseSpeed(value)
	case "fps":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			p.current.FPS = v
		}
	case "bitrate":
		p.current.Bitrate = value
	case "progress":
		p.flush(value == "end")
	}
}

func (p *progressParser) flush(done bool) {
	if p.onSample == nil {
		return
	}

	s := p.current
	if done {
		s.Percent = 100
	} else if p.duration > 0 {
		s.Percent = clampPercent(p.seconds / p.duration * 100)
	}
	if p.current.Speed > 0 && p.duration > p.seconds {
		s.ETA = time.Duration((p.duration - p.seconds) / p.current.Speed * float64(time.Second))
	}
	p.onSample(s)
}

func parseSpeed(v string) float64 {
	v = strings.TrimSuffix(strings.TrimSpace(v), "x")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func cut(line string) (string, string, bool) {
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}
