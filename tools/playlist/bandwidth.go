package playlist

import (
	"math"
	"strconv"
	"strings"
)

// H.264 profile tiers, selected from the variant height alone.
const (
	ProfileHigh     = "high"
	ProfileMain     = "main"
	ProfileBaseline = "baseline"
)

var videoCodecByProfile = map[string]string{
	ProfileHigh:     "avc1.640028",
	ProfileMain:     "avc1.4d401f",
	ProfileBaseline: "avc1.42e01e",
}

const audioCodecTag = "mp4a.40.2"

// ProfileForHeight picks the H.264 profile tier for a variant height.
func ProfileForHeight(height int) string {
	switch {
	case height >= 1080:
		return ProfileHigh
	case height >= 720:
		return ProfileMain
	default:
		return ProfileBaseline
	}
}

// CodecsForHeight returns the CODECS attribute value for a variant:
// the profile-tier video identifier joined with the fixed audio identifier.
func CodecsForHeight(height int) string {
	return videoCodecByProfile[ProfileForHeight(height)] + "," + audioCodecTag
}

// CalculateBandwidth derives the STREAM-INF bandwidth in bits per second
// from the video and audio bitrates in encoder notation ("5000k", "1.5M").
func CalculateBandwidth(videoBitrate, audioBitrate string) int {
	return int(math.Round(parseKbps(videoBitrate)+parseKbps(audioBitrate))) * 1000
}

// parseKbps converts "500k", "1.5M" or a bare kbps number to kbps.
func parseKbps(bitrate string) float64 {
	s := strings.TrimSpace(bitrate)
	if s == "" {
		return 0
	}

	mult := 1.0
	switch s[len(s)-1] {
	case 'k', 'K':
		s = s[:len(s)-1]
	case 'm', 'M':
		s = s[:len(s)-1]
		mult = 1000
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v * mult
}
