package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := ProcessingConfig{}
	cfg.Normalize()

	assert.Equal(t, QualityMedium, cfg.QualityPreset)
	assert.Equal(t, QualityMedium, cfg.AudioQuality)
	assert.Equal(t, "medium", cfg.VideoPreset)
	assert.Equal(t, DefaultSegmentDuration, cfg.SegmentDuration)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	cfg := ProcessingConfig{
		QualityPreset:   QualityHigh,
		AudioQuality:    QualityLow,
		VideoPreset:     "veryfast",
		SegmentDuration: 4,
	}
	cfg.Normalize()

	assert.Equal(t, QualityHigh, cfg.QualityPreset)
	assert.Equal(t, QualityLow, cfg.AudioQuality)
	assert.Equal(t, "veryfast", cfg.VideoPreset)
	assert.Equal(t, 4, cfg.SegmentDuration)
}

func TestSubtitleOutputVariants(t *testing.T) {
	var out SubtitleOutput = ConvertedSubtitle{Path: "/out/eng/eng.vtt"}
	assert.Equal(t, "/out/eng/eng.vtt", out.OutputPath())

	out = RawSubtitle{Format: "hdmv_pgs_subtitle", Path: "/out/eng/eng.sup"}
	assert.Equal(t, "/out/eng/eng.sup", out.OutputPath())

	switch v := out.(type) {
	case RawSubtitle:
		assert.Equal(t, "hdmv_pgs_subtitle", v.Format)
	default:
		t.Fatalf("unexpected output type %T", out)
	}
}

func TestHasVideo(t *testing.T) {
	assert.False(t, (&MediaInfo{}).HasVideo())
	assert.False(t, (&MediaInfo{Video: &VideoStreamInfo{}}).HasVideo())
	assert.True(t, (&MediaInfo{Video: &VideoStreamInfo{Width: 1920, Height: 1080}}).HasVideo())
}
