package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/transcodeuz/hls-packager/models"
)

func TestBuildPlanVariants(t *testing.T) {
	info := sourceInfo()
	cfg := models.ProcessingConfig{QualityPreset: models.QualityHigh, AudioQuality: models.QualityMedium}

	plan := buildPlan("/in/movie.mkv", info, cfg)

	require.Len(t, plan.Variants, 5)
	top := plan.Variants[0]
	assert.Equal(t, "1080p", top.Name)
	assert.Equal(t, "video/1080p/index.m3u8", top.PlaylistPath)
	assert.Equal(t, "avc1.640028,mp4a.40.2", top.Codecs)
	assert.Equal(t, "128k", top.AudioBitrate)
	assert.InDelta(t, 25.0, top.FrameRate, 1e-9)
	// 4000k video + 128k audio
	assert.Equal(t, 4128000, top.Bandwidth)

	// Tracks were not requested, so variants carry no group links.
	assert.Empty(t, top.AudioGroup)
	assert.Empty(t, top.SubtitleGroup)
	assert.Empty(t, plan.AudioTracks)
	assert.Empty(t, plan.Subtitles)

	assert.Greater(t, plan.EstimatedSize, int64(0))
	assert.InDelta(t, info.Duration, plan.EstimatedDuration, 1e-9)
}

func TestBuildPlanGroupLinksFollowTrackExtraction(t *testing.T) {
	info := sourceInfo()
	cfg := models.ProcessingConfig{
		QualityPreset:      models.QualityMedium,
		AudioQuality:       models.QualityMedium,
		ExtractAudioTracks: true,
		ExtractSubtitles:   true,
	}

	plan := buildPlan("/in/movie.mkv", info, cfg)

	require.Len(t, plan.AudioTracks, 2)
	require.Len(t, plan.Subtitles, 1)
	for _, v := range plan.Variants {
		assert.Equal(t, "audio", v.AudioGroup)
		assert.Equal(t, "subs", v.SubtitleGroup)
	}
}

func TestDetectAudioTracksFlagsFirstAsDefault(t *testing.T) {
	info := &models.MediaInfo{
		AudioStreams: []models.AudioStreamInfo{
			{Index: 1, Language: "eng"},
			{Index: 2, Language: "rus"},
		},
	}

	tracks := detectAudioTracks(info)

	require.Len(t, tracks, 2)
	assert.True(t, tracks[0].Default)
	assert.False(t, tracks[1].Default)
}

func TestDetectAudioTracksKeepsSourceDefaultFlag(t *testing.T) {
	info := &models.MediaInfo{
		AudioStreams: []models.AudioStreamInfo{
			{Index: 1, Language: "eng"},
			{Index: 2, Language: "rus", Default: true},
		},
	}

	tracks := detectAudioTracks(info)

	assert.False(t, tracks[0].Default)
	assert.True(t, tracks[1].Default)
}

func TestDetectTracksFallBackToUndLanguage(t *testing.T) {
	info := &models.MediaInfo{
		AudioStreams:    []models.AudioStreamInfo{{Index: 1}},
		SubtitleStreams: []models.SubtitleStreamInfo{{Index: 2}},
	}

	tracks := detectAudioTracks(info)
	subs := detectSubtitles(info)

	require.Len(t, tracks, 1)
	assert.Equal(t, "und", tracks[0].Language)
	require.Len(t, subs, 1)
	assert.Equal(t, "und", subs[0].Language)
}

func TestTrackNamePrefersTitle(t *testing.T) {
	assert.Equal(t, "Director Commentary", trackName("Director Commentary", "eng", 0))
	assert.Equal(t, "eng", trackName("", "eng", 0))
	assert.Equal(t, "Track 3", trackName("", "", 2))
}
