package playlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/transcodeuz/hls-packager/models"
)

func sampleVariants() []models.HLSVariant {
	return []models.HLSVariant{
		{
			Name: "1080p", Width: 1920, Height: 1080,
			Bandwidth: 4128000, VideoBitrate: "4000k", AudioBitrate: "128k",
			Codecs: "avc1.640028,mp4a.40.2", PlaylistPath: "video/1080p/index.m3u8",
		},
		{
			Name: "720p", Width: 1280, Height: 720,
			Bandwidth: 3128000, VideoBitrate: "3000k", AudioBitrate: "128k",
			Codecs: "avc1.4d401f,mp4a.40.2", PlaylistPath: "video/720p/index.m3u8",
		},
	}
}

func TestMasterWithoutAlternateTracks(t *testing.T) {
	text := Master(sampleVariants(), nil, nil)

	require.NoError(t, Validate(text))
	assert.True(t, strings.HasPrefix(text, "#EXTM3U\n"))
	assert.Equal(t, 2, strings.Count(text, "#EXT-X-STREAM-INF:"))
	assert.Contains(t, text, "BANDWIDTH=4128000,RESOLUTION=1920x1080")
	assert.Contains(t, text, "video/1080p/index.m3u8")
	assert.NotContains(t, text, "#EXT-X-MEDIA")
	assert.NotContains(t, text, "AUDIO=")
	assert.NotContains(t, text, "SUBTITLES=")

	// Variant order must match input order.
	assert.Less(t,
		strings.Index(text, "video/1080p/index.m3u8"),
		strings.Index(text, "video/720p/index.m3u8"),
	)
}

func TestMasterWithAudioAndSubtitles(t *testing.T) {
	variants := sampleVariants()
	for i := range variants {
		variants[i].AudioGroup = AudioGroupID
		variants[i].SubtitleGroup = SubtitleGroupID
	}
	audio := []models.AudioTrackInfo{
		{Language: "eng", Name: "English", Channels: 2, Default: true},
		{Language: "rus", Name: "Russian", Channels: 6},
	}
	subs := []models.SubtitleInfo{
		{Language: "eng", Name: "English", Default: true},
		{Language: "fra", Name: "French", Forced: true},
	}

	text := Master(variants, audio, subs)

	require.NoError(t, Validate(text))
	assert.Equal(t, 2, strings.Count(text, "TYPE=AUDIO"))
	assert.Equal(t, 2, strings.Count(text, "TYPE=SUBTITLES"))
	assert.Contains(t, text, `GROUP-ID="audio",NAME="English",DEFAULT=YES`)
	assert.Contains(t, text, `NAME="Russian",DEFAULT=NO`)
	assert.Contains(t, text, `CHANNELS="6"`)
	assert.Contains(t, text, "FORCED=YES")
	assert.Equal(t, 2, strings.Count(text, `AUDIO="audio"`))
	assert.Equal(t, 2, strings.Count(text, `SUBTITLES="subs"`))
}

func TestMasterGroupLinkRequiresTracks(t *testing.T) {
	variants := sampleVariants()
	for i := range variants {
		variants[i].AudioGroup = AudioGroupID
	}

	// Group name set but no tracks of that kind exist: no link.
	text := Master(variants, nil, nil)
	assert.NotContains(t, text, `AUDIO="audio"`)
}

func TestMediaPlaylistRoundTrip(t *testing.T) {
	segments := []Segment{
		{Duration: 6.0, URI: "segment_000.ts"},
		{Duration: 6.0, URI: "segment_001.ts"},
		{Duration: 4.52, URI: "segment_002.ts"},
	}

	text := Media(segments, TypeVOD)

	require.NoError(t, Validate(text))
	assert.Equal(t, len(segments), strings.Count(text, "#EXTINF:"))
	assert.Contains(t, text, "#EXT-X-TARGETDURATION:6")
	assert.Contains(t, text, "#EXT-X-MEDIA-SEQUENCE:0")
	assert.Contains(t, text, "#EXT-X-ENDLIST")

	// Segment order is preserved.
	assert.Less(t, strings.Index(text, "segment_000.ts"), strings.Index(text, "segment_001.ts"))
	assert.Less(t, strings.Index(text, "segment_001.ts"), strings.Index(text, "segment_002.ts"))
}

func TestEventPlaylistHasNoEndMarker(t *testing.T) {
	segments := []Segment{{Duration: 6.0, URI: "segment_000.ts"}}

	text := Media(segments, TypeEvent)

	require.NoError(t, Validate(text))
	assert.NotContains(t, text, "#EXT-X-ENDLIST")
}

func TestSubtitlePlaylistSpansWholeTrack(t *testing.T) {
	text := Subtitle("eng.vtt", 3261.4)

	require.NoError(t, Validate(text))
	assert.Contains(t, text, "#EXTINF:3261.4,")
	assert.Contains(t, text, "eng.vtt")
	assert.Contains(t, text, "#EXT-X-ENDLIST")
}

func TestValidateRejectsBrokenPlaylists(t *testing.T) {
	assert.Error(t, Validate("not a playlist"))
	assert.Error(t, Validate("#EXTM3U\nmissing version\n"))
	assert.Error(t, Validate("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-PLAYLIST-TYPE:VOD\n"))
	assert.NoError(t, Validate("#EXTM3U\n#EXT-X-VERSION:3\n"))
}

func TestCalculateBandwidth(t *testing.T) {
	assert.Equal(t, 5128000, CalculateBandwidth("5000k", "128k"))
	assert.Equal(t, 4128000, CalculateBandwidth("4M", "128k"))
	assert.Equal(t, 1628000, CalculateBandwidth("1.5M", "128k"))
	assert.Equal(t, 300000, CalculateBandwidth("300k", ""))
}

func TestProfileForHeight(t *testing.T) {
	assert.Equal(t, ProfileHigh, ProfileForHeight(2160))
	assert.Equal(t, ProfileHigh, ProfileForHeight(1080))
	assert.Equal(t, ProfileMain, ProfileForHeight(720))
	assert.Equal(t, ProfileBaseline, ProfileForHeight(480))
	assert.Equal(t, ProfileBaseline, ProfileForHeight(360))
}

func TestCodecsForHeight(t *testing.T) {
	assert.Equal(t, "avc1.640028,mp4a.40.2", CodecsForHeight(1080))
	assert.Equal(t, "avc1.4d401f,mp4a.40.2", CodecsForHeight(720))
	assert.Equal(t, "avc1.42e01e,mp4a.40.2", CodecsForHeight(360))
}
