package ffmpeg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/transcodeuz/hls-packager/pkg/orchestrator"
)

func TestPlaylistStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.m3u8")
	require.NoError(t, os.WriteFile(path, []byte(`#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXTINF:6.000,
segment_000.ts
#EXTINF:6.000,
segment_001.ts
#EXTINF:4.520,
segment_002.ts
#EXT-X-ENDLIST
`), 0o644))

	count, total, err := playlistStats(path)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.InDelta(t, 16.52, total, 1e-9)
}

func TestPlaylistStatsMissingFile(t *testing.T) {
	_, _, err := playlistStats(filepath.Join(t.TempDir(), "nope.m3u8"))
	assert.Error(t, err)
}

func TestHLSArgs(t *testing.T) {
	args := hlsArgs(orchestrator.SegmentConfig{
		OutputDir:       "/out/720p",
		SegmentDuration: 6,
	})

	assert.Contains(t, args, "-hls_time")
	assert.Contains(t, args, "6")
	assert.Contains(t, args, filepath.Join("/out/720p", "segment_%03d.ts"))
	// Endless list size keeps every segment in a VOD playlist.
	i := index(args, "-hls_list_size")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "0", args[i+1])
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "d | e", lastLines("a\nb\nc\nd\ne", 2))
	assert.Equal(t, "a | b", lastLines("a\nb\n", 5))
}

func index(ss []string, want string) int {
	for i, s := range ss {
		if s == want {
			return i
		}
	}
	return -1
}
