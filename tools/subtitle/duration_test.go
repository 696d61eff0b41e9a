package subtitle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVTT(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.vtt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"00:00:01.000", 1},
		{"01:02:03.500", 3723.5},
		{"02:03.500", 123.5},
		{"00:30.000", 30},
	}
	for _, c := range cases {
		got, err := parseTimestamp(c.in)
		require.NoError(t, err, c.in)
		assert.InDelta(t, c.want, got, 1e-9, c.in)
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "42", "aa:bb:cc.000", "1:2:3:4"} {
		_, err := parseTimestamp(in)
		assert.Error(t, err, in)
	}
}

func TestTotalDurationIsLargestCueEnd(t *testing.T) {
	path := writeVTT(t, `WEBVTT

00:00:01.000 --> 00:00:04.000
First line

00:00:05.000 --> 00:54:21.400
Second line

00:10:00.000 --> 00:12:00.000
Out of order cue
`)

	got, err := TotalDuration(path)
	require.NoError(t, err)
	assert.InDelta(t, 3261.4, got, 1e-9)
}

func TestTotalDurationSkipsMalformedCueLines(t *testing.T) {
	path := writeVTT(t, `WEBVTT

garbage --> also garbage
00:00:01.000 -->
Dangling cue
00:00:01.000 --> 00:00:09.500 align:start
Styled cue
`)

	got, err := TotalDuration(path)
	require.NoError(t, err)
	assert.InDelta(t, 9.5, got, 1e-9)
}

func TestTotalDurationEmptyFile(t *testing.T) {
	path := writeVTT(t, "WEBVTT\n")

	got, err := TotalDuration(path)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestTotalDurationMissingFile(t *testing.T) {
	_, err := TotalDuration(filepath.Join(t.TempDir(), "nope.vtt"))
	assert.Error(t, err)
}
