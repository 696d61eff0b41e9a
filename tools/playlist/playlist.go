package playlist

import (
	"fmt"
	"math"
	"strings"

	"gitlab.com/transcodeuz/hls-packager/models"
)

// Playlist types. VOD playlists are terminated with an end marker,
// event playlists never are.
type Type string

const (
	TypeVOD   Type = "vod"
	TypeEvent Type = "event"
)

// Group ids used by the master playlist for alternate renditions.
const (
	AudioGroupID    = "audio"
	SubtitleGroupID = "subs"
)

const (
	tagHeader       = "#EXTM3U"
	tagVersion      = "#EXT-X-VERSION"
	tagEndList      = "#EXT-X-ENDLIST"
	tagPlaylistType = "#EXT-X-PLAYLIST-TYPE"
	playlistVersion = 3
)

// Segment is one duration+URI pair of a media playlist.
type Segment struct {
	Duration float64
	URI      string
}

// Master builds the master playlist text. Audio and subtitle entries come
// first, then one stream-info line plus playlist URI per variant in the
// order supplied. A variant is linked to a group only when its group name
// is set and at least one track of that kind exists.
func Master(variants []models.HLSVariant, audioTracks []models.AudioTrackInfo, subtitles []models.SubtitleInfo) string {
	var b strings.Builder

	b.WriteString(tagHeader + "\n")
	b.WriteString(fmt.Sprintf("%s:%d\n", tagVersion, playlistVersion))
	b.WriteString("\n")

	for _, track := range audioTracks {
		b.WriteString(audioMediaLine(track) + "\n")
	}
	if len(audioTracks) > 0 {
		b.WriteString("\n")
	}

	for _, sub := range subtitles {
		b.WriteString(subtitleMediaLine(sub) + "\n")
	}
	if len(subtitles) > 0 {
		b.WriteString("\n")
	}

	for _, v := range variants {
		line := fmt.Sprintf(
			"#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d,CODECS=\"%s\"",
			v.Bandwidth, v.Width, v.Height, v.Codecs,
		)
		if v.FrameRate > 0 {
			line += fmt.Sprintf(",FRAME-RATE=%.3f", v.FrameRate)
		}
		if v.AudioGroup != "" && len(audioTracks) > 0 {
			line += fmt.Sprintf(",AUDIO=\"%s\"", v.AudioGroup)
		}
		if v.SubtitleGroup != "" && len(subtitles) > 0 {
			line += fmt.Sprintf(",SUBTITLES=\"%s\"", v.SubtitleGroup)
		}
		b.WriteString(line + "\n")
		b.WriteString(v.PlaylistPath + "\n")
	}

	return b.String()
}

func audioMediaLine(track models.AudioTrackInfo) string {
	line := fmt.Sprintf(
		"#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID=\"%s\",NAME=\"%s\",DEFAULT=%s,AUTOSELECT=YES",
		AudioGroupID, track.Name, yesNo(track.Default),
	)
	if track.Language != "" {
		line += fmt.Sprintf(",LANGUAGE=\"%s\"", track.Language)
	}
	if track.Channels > 0 {
		line += fmt.Sprintf(",CHANNELS=\"%d\"", track.Channels)
	}
	line += fmt.Sprintf(",URI=\"audio/%s/index.m3u8\"", track.Language)
	return line
}

func subtitleMediaLine(sub models.SubtitleInfo) string {
	line := fmt.Sprintf(
		"#EXT-X-MEDIA:TYPE=SUBTITLES,GROUP-ID=\"%s\",NAME=\"%s\",DEFAULT=%s,AUTOSELECT=YES",
		SubtitleGroupID, sub.Name, yesNo(sub.Default),
	)
	if sub.Forced {
		line += ",FORCED=YES"
	}
	if sub.Language != "" {
		line += fmt.Sprintf(",LANGUAGE=\"%s\"", sub.Language)
	}
	line += fmt.Sprintf(",URI=\"subtitles/%s/index.m3u8\"", sub.Language)
	return line
}

// Media builds a variant or audio media playlist from its segments, in
// original order. The end marker is written only for VOD playlists.
func Media(segments []Segment, typ Type) string {
	var maxDuration float64
	for _, s := range segments {
		if s.Duration > maxDuration {
			maxDuration = s.Duration
		}
	}

	var b strings.Builder
	b.WriteString(tagHeader + "\n")
	b.WriteString(fmt.Sprintf("%s:%d\n", tagVersion, playlistVersion))
	b.WriteString(fmt.Sprintf("#EXT-X-TARGETDURATION:%d\n", int(math.Ceil(maxDuration))))
	b.WriteString("#EXT-X-MEDIA-SEQUENCE:0\n")
	if typ == TypeVOD {
		b.WriteString(tagPlaylistType + ":VOD\n")
	} else {
		b.WriteString(tagPlaylistType + ":EVENT\n")
	}

	for _, s := range segments {
		b.WriteString(fmt.Sprintf("#EXTINF:%.3f,\n", s.Duration))
		b.WriteString(s.URI + "\n")
	}

	if typ == TypeVOD {
		b.WriteString(tagEndList + "\n")
	}
	return b.String()
}

// Subtitle builds a single-segment VOD playlist whose one entry spans the
// whole track. Subtitle playlists always receive the end marker.
func Subtitle(trackFileURI string, totalDuration float64) string {
	return fmt.Sprintf(`%s
%s:%d
#EXT-X-ALLOW-CACHE:YES
#EXT-X-TARGETDURATION:%d
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:%.1f,
%s
%s
`, tagHeader, tagVersion, playlistVersion, int(math.Ceil(totalDuration)), totalDuration, trackFileURI, tagEndList)
}

// Validate checks the structural invariants third-party players rely on:
// the magic header on the first line, a version tag, and the end marker
// whenever the playlist declares itself VOD.
func Validate(content string) error {
	if !strings.HasPrefix(content, tagHeader) {
		return fmt.Errorf("playlist must start with %s", tagHeader)
	}
	if !strings.Contains(content, tagVersion+":") {
		return fmt.Errorf("playlist is missing the %s tag", tagVersion)
	}
	if strings.Contains(content, tagPlaylistType+":VOD") && !strings.Contains(content, tagEndList) {
		return fmt.Errorf("VOD playlist is missing the %s marker", tagEndList)
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}
