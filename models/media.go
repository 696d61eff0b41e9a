package models

// Media type classifications returned by the metadata collaborator.
const (
	MediaTypeVideo   = "video"
	MediaTypeAudio   = "audio"
	MediaTypeUnknown = "unknown"
)

// VideoStreamInfo is the probed shape of one video stream.
type VideoStreamInfo struct {
	Index     int     `json:"index"`
	Codec     string  `json:"codec"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	FrameRate float64 `json:"frame_rate"`
	Bitrate   int     `json:"bitrate"`
}

// AudioStreamInfo is the probed shape of one audio stream.
type AudioStreamInfo struct {
	Index      int    `json:"index"`
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Language   string `json:"language"`
	Title      string `json:"title"`
	Default    bool   `json:"default"`
}

// SubtitleStreamInfo is the probed shape of one embedded subtitle stream.
type SubtitleStreamInfo struct {
	Index    int    `json:"index"`
	Codec    string `json:"codec"`
	Language string `json:"language"`
	Title    string `json:"title"`
	Default  bool   `json:"default"`
	Forced   bool   `json:"forced"`
}

// MediaInfo is the structured result of probing one source file.
type MediaInfo struct {
	MediaType       string               `json:"media_type"`
	Duration        float64              `json:"duration"`
	Size            int64                `json:"size"`
	Video           *VideoStreamInfo     `json:"video,omitempty"`
	Audio           *AudioStreamInfo     `json:"audio,omitempty"`
	VideoStreams    []VideoStreamInfo    `json:"video_streams"`
	AudioStreams    []AudioStreamInfo    `json:"audio_streams"`
	SubtitleStreams []SubtitleStreamInfo `json:"subtitle_streams"`
}

// HasVideo reports whether the source carries a decodable video stream.
func (m *MediaInfo) HasVideo() bool {
	return m.Video != nil && m.Video.Width > 0 && m.Video.Height > 0
}
