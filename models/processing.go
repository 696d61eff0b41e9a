package models

import "time"

// Quality presets accepted by ProcessingConfig.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// DefaultSegmentDuration is the target segment length in seconds when the
// config does not specify one.
const DefaultSegmentDuration = 6

// ProcessingConfig describes the desired output of one packaging job.
// It is treated as immutable once Normalize has been applied.
type ProcessingConfig struct {
	OutputBaseDir      string   `json:"output_base_dir"`
	TempDir            string   `json:"temp_dir"`
	QualityPreset      string   `json:"quality_preset"`
	TargetResolutions  []string `json:"target_resolutions"`
	MinWidth           int      `json:"min_width"`
	MinHeight          int      `json:"min_height"`
	VideoPreset        string   `json:"video_preset"`
	AudioQuality       string   `json:"audio_quality"`
	SegmentDuration    int      `json:"segment_duration"`
	Parallel           bool     `json:"parallel"`
	ExtractAudioTracks bool     `json:"extract_audio_tracks"`
	ExtractSubtitles   bool     `json:"extract_subtitles"`
	CleanupTemp        bool     `json:"cleanup_temp"`
	KeepOriginal       bool     `json:"keep_original"`
}

// Normalize fills the defaults for fields the caller left empty.
func (c *ProcessingConfig) Normalize() {
	if c.QualityPreset == "" {
		c.QualityPreset = QualityMedium
	}
	if c.AudioQuality == "" {
		c.AudioQuality = QualityMedium
	}
	if c.VideoPreset == "" {
		c.VideoPreset = "medium"
	}
	if c.SegmentDuration <= 0 {
		c.SegmentDuration = DefaultSegmentDuration
	}
}

// Resolution is one rung of the output ladder. Bitrate is the suggested
// video bitrate in ffmpeg notation ("5000k", "4M").
type Resolution struct {
	Name    string `json:"name"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Bitrate string `json:"bitrate"`
}

// HLSVariant describes one quality rendition referenced by the master
// playlist. Bandwidth is bits per second and must equal the sum of the
// video and audio bitrates.
type HLSVariant struct {
	Name          string  `json:"name"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Bandwidth     int     `json:"bandwidth"`
	VideoBitrate  string  `json:"video_bitrate"`
	AudioBitrate  string  `json:"audio_bitrate"`
	Codecs        string  `json:"codecs"`
	PlaylistPath  string  `json:"playlist_path"`
	FrameRate     float64 `json:"frame_rate,omitempty"`
	AudioGroup    string  `json:"audio_group,omitempty"`
	SubtitleGroup string  `json:"subtitle_group,omitempty"`
}

// AudioTrackInfo is one alternate audio track detected at plan time.
type AudioTrackInfo struct {
	StreamIndex int    `json:"stream_index"`
	Language    string `json:"language"`
	Name        string `json:"name"`
	Codec       string `json:"codec"`
	Channels    int    `json:"channels"`
	Default     bool   `json:"default"`
}

// SubtitleInfo is one embedded subtitle track detected at plan time.
type SubtitleInfo struct {
	StreamIndex int    `json:"stream_index"`
	Language    string `json:"language"`
	Name        string `json:"name"`
	Codec       string `json:"codec"`
	Default     bool   `json:"default"`
	Forced      bool   `json:"forced"`
}

// ProcessingPlan is built once per job after analysis and never mutated.
type ProcessingPlan struct {
	SourcePath        string           `json:"source_path"`
	Source            MediaInfo        `json:"source"`
	Ladder            []Resolution     `json:"ladder"`
	Variants          []HLSVariant     `json:"variants"`
	AudioTracks       []AudioTrackInfo `json:"audio_tracks"`
	Subtitles         []SubtitleInfo   `json:"subtitles"`
	EstimatedDuration float64          `json:"estimated_duration"`
	EstimatedSize     int64            `json:"estimated_size"`
}

// ProcessingError records a task-level failure. Errors are accumulated,
// never raised individually: one failing variant must not erase results
// already produced by its siblings.
type ProcessingError struct {
	Stage   string    `json:"stage"`
	Item    string    `json:"item,omitempty"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// VariantResult is the outcome of segmenting one video variant.
type VariantResult struct {
	Name         string  `json:"name"`
	PlaylistPath string  `json:"playlist_path"`
	SegmentCount int     `json:"segment_count"`
	FileSize     int64   `json:"file_size"`
	Duration     float64 `json:"duration"`
}

// AudioTrackResult is the outcome of segmenting one alternate audio track.
type AudioTrackResult struct {
	Language     string  `json:"language"`
	Name         string  `json:"name"`
	PlaylistPath string  `json:"playlist_path"`
	SegmentCount int     `json:"segment_count"`
	FileSize     int64   `json:"file_size"`
	Duration     float64 `json:"duration"`
}

// SubtitleOutput is either a converted captions file or the original
// subtitle codec's file when conversion was not requested. Consumers must
// switch on the concrete type instead of probing optional fields.
type SubtitleOutput interface {
	subtitleOutput()
	OutputPath() string
}

// ConvertedSubtitle points at a WebVTT file produced by conversion.
type ConvertedSubtitle struct {
	Path string `json:"path"`
}

// RawSubtitle points at a file still in the source subtitle codec.
type RawSubtitle struct {
	Format string `json:"format"`
	Path   string `json:"path"`
}

func (ConvertedSubtitle) subtitleOutput() {}
func (RawSubtitle) subtitleOutput()       {}

func (s ConvertedSubtitle) OutputPath() string { return s.Path }
func (s RawSubtitle) OutputPath() string       { return s.Path }

// SubtitleResult is the outcome of extracting one subtitle track.
type SubtitleResult struct {
	Language     string         `json:"language"`
	Name         string         `json:"name"`
	PlaylistPath string         `json:"playlist_path"`
	Output       SubtitleOutput `json:"-"`
}

// ProcessingResult is the final outcome of one job. Success is true iff
// the error list is empty; task-level failures never surface as returned
// errors, so callers able to serve a partial package inspect Errors.
type ProcessingResult struct {
	Success            bool               `json:"success"`
	VideoID            string             `json:"video_id"`
	MasterPlaylistPath string             `json:"master_playlist_path"`
	Variants           []VariantResult    `json:"variants"`
	AudioTracks        []AudioTrackResult `json:"audio_tracks"`
	Subtitles          []SubtitleResult   `json:"subtitles"`
	OriginalSize       int64              `json:"original_size"`
	ProcessedSize      int64              `json:"processed_size"`
	CompressionRatio   float64            `json:"compression_ratio"`
	ProcessingTime     time.Duration      `json:"processing_time"`
	Errors             []ProcessingError  `json:"errors"`
}
