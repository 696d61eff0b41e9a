package orchestrator

import (
	"context"
	"time"

	"gitlab.com/transcodeuz/hls-packager/models"
)

// ProgressSample is one periodic reading delivered by an encode subprocess.
type ProgressSample struct {
	Percent float64
	Speed   float64
	FPS     float64
	Bitrate string
	ETA     time.Duration
}

// SegmentConfig tells the segmentation collaborator where and how to cut.
type SegmentConfig struct {
	OutputDir       string
	PlaylistName    string
	SegmentDuration int
	// SourceDuration lets the collaborator turn encoder time offsets into
	// completion percentages.
	SourceDuration float64
	OnProgress     func(ProgressSample)
}

// EncodeConfig carries the per-task encoder parameters.
type EncodeConfig struct {
	Resolution   models.Resolution
	VideoPreset  string
	AudioBitrate string
}

// SegmentResult is what one completed segmentation task produced.
type SegmentResult struct {
	PlaylistPath string
	SegmentCount int
	FileSize     int64
	Duration     float64
}

// MetadataProvider probes a source file into structured stream metadata.
// It must return models.ErrSourceNotFound when the path does not exist and
// honor the context deadline.
type MetadataProvider interface {
	Probe(ctx context.Context, path string) (*models.MediaInfo, error)
}

// Segmenter runs one encode subprocess per call. It owns its own
// timeout/cancellation policy and is opaque to the orchestrator.
type Segmenter interface {
	SegmentVideo(ctx context.Context, sourcePath string, seg SegmentConfig, enc EncodeConfig) (*SegmentResult, error)
	SegmentAudio(ctx context.Context, sourcePath string, seg SegmentConfig, enc EncodeConfig, streamIndex int) (*SegmentResult, error)
}

// SubtitleFile is one extracted subtitle track, identified by its source
// stream index. Duration is the last cue end time when the extractor
// could determine it, zero otherwise.
type SubtitleFile struct {
	StreamIndex int
	Language    string
	Name        string
	Duration    float64
	Output      models.SubtitleOutput
}

// SubtitleExtractor pulls embedded subtitle tracks out of the source.
type SubtitleExtractor interface {
	ExtractEmbedded(ctx context.Context, sourcePath, outputDir string, extractAll bool) ([]SubtitleFile, error)
}
