package subtitle

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"gitlab.com/transcodeuz/hls-packager/models"
	"gitlab.com/transcodeuz/hls-packager/pkg/logger"
	"gitlab.com/transcodeuz/hls-packager/pkg/orchestrator"
)

// Bitmap subtitle codecs cannot be converted to WebVTT and are copied out
// in their original format.
var bitmapCodecs = map[string]bool{
	"hdmv_pgs_subtitle": true,
	"dvd_subtitle":      true,
	"dvb_subtitle":      true,
}

var rawExtension = map[string]string{
	"subrip":            "srt",
	"ass":               "ass",
	"ssa":               "ssa",
	"mov_text":          "srt",
	"webvtt":            "vtt",
	"hdmv_pgs_subtitle": "sup",
	"dvd_subtitle":      "sub",
}

// Extractor pulls embedded subtitle streams out of a source file with
// ffmpeg, converting text tracks to WebVTT when requested.
type Extractor struct {
	binary   string
	metadata orchestrator.MetadataProvider
	convert  bool
	log      logger.Logger
}

func NewExtractor(binary string, metadata orchestrator.MetadataProvider, convertToVTT bool, log logger.Logger) *Extractor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Extractor{binary: binary, metadata: metadata, convert: convertToVTT, log: log}
}

// ExtractEmbedded extracts the source's subtitle streams into
// per-language directories under outputDir. With extractAll false only
// the default (or first) track is extracted. A stream that fails to
// extract is skipped; the caller decides what a missing track means.
func (e *Extractor) ExtractEmbedded(ctx context.Context, sourcePath, outputDir string, extractAll bool) ([]orchestrator.SubtitleFile, error) {
	info, err := e.metadata.Probe(ctx, sourcePath)
	if err != nil {
		return nil, err
	}

	streams := info.SubtitleStreams
	if !extractAll && len(streams) > 1 {
		streams = []models.SubtitleStreamInfo{pickDefault(streams)}
	}

	seen := make(map[string]bool, len(streams))
	var files []orchestrator.SubtitleFile

	for _, stream := range streams {
		lang := stream.Language
		if lang == "" {
			lang = "und"
		}
		if seen[lang] {
			continue
		}

		file, err := e.extractStream(ctx, sourcePath, outputDir, stream, lang)
		if err != nil {
			e.log.Warn("subtitle extraction failed",
				logger.Int("stream", stream.Index),
				logger.String("language", lang),
				logger.Error(err),
			)
			continue
		}

		seen[lang] = true
		files = append(files, *file)
	}

	return files, nil
}

func (e *Extractor) extractStream(ctx context.Context, sourcePath, outputDir string, stream models.SubtitleStreamInfo, lang string) (*orchestrator.SubtitleFile, error) {
	dir := filepath.Join(outputDir, lang)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	if e.convert && !bitmapCodecs[stream.Codec] {
		out := filepath.Join(dir, lang+".vtt")
		if err := e.runFFmpeg(ctx, sourcePath, stream.Index, nil, out); err != nil {
			return nil, err
		}
		duration, _ := TotalDuration(out)
		return &orchestrator.SubtitleFile{
			StreamIndex: stream.Index,
			Language:    lang,
			Name:        stream.Title,
			Duration:    duration,
			Output:      models.ConvertedSubtitle{Path: out},
		}, nil
	}

	ext, ok := rawExtension[stream.Codec]
	if !ok {
		ext = "srt"
	}
	out := filepath.Join(dir, lang+"."+ext)
	if err := e.runFFmpeg(ctx, sourcePath, stream.Index, []string{"-c:s", "copy"}, out); err != nil {
		return nil, err
	}
	return &orchestrator.SubtitleFile{
		StreamIndex: stream.Index,
		Language:    lang,
		Name:        stream.Title,
		Output:      models.RawSubtitle{Format: stream.Codec, Path: out},
	}, nil
}

func (e *Extractor) runFFmpeg(ctx context.Context, sourcePath string, streamIndex int, codecArgs []string, out string) error {
	args := []string{"-y", "-i", sourcePath, "-map", fmt.Sprintf("0:%d", streamIndex)}
	args = append(args, codecArgs...)
	args = append(args, out)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, stderr.String())
	}
	return nil
}

func pickDefault(streams []models.SubtitleStreamInfo) models.SubtitleStreamInfo {
	for _, s := range streams {
		if s.Default {
			return s
		}
	}
	return streams[0]
}
