package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"gitlab.com/transcodeuz/hls-packager/pkg/logger"
	"gitlab.com/transcodeuz/hls-packager/pkg/orchestrator"
	"gitlab.com/transcodeuz/hls-packager/tools/storage"
)

// Segmenter encodes one HLS rendition per call by running ffmpeg as a
// subprocess.
type Segmenter struct {
	binary string
	log    logger.Logger
}

func New(binary string, log logger.Logger) *Segmenter {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Segmenter{binary: binary, log: log}
}

// SegmentVideo scales and encodes the source into one video variant.
func (s *Segmenter) SegmentVideo(ctx context.Context, sourcePath string, seg orchestrator.SegmentConfig, enc orchestrator.EncodeConfig) (*orchestrator.SegmentResult, error) {
	playlistPath := filepath.Join(seg.OutputDir, seg.PlaylistName)

	args := []string{
		"-y",
		"-i", sourcePath,
		"-vf", fmt.Sprintf("scale=%d:%d", enc.Resolution.Width, enc.Resolution.Height),
		"-c:v", "libx264",
		"-preset", enc.VideoPreset,
		"-b:v", enc.Resolution.Bitrate,
		"-c:a", "aac",
		"-b:a", enc.AudioBitrate,
		"-ac", "2",
	}
	args = append(args, hlsArgs(seg)...)
	args = append(args, playlistPath)

	return s.run(ctx, args, seg, playlistPath)
}

// SegmentAudio encodes one audio stream into its own rendition.
func (s *Segmenter) SegmentAudio(ctx context.Context, sourcePath string, seg orchestrator.SegmentConfig, enc orchestrator.EncodeConfig, streamIndex int) (*orchestrator.SegmentResult, error) {
	playlistPath := filepath.Join(seg.OutputDir, seg.PlaylistName)

	args := []string{
		"-y",
		"-i", sourcePath,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-vn",
		"-c:a", "aac",
		"-b:a", enc.AudioBitrate,
	}
	args = append(args, hlsArgs(seg)...)
	args = append(args, playlistPath)

	return s.run(ctx, args, seg, playlistPath)
}

func hlsArgs(seg orchestrator.SegmentConfig) []string {
	return []string{
		"-start_number", "0",
		"-hls_time", strconv.Itoa(seg.SegmentDuration),
		"-hls_list_size", "0",
		"-hls_segment_filename", filepath.Join(seg.OutputDir, "segment_%03d.ts"),
		"-progress", "pipe:1",
		"-nostats",
		"-f", "hls",
	}
}

func (s *Segmenter) run(ctx context.Context, args []string, seg orchestrator.SegmentConfig, playlistPath string) (*orchestrator.SegmentResult, error) {
	if err := os.MkdirAll(seg.OutputDir, 0755); err != nil {
		return nil, err
	}

	s.log.Debug("[+] SEGMENTING", logger.String("playlist", playlistPath))

	cmd := exec.CommandContext(ctx, s.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}

	parser := newProgressParser(seg.SourceDuration, seg.OnProgress)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		parser.consume(scanner.Text())
	}

	if err := cmd.Wait(); err != nil {
		s.log.Error("[-] SEGMENTING", logger.String("playlist", playlistPath), logger.Error(err))
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, lastLines(stderr.String(), 5))
	}

	segments, duration, err := playlistStats(playlistPath)
	if err != nil {
		return nil, fmt.Errorf("reading produced playlist: %w", err)
	}

	size, err := storage.DirSize(seg.OutputDir)
	if err != nil {
		size = 0
	}

	return &orchestrator.SegmentResult{
		PlaylistPath: playlistPath,
		SegmentCount: segments,
		FileSize:     size,
		Duration:     duration,
	}, nil
}

// playlistStats counts the EXTINF entries of the produced playlist and
// sums their durations.
func playlistStats(path string) (int, float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}

	var (
		count int
		total float64
	)
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "#EXTINF:") {
			continue
		}
		count++
		v := strings.TrimSuffix(strings.TrimPrefix(line, "#EXTINF:"), ",")
		if d, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			total += d
		}
	}
	return count, total, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
