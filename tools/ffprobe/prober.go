package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"gitlab.com/transcodeuz/hls-packager/models"
	"gitlab.com/transcodeuz/hls-packager/pkg/logger"
)

// Prober runs ffprobe and parses its JSON output into structured
// stream/format metadata.
type Prober struct {
	binary string
	log    logger.Logger
}

func New(binary string, log logger.Logger) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary, log: log}
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
	BitRate    string `json:"bit_rate"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Tags       struct {
		Language string `json:"language"`
		Title    string `json:"title"`
	} `json:"tags"`
	Disposition struct {
		Default int `json:"default"`
		Forced  int `json:"forced"`
	} `json:"disposition"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
}

// Probe inspects one source file. A missing path is reported as
// models.ErrSourceNotFound, distinct from a probe-tool failure. The
// context deadline bounds the subprocess.
func (p *Prober) Probe(ctx context.Context, path string) (*models.MediaInfo, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, models.ErrSourceNotFound)
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-show_streams",
		"-show_format",
		"-of", "json",
		path,
	)
	p.log.Debug("[+] PROBING", logger.String("path", path))

	out, err := cmd.Output()
	if err != nil {
		p.log.Error("[-] PROBING", logger.String("path", path), logger.Error(err))
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var raw probeOutput
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	info := &models.MediaInfo{
		Duration: parseFloat(raw.Format.Duration),
		Size:     parseInt(raw.Format.Size),
	}

	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			vs := models.VideoStreamInfo{
				Index:     s.Index,
				Codec:     s.CodecName,
				Width:     s.Width,
				Height:    s.Height,
				FrameRate: parseFrameRate(s.RFrameRate),
				Bitrate:   int(parseInt(s.BitRate)),
			}
			info.VideoStreams = append(info.VideoStreams, vs)
		case "audio":
			as := models.AudioStreamInfo{
				Index:      s.Index,
				Codec:      s.CodecName,
				SampleRate: int(parseInt(s.SampleRate)),
				Channels:   s.Channels,
				Language:   s.Tags.Language,
				Title:      s.Tags.Title,
				Default:    s.Disposition.Default == 1,
			}
			info.AudioStreams = append(info.AudioStreams, as)
		case "subtitle":
			info.SubtitleStreams = append(info.SubtitleStreams, models.SubtitleStreamInfo{
				Index:    s.Index,
				Codec:    s.CodecName,
				Language: s.Tags.Language,
				Title:    s.Tags.Title,
				Default:  s.Disposition.Default == 1,
				Forced:   s.Disposition.Forced == 1,
			})
		}
	}

	info.Video = primaryVideo(info.VideoStreams)
	if len(info.AudioStreams) > 0 {
		info.Audio = &info.AudioStreams[0]
	}

	switch {
	case info.HasVideo():
		info.MediaType = models.MediaTypeVideo
	case len(info.AudioStreams) > 0:
		info.MediaType = models.MediaTypeAudio
	default:
		info.MediaType = models.MediaTypeUnknown
	}

	return info, nil
}

// primaryVideo picks the stream with the highest resolution, matching how
// players choose the main picture.
func primaryVideo(streams []models.VideoStreamInfo) *models.VideoStreamInfo {
	var best *models.VideoStreamInfo
	for i := range streams {
		s := &streams[i]
		if best == nil || s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	return best
}

// parseFrameRate converts ffprobe's rational notation ("30000/1001").
func parseFrameRate(r string) float64 {
	parts := strings.SplitN(r, "/", 2)
	if len(parts) == 2 {
		num := parseFloat(parts[0])
		den := parseFloat(parts[1])
		if den > 0 {
			return num / den
		}
		return 0
	}
	return parseFloat(r)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
