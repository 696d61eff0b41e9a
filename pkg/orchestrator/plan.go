package orchestrator

import (
	"fmt"

	"gitlab.com/transcodeuz/hls-packager/models"
	"gitlab.com/transcodeuz/hls-packager/tools/ladder"
	"gitlab.com/transcodeuz/hls-packager/tools/playlist"
)

// Audio bitrate per quality tier, applied to every variant.
var audioBitrateByQuality = map[string]string{
	models.QualityLow:    "96k",
	models.QualityMedium: "128k",
	models.QualityHigh:   "192k",
}

// buildPlan derives the full processing plan from probed metadata. The
// plan is built once and never mutated afterwards.
func buildPlan(sourcePath string, info *models.MediaInfo, cfg models.ProcessingConfig) *models.ProcessingPlan {
	rungs := ladder.Generate(info.Video.Width, info.Video.Height, ladder.Constraints{
		Names:     cfg.TargetResolutions,
		Preset:    cfg.QualityPreset,
		MinWidth:  cfg.MinWidth,
		MinHeight: cfg.MinHeight,
	})

	var audioTracks []models.AudioTrackInfo
	if cfg.ExtractAudioTracks {
		audioTracks = detectAudioTracks(info)
	}

	var subtitles []models.SubtitleInfo
	if cfg.ExtractSubtitles {
		subtitles = detectSubtitles(info)
	}

	audioBitrate := audioBitrateByQuality[cfg.AudioQuality]

	variants := make([]models.HLSVariant, 0, len(rungs))
	for _, r := range rungs {
		v := models.HLSVariant{
			Name:         r.Name,
			Width:        r.Width,
			Height:       r.Height,
			Bandwidth:    playlist.CalculateBandwidth(r.Bitrate, audioBitrate),
			VideoBitrate: r.Bitrate,
			AudioBitrate: audioBitrate,
			Codecs:       playlist.CodecsForHeight(r.Height),
			PlaylistPath: fmt.Sprintf("video/%s/index.m3u8", r.Name),
			FrameRate:    info.Video.FrameRate,
		}
		if len(audioTracks) > 0 {
			v.AudioGroup = playlist.AudioGroupID
		}
		if len(subtitles) > 0 {
			v.SubtitleGroup = playlist.SubtitleGroupID
		}
		variants = append(variants, v)
	}

	return &models.ProcessingPlan{
		SourcePath:        sourcePath,
		Source:            *info,
		Ladder:            rungs,
		Variants:          variants,
		AudioTracks:       audioTracks,
		Subtitles:         subtitles,
		EstimatedDuration: info.Duration,
		EstimatedSize:     estimateSize(rungs, info.Duration),
	}
}

// detectAudioTracks maps probed audio streams to plan tracks. The first
// stream becomes the default track unless the source metadata already
// flagged one.
func detectAudioTracks(info *models.MediaInfo) []models.AudioTrackInfo {
	tracks := make([]models.AudioTrackInfo, 0, len(info.AudioStreams))
	flagged := false
	for _, s := range info.AudioStreams {
		if s.Default {
			flagged = true
		}
		tracks = append(tracks, models.AudioTrackInfo{
			StreamIndex: s.Index,
			Language:    orDefault(s.Language, "und"),
			Name:        trackName(s.Title, s.Language, len(tracks)),
			Codec:       s.Codec,
			Channels:    s.Channels,
			Default:     s.Default,
		})
	}
	if !flagged && len(tracks) > 0 {
		tracks[0].Default = true
	}
	return tracks
}

func detectSubtitles(info *models.MediaInfo) []models.SubtitleInfo {
	subs := make([]models.SubtitleInfo, 0, len(info.SubtitleStreams))
	flagged := false
	for _, s := range info.SubtitleStreams {
		if s.Default {
			flagged = true
		}
		subs = append(subs, models.SubtitleInfo{
			StreamIndex: s.Index,
			Language:    orDefault(s.Language, "und"),
			Name:        trackName(s.Title, s.Language, len(subs)),
			Codec:       s.Codec,
			Default:     s.Default,
			Forced:      s.Forced,
		})
	}
	if !flagged && len(subs) > 0 {
		subs[0].Default = true
	}
	return subs
}

func trackName(title, language string, index int) string {
	if title != "" {
		return title
	}
	if language != "" {
		return language
	}
	return fmt.Sprintf("Track %d", index+1)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// estimateSize sums the rung bitrates over the source duration.
func estimateSize(rungs []models.Resolution, duration float64) int64 {
	var total int64
	for _, r := range rungs {
		bw := playlist.CalculateBandwidth(r.Bitrate, "0k")
		total += int64(float64(bw) / 8 * duration)
	}
	return total
}
