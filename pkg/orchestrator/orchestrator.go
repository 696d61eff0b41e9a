package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/transcodeuz/hls-packager/models"
	"gitlab.com/transcodeuz/hls-packager/pkg/events"
	"gitlab.com/transcodeuz/hls-packager/pkg/logger"
	"gitlab.com/transcodeuz/hls-packager/pkg/progress"
	"gitlab.com/transcodeuz/hls-packager/tools/playlist"
	"gitlab.com/transcodeuz/hls-packager/tools/storage"
)

// Stage tags carried by accumulated task-level errors.
const (
	StageAnalyzing = "analyzing"
	StagePlanning  = "planning"
	StageSubtitles = "subtitles"
	StageVideo     = "video"
	StageAudio     = "audio"
	StagePlaylists = "playlists"
	StageCleanup   = "cleanup"
)

const defaultProbeTimeout = 30 * time.Second

// Options wires the orchestrator's collaborators.
type Options struct {
	Log          logger.Logger
	Metadata     MetadataProvider
	Segmenter    Segmenter
	Subtitles    SubtitleExtractor
	Bus          *events.Bus
	ProbeTimeout time.Duration
}

// Orchestrator drives one packaging job through its phases. Each call to
// Process is independent; no state is shared between jobs.
type Orchestrator struct {
	log          logger.Logger
	metadata     MetadataProvider
	segmenter    Segmenter
	subtitles    SubtitleExtractor
	bus          *events.Bus
	probeTimeout time.Duration
}

func New(opts Options) *Orchestrator {
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	bus := opts.Bus
	if bus == nil {
		bus = events.NewBus()
	}
	return &Orchestrator{
		log:          opts.Log,
		metadata:     opts.Metadata,
		segmenter:    opts.Segmenter,
		subtitles:    opts.Subtitles,
		bus:          bus,
		probeTimeout: timeout,
	}
}

// Bus exposes the event bus so callers can subscribe before processing.
func (o *Orchestrator) Bus() *events.Bus { return o.bus }

// job holds the mutable state of one run. The error list and tracker are
// shared with variant goroutines in parallel mode, so both are guarded.
type job struct {
	id      string
	cfg     models.ProcessingConfig
	tracker *progress.Tracker

	errMu sync.Mutex
	errs  []models.ProcessingError
}

func (j *job) recordError(stage, item, message string) {
	j.errMu.Lock()
	defer j.errMu.Unlock()
	j.errs = append(j.errs, models.ProcessingError{
		Stage:   stage,
		Item:    item,
		Message: message,
		Time:    time.Now(),
	})
}

func (j *job) errorCount() int {
	j.errMu.Lock()
	defer j.errMu.Unlock()
	return len(j.errs)
}

// Process runs one job end to end and returns the assembled result.
// Task-level failures are accumulated into the result's error list; only
// fatal conditions (missing source, non-video input, probe failure,
// master playlist write failure) return a non-nil error.
func (o *Orchestrator) Process(ctx context.Context, sourcePath string, cfg models.ProcessingConfig) (*models.ProcessingResult, error) {
	cfg.Normalize()
	if cfg.OutputBaseDir == "" {
		return nil, fmt.Errorf("output base dir is required")
	}

	j := &job{
		id:      uuid.NewString(),
		cfg:     cfg,
		tracker: progress.NewTracker(),
	}
	start := time.Now()

	o.bus.Publish(events.Event{Kind: events.JobStarted, JobID: j.id, Message: sourcePath})
	o.log.Info("job started",
		logger.String("job_id", j.id),
		logger.String("source", sourcePath),
		logger.Bool("parallel", cfg.Parallel),
	)

	// --- Analyzing ---
	info, err := o.analyze(ctx, j, sourcePath)
	if err != nil {
		return nil, o.fail(j, progress.PhaseAnalyzing, err)
	}

	// --- Planning ---
	plan, paths, err := o.plan(j, sourcePath, info)
	if err != nil {
		return nil, o.fail(j, progress.PhasePlanning, err)
	}

	// --- ProcessingSubtitles (before video, so playlist generation can
	// reuse the already-extracted files) ---
	var subtitleResults []models.SubtitleResult
	if len(plan.Subtitles) > 0 {
		subtitleResults = o.processSubtitles(ctx, j, plan, paths)
	}

	// --- ProcessingVideo ---
	variantResults, videoAborted := o.processVideo(ctx, j, plan, paths)

	var audioResults []models.AudioTrackResult
	var masterPath string

	if !videoAborted {
		// --- ProcessingAudio ---
		if len(plan.AudioTracks) > 0 {
			audioResults = o.processAudio(ctx, j, plan, paths)
		}

		// --- GeneratingPlaylists ---
		masterPath, err = o.generatePlaylists(j, plan, paths, variantResults, audioResults, subtitleResults)
		if err != nil {
			return nil, o.fail(j, progress.PhaseGeneratingPlaylists, err)
		}
	}

	// The job verdict is fixed once the playlists phase ends; anything
	// cleanup records afterwards does not flip it.
	success := j.errorCount() == 0 && !videoAborted

	// --- Cleanup ---
	if cfg.CleanupTemp || !cfg.KeepOriginal {
		o.cleanup(j, sourcePath)
	}

	j.tracker.SetPhase(progress.PhaseComplete, 100)

	result := o.assemble(j, plan, paths, start, success, masterPath, variantResults, audioResults, subtitleResults)

	kind := events.JobCompleted
	if !result.Success {
		kind = events.JobFailed
	}
	o.bus.Publish(events.Event{Kind: kind, JobID: j.id, Percent: 100, Message: masterPath})
	o.log.Info("job finished",
		logger.String("job_id", j.id),
		logger.Bool("success", result.Success),
		logger.Int("errors", len(result.Errors)),
		logger.Any("duration", result.ProcessingTime),
	)
	return result, nil
}

// analyze probes the source within a bounded deadline and rejects inputs
// without a decodable video stream.
func (o *Orchestrator) analyze(ctx context.Context, j *job, sourcePath string) (*models.MediaInfo, error) {
	o.startPhase(j, progress.PhaseAnalyzing)

	probeCtx, cancel := context.WithTimeout(ctx, o.probeTimeout)
	defer cancel()

	info, err := o.metadata.Probe(probeCtx, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", sourcePath, err)
	}
	if !info.HasVideo() {
		return nil, models.ErrNoVideoStream
	}

	o.completePhase(j, progress.PhaseAnalyzing)
	return info, nil
}

// plan builds the processing plan and creates the job's directory tree.
func (o *Orchestrator) plan(j *job, sourcePath string, info *models.MediaInfo) (*models.ProcessingPlan, storage.JobPaths, error) {
	o.startPhase(j, progress.PhasePlanning)

	plan := buildPlan(sourcePath, info, j.cfg)
	paths := storage.NewJobPaths(j.cfg.OutputBaseDir, j.id)
	if err := paths.Create(); err != nil {
		return nil, paths, err
	}

	o.log.Info("plan built",
		logger.String("job_id", j.id),
		logger.Int("variants", len(plan.Variants)),
		logger.Int("audio_tracks", len(plan.AudioTracks)),
		logger.Int("subtitles", len(plan.Subtitles)),
	)

	o.completePhase(j, progress.PhasePlanning)
	return plan, paths, nil
}

// processSubtitles extracts every planned track and writes its playlist.
// Subtitle tracks are independent deliverables: each failure is recorded
// and the rest continue.
func (o *Orchestrator) processSubtitles(ctx context.Context, j *job, plan *models.ProcessingPlan, paths storage.JobPaths) []models.SubtitleResult {
	o.startPhase(j, progress.PhaseProcessingSubtitles)

	extracted, err := o.subtitles.ExtractEmbedded(ctx, plan.SourcePath, paths.Subtitles, true)
	if err != nil {
		j.recordError(StageSubtitles, "", err.Error())
		o.bus.Publish(events.Event{Kind: events.SubtitleFailed, JobID: j.id, Err: err})
		o.completePhase(j, progress.PhaseProcessingSubtitles)
		return nil
	}

	// Two tracks can share a language tag, so files are matched to planned
	// tracks by their source stream index.
	byStream := make(map[int]SubtitleFile, len(extracted))
	for _, f := range extracted {
		byStream[f.StreamIndex] = f
	}

	share := 100 / float64(len(plan.Subtitles))
	var results []models.SubtitleResult

	for i, sub := range plan.Subtitles {
		o.bus.Publish(events.Event{Kind: events.SubtitleStarted, JobID: j.id, Item: sub.Language})

		file, ok := byStream[sub.StreamIndex]
		if !ok {
			j.recordError(StageSubtitles, sub.Language, "track was not extracted")
			o.bus.Publish(events.Event{Kind: events.SubtitleFailed, JobID: j.id, Item: sub.Language})
			continue
		}

		playlistPath := filepath.Join(paths.Subtitles, sub.Language, "index.m3u8")
		uri := filepath.Base(file.Output.OutputPath())
		duration := plan.Source.Duration
		if file.Duration > 0 {
			duration = file.Duration
		}
		if err := playlist.WriteFile(playlistPath, playlist.Subtitle(uri, duration)); err != nil {
			j.recordError(StageSubtitles, sub.Language, err.Error())
			o.bus.Publish(events.Event{Kind: events.SubtitleFailed, JobID: j.id, Item: sub.Language, Err: err})
			continue
		}

		results = append(results, models.SubtitleResult{
			Language:     sub.Language,
			Name:         sub.Name,
			PlaylistPath: playlistPath,
			Output:       file.Output,
		})

		pct := float64(i+1) * share
		j.tracker.SetPhase(progress.PhaseProcessingSubtitles, pct)
		o.bus.Publish(events.Event{Kind: events.SubtitleCompleted, JobID: j.id, Item: sub.Language, Percent: pct})
	}

	o.completePhase(j, progress.PhaseProcessingSubtitles)
	return results
}

// processVideo runs one segmentation task per planned variant. In
// parallel mode every task is launched at once and the first failure
// aborts the phase; in sequential mode a failing variant is recorded and
// its siblings still run.
func (o *Orchestrator) processVideo(ctx context.Context, j *job, plan *models.ProcessingPlan, paths storage.JobPaths) ([]models.VariantResult, bool) {
	o.startPhase(j, progress.PhaseProcessingVideo)

	if j.cfg.Parallel {
		results, aborted := o.runVariantsParallel(ctx, j, plan, paths)
		if aborted {
			o.bus.Publish(events.Event{
				Kind:  events.PhaseFailed,
				JobID: j.id,
				Phase: string(progress.PhaseProcessingVideo),
			})
			return nil, true
		}
		o.completePhase(j, progress.PhaseProcessingVideo)
		return results, false
	}

	results := o.runVariantsSequential(ctx, j, plan, paths)
	o.completePhase(j, progress.PhaseProcessingVideo)
	return results, false
}

func (o *Orchestrator) runVariantsSequential(ctx context.Context, j *job, plan *models.ProcessingPlan, paths storage.JobPaths) []models.VariantResult {
	var results []models.VariantResult
	for i, variant := range plan.Variants {
		res, err := o.runVariant(ctx, j, plan, paths, variant, i, len(plan.Variants))
		if err != nil {
			j.recordError(StageVideo, variant.Name, err.Error())
			o.bus.Publish(events.Event{Kind: events.VariantFailed, JobID: j.id, Item: variant.Name, Err: err})
			continue
		}
		results = append(results, *res)
	}
	return results
}

func (o *Orchestrator) runVariantsParallel(ctx context.Context, j *job, plan *models.ProcessingPlan, paths storage.JobPaths) ([]models.VariantResult, bool) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		failed  bool
		results = make([]*models.VariantResult, len(plan.Variants))
	)

	for i, variant := range plan.Variants {
		wg.Add(1)
		go func(i int, variant models.HLSVariant) {
			defer wg.Done()

			res, err := o.runVariant(runCtx, j, plan, paths, variant, i, len(plan.Variants))
			if err != nil {
				j.recordError(StageVideo, variant.Name, err.Error())
				o.bus.Publish(events.Event{Kind: events.VariantFailed, JobID: j.id, Item: variant.Name, Err: err})

				mu.Lock()
				failed = true
				mu.Unlock()
				cancel()
				return
			}

			mu.Lock()
			results[i] = res
			mu.Unlock()
		}(i, variant)
	}
	wg.Wait()

	if failed {
		return nil, true
	}

	out := make([]models.VariantResult, 0, len(results))
	for _, r := range results {
		out = append(out, *r)
	}
	return out, false
}

// runVariant delegates one variant to the segmentation collaborator,
// translating its progress samples into variant- and phase-scoped events.
func (o *Orchestrator) runVariant(ctx context.Context, j *job, plan *models.ProcessingPlan, paths storage.JobPaths, variant models.HLSVariant, index, total int) (*models.VariantResult, error) {
	o.bus.Publish(events.Event{Kind: events.VariantStarted, JobID: j.id, Item: variant.Name})

	share := 100 / float64(total)
	seg := SegmentConfig{
		OutputDir:       filepath.Join(paths.Video, variant.Name),
		PlaylistName:    "index.m3u8",
		SegmentDuration: j.cfg.SegmentDuration,
		SourceDuration:  plan.Source.Duration,
		OnProgress: func(s ProgressSample) {
			j.tracker.SetVariant(variant.Name, s.Percent)
			o.bus.Publish(events.Event{
				Kind:    events.VariantProgress,
				JobID:   j.id,
				Item:    variant.Name,
				Percent: s.Percent,
			})

			phasePct := float64(index)*share + s.Percent/100*share
			j.tracker.SetPhase(progress.PhaseProcessingVideo, phasePct)
			o.bus.Publish(events.Event{
				Kind:    events.PhaseProgress,
				JobID:   j.id,
				Phase:   string(progress.PhaseProcessingVideo),
				Percent: phasePct,
			})
		},
	}
	enc := EncodeConfig{
		Resolution: models.Resolution{
			Name:    variant.Name,
			Width:   variant.Width,
			Height:  variant.Height,
			Bitrate: variant.VideoBitrate,
		},
		VideoPreset:  j.cfg.VideoPreset,
		AudioBitrate: variant.AudioBitrate,
	}

	res, err := o.segmenter.SegmentVideo(ctx, plan.SourcePath, seg, enc)
	if err != nil {
		return nil, err
	}

	j.tracker.SetVariant(variant.Name, 100)
	o.bus.Publish(events.Event{Kind: events.VariantCompleted, JobID: j.id, Item: variant.Name, Percent: 100})

	return &models.VariantResult{
		Name:         variant.Name,
		PlaylistPath: res.PlaylistPath,
		SegmentCount: res.SegmentCount,
		FileSize:     res.FileSize,
		Duration:     res.Duration,
	}, nil
}

// processAudio extracts every planned alternate track sequentially after
// the video phase. Tracks are independent deliverables, so failures are
// always recorded rather than aborting siblings, regardless of the
// parallel flag.
func (o *Orchestrator) processAudio(ctx context.Context, j *job, plan *models.ProcessingPlan, paths storage.JobPaths) []models.AudioTrackResult {
	o.startPhase(j, progress.PhaseProcessingAudio)

	share := 100 / float64(len(plan.AudioTracks))
	var results []models.AudioTrackResult

	for i, track := range plan.AudioTracks {
		o.bus.Publish(events.Event{Kind: events.AudioTrackStarted, JobID: j.id, Item: track.Language})

		index := i
		seg := SegmentConfig{
			OutputDir:       filepath.Join(paths.Audio, track.Language),
			PlaylistName:    "index.m3u8",
			SegmentDuration: j.cfg.SegmentDuration,
			SourceDuration:  plan.Source.Duration,
			OnProgress: func(s ProgressSample) {
				phasePct := float64(index)*share + s.Percent/100*share
				j.tracker.SetPhase(progress.PhaseProcessingAudio, phasePct)
				o.bus.Publish(events.Event{
					Kind:    events.AudioTrackProgress,
					JobID:   j.id,
					Item:    track.Language,
					Percent: s.Percent,
				})
			},
		}
		enc := EncodeConfig{AudioBitrate: audioBitrateByQuality[j.cfg.AudioQuality]}

		res, err := o.segmenter.SegmentAudio(ctx, plan.SourcePath, seg, enc, track.StreamIndex)
		if err != nil {
			j.recordError(StageAudio, track.Language, err.Error())
			o.bus.Publish(events.Event{Kind: events.AudioTrackFailed, JobID: j.id, Item: track.Language, Err: err})
			continue
		}

		results = append(results, models.AudioTrackResult{
			Language:     track.Language,
			Name:         track.Name,
			PlaylistPath: res.PlaylistPath,
			SegmentCount: res.SegmentCount,
			FileSize:     res.FileSize,
			Duration:     res.Duration,
		})

		pct := float64(i+1) * share
		j.tracker.SetPhase(progress.PhaseProcessingAudio, pct)
		o.bus.Publish(events.Event{Kind: events.AudioTrackCompleted, JobID: j.id, Item: track.Language, Percent: pct})
	}

	o.completePhase(j, progress.PhaseProcessingAudio)
	return results
}

// generatePlaylists writes the master playlist referencing only the
// variants and tracks that actually succeeded. A write failure here is
// fatal: a package without a valid master is not servable.
func (o *Orchestrator) generatePlaylists(j *job, plan *models.ProcessingPlan, paths storage.JobPaths, variants []models.VariantResult, audio []models.AudioTrackResult, subs []models.SubtitleResult) (string, error) {
	o.startPhase(j, progress.PhaseGeneratingPlaylists)

	succeeded := make(map[string]bool, len(variants))
	for _, v := range variants {
		succeeded[v.Name] = true
	}
	var masterVariants []models.HLSVariant
	for _, v := range plan.Variants {
		if succeeded[v.Name] {
			masterVariants = append(masterVariants, v)
		}
	}

	audioOK := make(map[string]bool, len(audio))
	for _, a := range audio {
		audioOK[a.Language] = true
	}
	var masterAudio []models.AudioTrackInfo
	for _, t := range plan.AudioTracks {
		if audioOK[t.Language] {
			masterAudio = append(masterAudio, t)
		}
	}

	subOK := make(map[string]bool, len(subs))
	for _, s := range subs {
		subOK[s.Language] = true
	}
	var masterSubs []models.SubtitleInfo
	for _, s := range plan.Subtitles {
		if subOK[s.Language] {
			masterSubs = append(masterSubs, s)
		}
	}

	content := playlist.Master(masterVariants, masterAudio, masterSubs)
	masterPath := paths.Master()
	if err := playlist.WriteFile(masterPath, content); err != nil {
		return "", fmt.Errorf("writing master playlist: %w", err)
	}

	o.bus.Publish(events.Event{Kind: events.PlaylistWritten, JobID: j.id, Message: masterPath})
	o.completePhase(j, progress.PhaseGeneratingPlaylists)
	return masterPath, nil
}

// cleanup removes the temp tree and, unless the caller keeps it, the
// source file. Failures here are recorded but never fatal.
func (o *Orchestrator) cleanup(j *job, sourcePath string) {
	o.startPhase(j, progress.PhaseCleanup)

	if j.cfg.CleanupTemp && j.cfg.TempDir != "" {
		if err := storage.RemoveDir(j.cfg.TempDir); err != nil {
			j.recordError(StageCleanup, j.cfg.TempDir, err.Error())
			o.bus.Publish(events.Event{Kind: events.Warning, JobID: j.id, Err: err})
		}
	}
	if !j.cfg.KeepOriginal {
		if err := os.Remove(sourcePath); err != nil && !os.IsNotExist(err) {
			j.recordError(StageCleanup, sourcePath, err.Error())
			o.bus.Publish(events.Event{Kind: events.Warning, JobID: j.id, Err: err})
		}
	}

	o.completePhase(j, progress.PhaseCleanup)
}

func (o *Orchestrator) assemble(j *job, plan *models.ProcessingPlan, paths storage.JobPaths, start time.Time, success bool, masterPath string, variants []models.VariantResult, audio []models.AudioTrackResult, subs []models.SubtitleResult) *models.ProcessingResult {
	processedSize, err := storage.DirSize(paths.Root)
	if err != nil {
		processedSize = 0
	}

	var ratio float64
	if plan.Source.Size > 0 && processedSize > 0 {
		ratio = float64(processedSize) / float64(plan.Source.Size)
	}

	j.errMu.Lock()
	errs := make([]models.ProcessingError, len(j.errs))
	copy(errs, j.errs)
	j.errMu.Unlock()

	return &models.ProcessingResult{
		Success:            success,
		VideoID:            j.id,
		MasterPlaylistPath: masterPath,
		Variants:           variants,
		AudioTracks:        audio,
		Subtitles:          subs,
		OriginalSize:       plan.Source.Size,
		ProcessedSize:      processedSize,
		CompressionRatio:   ratio,
		ProcessingTime:     time.Since(start),
		Errors:             errs,
	}
}

func (o *Orchestrator) startPhase(j *job, phase progress.Phase) {
	j.tracker.SetPhase(phase, 0)
	o.bus.Publish(events.Event{Kind: events.PhaseStarted, JobID: j.id, Phase: string(phase)})
}

func (o *Orchestrator) completePhase(j *job, phase progress.Phase) {
	j.tracker.CompletePhase(phase)
	o.bus.Publish(events.Event{Kind: events.PhaseCompleted, JobID: j.id, Phase: string(phase), Percent: 100})
}

// fail publishes the failure events for a fatal error and re-raises it.
func (o *Orchestrator) fail(j *job, phase progress.Phase, err error) error {
	o.bus.Publish(events.Event{Kind: events.PhaseFailed, JobID: j.id, Phase: string(phase), Err: err})
	o.bus.Publish(events.Event{Kind: events.JobFailed, JobID: j.id, Err: err})
	o.log.Error("job failed",
		logger.String("job_id", j.id),
		logger.String("phase", string(phase)),
		logger.Error(err),
	)
	return err
}
