package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/streadway/amqp"

	"gitlab.com/transcodeuz/hls-packager/config"
	"gitlab.com/transcodeuz/hls-packager/models"
	"gitlab.com/transcodeuz/hls-packager/pkg/events"
	"gitlab.com/transcodeuz/hls-packager/pkg/logger"
	"gitlab.com/transcodeuz/hls-packager/pkg/orchestrator"
	"gitlab.com/transcodeuz/hls-packager/pkg/progress"
	"gitlab.com/transcodeuz/hls-packager/pkg/rabbitmq"
	"gitlab.com/transcodeuz/hls-packager/tools/storage"
)

// Error codes reported with failed status updates.
const (
	Success             = "success"
	InvalidRequest      = "invalid_request"
	InternalServerError = "internal_server_error"
)

// Job is one queue delivery waiting for a worker.
type Job struct {
	data amqp.Delivery
}

// Options ...
type Options struct {
	Config    *config.Config
	Log       logger.Logger
	RabbitMQ  *rabbitmq.RabbitMQ
	Metadata  orchestrator.MetadataProvider
	Segmenter orchestrator.Segmenter
	Subtitles orchestrator.SubtitleExtractor
}

// MainI - interface containing main functions for handler
type MainI interface {
	ListenNotifications(ctx context.Context) error
}

type handlerObj struct {
	cfg       *config.Config
	log       logger.Logger
	rabbitMQ  *rabbitmq.RabbitMQ
	metadata  orchestrator.MetadataProvider
	segmenter orchestrator.Segmenter
	subtitles orchestrator.SubtitleExtractor
	jobQueue  chan Job
}

// NewHandler - returns the handler object
func NewHandler(args Options) MainI {
	return &handlerObj{
		cfg:       args.Config,
		log:       args.Log,
		rabbitMQ:  args.RabbitMQ,
		metadata:  args.Metadata,
		segmenter: args.Segmenter,
		subtitles: args.Subtitles,
		jobQueue:  make(chan Job, args.Config.PackagingWorkers),
	}
}

func (h *handlerObj) ListenNotifications(ctx context.Context) error {
	for i := 0; i < h.cfg.PackagingWorkers; i++ {
		go h.PackagingWorker(ctx, i)
	}

	h.log.Info("Started listening for packaging jobs")

	for {
		msgs, err := h.rabbitMQ.Consume()
		if err != nil {
			h.log.Error("Error while consuming messages", logger.Error(err))
			if err = h.rabbitMQ.Reconnect(); err != nil {
				return fmt.Errorf("couldn't reconnect to rabbitmq: %w", err)
			}
			time.Sleep(time.Second * 5)
			continue
		}

		for data := range msgs {
			h.jobQueue <- Job{data: data}
			data.Ack(false)
		}
		time.Sleep(time.Second * 5)
	}
}

func (h *handlerObj) PackagingWorker(ctx context.Context, id int) {
	workerId := "worker[" + strconv.Itoa(id) + "] PACKAGER"
	h.log.Info(workerId, logger.String("action", "[STARTING]"))

	for job := range h.jobQueue {
		msg := &models.PackagingJob{}
		if err := json.Unmarshal(job.data.Body, msg); err != nil {
			h.log.Error("[-] UNMARSHAL", logger.Error(err))
			continue
		}

		h.log.Info(workerId, logger.String("action", "[GET]"), logger.String("message[key]", msg.OutputKey))
		h.process(ctx, msg)
	}
}

// process runs one queue job end to end: fetch, package, upload, report.
func (h *handlerObj) process(ctx context.Context, job *models.PackagingJob) {
	status := &models.JobStatusUpdate{
		Id:        job.Id,
		Stage:     h.cfg.Stages.Analyze,
		Status:    h.cfg.Status.Pending,
		ErrorCode: Success,
	}
	h.publishStatus(status)

	localPath, err := h.fetchInput(job)
	if err != nil {
		h.failStatus(status, InternalServerError, "Error while downloading source: "+err.Error())
		return
	}

	cfg := h.jobConfig(job)
	bus := events.NewBus()
	tracker := progress.Attach(bus)

	status.Stage = h.cfg.Stages.Package
	bus.Subscribe(events.PhaseCompleted, func(e events.Event) {
		snap := tracker.Snapshot()
		update := *status
		update.Percent = snap.Global
		h.publishStatus(&update)
	})

	orch := orchestrator.New(orchestrator.Options{
		Log:          h.log,
		Metadata:     h.metadata,
		Segmenter:    h.segmenter,
		Subtitles:    h.subtitles,
		Bus:          bus,
		ProbeTimeout: time.Duration(h.cfg.ProbeTimeout) * time.Second,
	})

	start := time.Now()
	result, err := orch.Process(ctx, localPath, cfg)
	if err != nil {
		code := InternalServerError
		if errors.Is(err, models.ErrNoVideoStream) || errors.Is(err, models.ErrSourceNotFound) {
			code = InvalidRequest
		}
		h.failStatus(status, code, "Error while packaging video: "+err.Error())
		h.log.Error("[-] PACKAGE", logger.Error(err), logger.String("key", job.OutputKey))
		return
	}

	status.Percent = 100
	status.VideoDuration = result.ProcessingTime.Seconds()
	status.Errors = result.Errors
	status.DurationMs = int(time.Since(start).Milliseconds())
	if result.Success {
		status.Status = h.cfg.Status.Success
	} else {
		status.Status = h.cfg.Status.Fail
		status.ErrorCode = InternalServerError
	}
	h.publishStatus(status)
	h.log.Info("[+] PACKAGE", logger.String("master", result.MasterPlaylistPath), logger.Bool("success", result.Success))

	if job.CdnType != "" {
		h.upload(job, result)
	}
}

func (h *handlerObj) fetchInput(job *models.PackagingJob) (string, error) {
	if err := os.MkdirAll(h.cfg.TempInputPath, 0755); err != nil {
		return "", err
	}
	localPath := filepath.Join(h.cfg.TempInputPath, filepath.Base(job.InputURI))
	if err := storage.DownloadWithWget(job.InputURI, localPath); err != nil {
		h.log.Error("[-] DOWNLOAD VIDEO", logger.Error(err), logger.String("input", job.InputURI))
		return "", err
	}
	h.log.Info("[+] DOWNLOAD VIDEO", logger.String("path", localPath))
	return localPath, nil
}

// jobConfig merges the per-job options over the service defaults.
func (h *handlerObj) jobConfig(job *models.PackagingJob) models.ProcessingConfig {
	cfg := job.Config
	if cfg.OutputBaseDir == "" {
		cfg.OutputBaseDir = h.cfg.OutputBaseDir
	}
	if cfg.SegmentDuration <= 0 {
		cfg.SegmentDuration = h.cfg.SegmentDuration
	}
	cfg.Normalize()
	return cfg
}

func (h *handlerObj) upload(job *models.PackagingJob, result *models.ProcessingResult) {
	status := &models.JobStatusUpdate{
		Id:        job.Id,
		Stage:     h.cfg.Stages.Upload,
		Status:    h.cfg.Status.Pending,
		ErrorCode: Success,
	}
	h.publishStatus(status)

	packageDir := filepath.Dir(result.MasterPlaylistPath)
	defer func() {
		if err := storage.RemoveDir(packageDir); err != nil {
			h.log.Error("[-] STORAGE: Couldn't delete folder from server", logger.Error(err))
		}
	}()

	uploader, err := storage.NewCloudStorage(models.CloudStorageConfig{
		Endpoint:  job.CdnUrl,
		AccessKey: job.CdnAccessKey,
		SecretKey: job.CdnSecretKey,
		Region:    job.CdnRegion,
		Bucket:    job.CdnBucket,
		Type:      job.CdnType,
	}, h.log)
	if err != nil {
		h.failStatus(status, InvalidRequest, "Error while connecting to Cloud: "+err.Error())
		return
	}

	start := time.Now()
	if err := uploader.UploadTree(packageDir, job.OutputKey); err != nil {
		h.failStatus(status, InvalidRequest, "Error while uploading to Cloud: "+err.Error())
		return
	}

	status.Status = h.cfg.Status.Success
	status.Percent = 100
	status.DurationMs = int(time.Since(start).Milliseconds())
	h.publishStatus(status)
	h.log.Info("[UPLOADED] SUCCESS", logger.String("key", job.OutputKey))
}

func (h *handlerObj) failStatus(status *models.JobStatusUpdate, code, description string) {
	status.Status = h.cfg.Status.Fail
	status.ErrorCode = code
	status.FailDescription = description
	h.publishStatus(status)
}

func (h *handlerObj) publishStatus(status *models.JobStatusUpdate) {
	if err := h.rabbitMQ.PublishJobStatus(status); err != nil {
		h.log.Error("Error while publishing to rabbit mq.", logger.Error(err))
	}
}
