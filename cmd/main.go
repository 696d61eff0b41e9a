package main

import (
	"context"

	"gitlab.com/transcodeuz/hls-packager/config"
	"gitlab.com/transcodeuz/hls-packager/pkg/handler"
	"gitlab.com/transcodeuz/hls-packager/pkg/logger"
	"gitlab.com/transcodeuz/hls-packager/pkg/rabbitmq"
	"gitlab.com/transcodeuz/hls-packager/tools/ffmpeg"
	"gitlab.com/transcodeuz/hls-packager/tools/ffprobe"
	"gitlab.com/transcodeuz/hls-packager/tools/subtitle"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, "hls_packager_service")

	log.Info("new configuration and logger is setup...")

	rbMQ, err := rabbitmq.New(&cfg, log)
	if err != nil {
		log.Error("Error while creating rabbitMq object...", logger.Error(err))
		return
	}
	defer rbMQ.Channel.Close()

	prober := ffprobe.New(cfg.FFprobe, log)
	segmenter := ffmpeg.New(cfg.FFmpeg, log)
	extractor := subtitle.NewExtractor(cfg.FFmpeg, prober, true, log)
	log.Info("media collaborators are created...")

	handlerObj := handler.NewHandler(handler.Options{
		Config:    &cfg,
		Log:       log,
		RabbitMQ:  rbMQ,
		Metadata:  prober,
		Segmenter: segmenter,
		Subtitles: extractor,
	})

	if err := handlerObj.ListenNotifications(context.Background()); err != nil {
		log.Error("listener stopped", logger.Error(err))
	}
}
