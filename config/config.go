package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config is the process-wide service configuration, loaded from the
// environment. Per-job packaging options arrive with the job message and
// override nothing here.
type Config struct {
	LogLevel string

	RabbitMqHost     string
	RabbitMqPort     string
	RabbitMqUser     string
	RabbitMqPassword string
	ListenQueue      string
	WriteQueue       string

	PackagingWorkers int

	OutputBaseDir string
	TempInputPath string

	FFmpeg       string
	FFprobe      string
	ProbeTimeout int // seconds

	SegmentDuration    int
	Parallel           bool
	ExtractAudioTracks bool
	ExtractSubtitles   bool
	CleanupTemp        bool

	Stages struct {
		Analyze string
		Package string
		Upload  string
	}
	Status struct {
		Pending string
		Success string
		Fail    string
	}
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Could not load the .env file")
	}

	c := Config{}
	c.LogLevel = cast.ToString(getOrReturnDefault("LOG_LEVEL", "debug"))

	c.RabbitMqHost = cast.ToString(getOrReturnDefault("RABBITMQ_HOST", "localhost"))
	c.RabbitMqPort = cast.ToString(getOrReturnDefault("RABBITMQ_PORT", "5672"))
	c.RabbitMqUser = cast.ToString(getOrReturnDefault("RABBITMQ_USER", "user"))
	c.RabbitMqPassword = cast.ToString(getOrReturnDefault("RABBITMQ_PASSWORD", "secret"))

	c.ListenQueue = cast.ToString(getOrReturnDefault("LISTEN_QUEUE", "packaging_jobs"))
	c.WriteQueue = cast.ToString(getOrReturnDefault("WRITE_QUEUE", "packaging_status"))

	c.PackagingWorkers = cast.ToInt(getOrReturnDefault("PACKAGING_WORKERS", 1))

	c.OutputBaseDir = cast.ToString(getOrReturnDefault("OUTPUT_BASE_DIR", "packages"))
	c.TempInputPath = cast.ToString(getOrReturnDefault("TEMP_INPUT_PATH", "package-input"))

	c.FFmpeg = cast.ToString(getOrReturnDefault("FFMPEG", "ffmpeg"))
	c.FFprobe = cast.ToString(getOrReturnDefault("FFPROBE", "ffprobe"))
	c.ProbeTimeout = cast.ToInt(getOrReturnDefault("PROBE_TIMEOUT", 30))

	c.SegmentDuration = cast.ToInt(getOrReturnDefault("SEGMENT_DURATION", 6))
	c.Parallel = cast.ToBool(getOrReturnDefault("PARALLEL_VARIANTS", false))
	c.ExtractAudioTracks = cast.ToBool(getOrReturnDefault("EXTRACT_AUDIO_TRACKS", true))
	c.ExtractSubtitles = cast.ToBool(getOrReturnDefault("EXTRACT_SUBTITLES", true))
	c.CleanupTemp = cast.ToBool(getOrReturnDefault("CLEANUP_TEMP", true))

	c.Stages = struct {
		Analyze string
		Package string
		Upload  string
	}{
		Analyze: "analyze",
		Package: "package",
		Upload:  "upload",
	}

	c.Status = struct {
		Pending string
		Success string
		Fail    string
	}{
		Pending: "pending",
		Success: "success",
		Fail:    "fail",
	}

	return c
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	if _, exists := os.LookupEnv(key); exists {
		return os.Getenv(key)
	}
	return defaultValue
}
