package models

// PackagingJob is the message consumed from the job queue.
type PackagingJob struct {
	Id           string           `json:"id"`
	InputURI     string           `json:"input_uri"`
	OutputKey    string           `json:"output_key"`
	CdnUrl       string           `json:"cdn_url"`
	CdnAccessKey string           `json:"cdn_access_key"`
	CdnSecretKey string           `json:"cdn_secret_key"`
	CdnRegion    string           `json:"cdn_region"`
	CdnBucket    string           `json:"cdn_bucket"`
	CdnType      string           `json:"cdn_type"`
	Config       ProcessingConfig `json:"config"`
}

// JobStatusUpdate is published to the status queue after every stage
// transition and periodically while a stage is running.
type JobStatusUpdate struct {
	Id              string            `json:"id"`
	Stage           string            `json:"stage"`
	Status          string            `json:"status"`
	Percent         float64           `json:"percent"`
	VideoDuration   float64           `json:"video_duration"`
	Resolutions     []Resolution      `json:"resolutions,omitempty"`
	Errors          []ProcessingError `json:"errors,omitempty"`
	FailDescription string            `json:"fail_description,omitempty"`
	ErrorCode       string            `json:"error_code,omitempty"`
	DurationMs      int               `json:"duration_ms"` // milliseconds
}

// CloudStorageConfig carries the per-job CDN credentials.
type CloudStorageConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	Type      string `json:"type"`
}
