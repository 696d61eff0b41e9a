package storage

import (
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/minio/minio-go/v7"
	minioCredentials "github.com/minio/minio-go/v7/pkg/credentials"

	"gitlab.com/transcodeuz/hls-packager/models"
	"gitlab.com/transcodeuz/hls-packager/pkg/logger"
)

// Uploader pushes a finished package directory to a CDN bucket.
type Uploader interface {
	UploadTree(localDir, keyPrefix string) error
}

// NewCloudStorage picks the uploader matching the per-job CDN type.
func NewCloudStorage(cfg models.CloudStorageConfig, log logger.Logger) (Uploader, error) {
	switch cfg.Type {
	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  minioCredentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: true,
		})
		if err != nil {
			return nil, fmt.Errorf("creating minio client: %w", err)
		}
		return &minioStorage{client: client, bucket: cfg.Bucket, log: log}, nil

	case "s3":
		awsCfg := &aws.Config{
			Region:      aws.String(cfg.Region),
			Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		}
		if cfg.Endpoint != "" {
			awsCfg.Endpoint = aws.String(cfg.Endpoint)
		}
		sess, err := session.NewSession(awsCfg)
		if err != nil {
			return nil, fmt.Errorf("creating aws session: %w", err)
		}
		return &s3Storage{session: sess, bucket: cfg.Bucket, log: log}, nil
	}

	return nil, fmt.Errorf("unknown cdn storage type %q", cfg.Type)
}

// fileWalk streams the files of a directory tree.
type fileWalk chan string

func (f fileWalk) Walk(path string, info os.FileInfo, err error) error {
	if err != nil {
		return err
	}
	if !info.IsDir() {
		f <- path
	}
	return nil
}

// contentType sniffs the first 512 bytes of a file.
func contentType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buffer := make([]byte, 512)
	if _, err := f.Read(buffer); err != nil {
		return "", err
	}
	return http.DetectContentType(buffer), nil
}
