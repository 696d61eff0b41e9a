package storage

import (
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"gitlab.com/transcodeuz/hls-packager/pkg/logger"
)

const uploadRetries = 5

type s3Storage struct {
	session *session.Session
	bucket  string
	log     logger.Logger
}

// UploadTree walks localDir recursively and uploads every file under
// keyPrefix. Individual uploads are retried a few times before the whole
// tree upload is abandoned.
func (s *s3Storage) UploadTree(localDir, keyPrefix string) error {
	s.log.Info("[UPLOADING] to s3",
		logger.String("dir", localDir),
		logger.String("prefix", keyPrefix),
	)

	walker := make(fileWalk)
	go func() {
		defer close(walker)
		if err := filepath.Walk(localDir, walker.Walk); err != nil {
			s.log.Error("walk failed", logger.Error(err))
		}
	}()

	uploader := s3manager.NewUploader(s.session)
	for path := range walker {
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		if err := s.uploadFile(uploader, path, filepath.Join(keyPrefix, rel)); err != nil {
			s.log.Error("upload failed", logger.String("path", path), logger.Error(err))
			return err
		}
	}

	return nil
}

func (s *s3Storage) uploadFile(uploader *s3manager.Uploader, path, key string) error {
	var lastErr error
	for attempt := 0; attempt < uploadRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(5 * time.Second)
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		_, lastErr = uploader.Upload(&s3manager.UploadInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   file,
		})
		file.Close()

		if lastErr == nil {
			return nil
		}
	}
	return lastErr
}
