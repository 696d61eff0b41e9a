package storage

import (
	"context"
	"path/filepath"

	"github.com/minio/minio-go/v7"

	"gitlab.com/transcodeuz/hls-packager/pkg/logger"
)

type minioStorage struct {
	client *minio.Client
	bucket string
	log    logger.Logger
}

// UploadTree walks localDir recursively and uploads every file under
// keyPrefix, preserving the relative layout.
func (s *minioStorage) UploadTree(localDir, keyPrefix string) error {
	s.log.Info("[UPLOADING] to minio",
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

	for path := range walker {
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		ct, err := contentType(path)
		if err != nil {
			return err
		}
		_, err = s.client.FPutObject(
			context.Background(),
			s.bucket,
			filepath.Join(keyPrefix, rel),
			path,
			minio.PutObjectOptions{ContentType: ct},
		)
		if err != nil {
			s.log.Error("upload failed", logger.String("path", path), logger.Error(err))
			return err
		}
	}

	return nil
}
