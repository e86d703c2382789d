package data

import (
	"context"
	"fmt"

	"github.com/lk2023060901/rrdump/internal/dump/biz"
	"github.com/lk2023060901/rrdump/internal/pkg/logger"
	pkgminio "github.com/lk2023060901/rrdump/internal/pkg/minio"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// minioArchiver 把已提交的导出文件上传到对象存储
type minioArchiver struct {
	client *pkgminio.Client
	fs     afero.Fs
	bucket string
	prefix string
	logger *logger.Logger
}

// NewMinIOArchiver 创建归档器, 对象键为 <prefix>/<文件名>
func NewMinIOArchiver(client *pkgminio.Client, fs afero.Fs, bucket, prefix string, log *logger.Logger) biz.Archiver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &minioArchiver{
		client: client,
		fs:     fs,
		bucket: bucket,
		prefix: prefix,
		logger: log.Named("archive"),
	}
}

// Archive 上传 path 并返回 bucket/key
func (a *minioArchiver) Archive(ctx context.Context, path string) (string, error) {
	if err := a.client.EnsureBucket(ctx, a.bucket); err != nil {
		return "", err
	}

	file, err := a.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open dump file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat dump file: %w", err)
	}

	key := pkgminio.GenerateObjectKey(path, a.prefix)
	info, err := a.client.PutObject(ctx, a.bucket, key, file, stat.Size(), pkgminio.PutObjectOptions{
		ContentType: pkgminio.DetectContentType(path),
		UserMetadata: map[string]string{
			"rrdump-run-id": logger.GetRunID(ctx),
		},
	})
	if err != nil {
		return "", err
	}

	a.logger.WithContext(ctx).Info("dump archived",
		zap.String("bucket", info.Bucket),
		zap.String("object", info.Key),
		zap.Int64("size", info.Size),
	)
	return a.bucket + "/" + key, nil
}
