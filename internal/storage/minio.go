package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"

	"resume-converter/internal/config"
	"resume-converter/internal/logger"
)

// objectClient MinIO 客户端中被镜像用到的部分
type objectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

var _ objectClient = (*minio.Client)(nil)

// MinIOMirror 把一次运行的产物复制到对象存储
// 只写不读，键为 <run-id>/<文件名>。
type MinIOMirror struct {
	client     objectClient
	bucket     string
	location   string
	expireDays int
	logger     zerolog.Logger
}

// MirrorOption 镜像配置选项
type MirrorOption func(*MinIOMirror)

// WithMirrorLogger 设置日志
func WithMirrorLogger(l zerolog.Logger) MirrorOption {
	return func(m *MinIOMirror) {
		m.logger = l
	}
}

// NewMinIOMirror 按配置创建镜像；未启用时返回 nil, nil
func NewMinIOMirror(cfg config.MinIOConfig, opts ...MirrorOption) (*MinIOMirror, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("MinIO endpoint 不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}
	return newMirror(client, cfg, opts...), nil
}

func newMirror(client objectClient, cfg config.MinIOConfig, opts ...MirrorOption) *MinIOMirror {
	bucket := cfg.BucketName
	if bucket == "" {
		bucket = config.DefaultMinIOBucket
	}
	m := &MinIOMirror{
		client:     client,
		bucket:     bucket,
		location:   cfg.Location,
		expireDays: cfg.ExpireDays,
		logger:     logger.Component("minio"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Bucket 目标存储桶
func (m *MinIOMirror) Bucket() string {
	return m.bucket
}

// EnsureBucket 确保存储桶存在，配置了过期天数时设置生命周期规则
func (m *MinIOMirror) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", m.bucket, err)
	}
	if !exists {
		m.logger.Info().Str("bucket", m.bucket).Str("location", m.location).Msg("存储桶不存在，开始创建")
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.location}); err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", m.bucket, err)
		}
	}

	if m.expireDays > 0 {
		lc := lifecycle.NewConfiguration()
		lc.Rules = []lifecycle.Rule{
			{
				ID:     "expire-run-artifacts",
				Status: "Enabled",
				Expiration: lifecycle.Expiration{
					Days: lifecycle.ExpirationDays(m.expireDays),
				},
			},
		}
		// 生命周期失败不影响上传
		if err := m.client.SetBucketLifecycle(ctx, m.bucket, lc); err != nil {
			m.logger.Warn().Err(err).Str("bucket", m.bucket).Msg("设置生命周期规则失败")
		}
	}
	return nil
}

// Upload 上传本地文件，返回成功上传的对象键
// 单个文件失败不会中断其余文件，所有错误合并返回。
func (m *MinIOMirror) Upload(ctx context.Context, runID string, paths ...string) ([]string, error) {
	if err := m.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	var (
		keys []string
		errs []error
	)
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			errs = append(errs, fmt.Errorf("产物 %s 不可读: %w", p, err))
			continue
		}
		key := ObjectKey(runID, p)
		info, err := m.client.FPutObject(ctx, m.bucket, key, p, minio.PutObjectOptions{ContentType: contentTypeFor(p)})
		if err != nil {
			errs = append(errs, fmt.Errorf("上传对象 %s/%s 失败: %w", m.bucket, key, err))
			continue
		}
		m.logger.Debug().Str("bucket", m.bucket).Str("key", key).Int64("size", info.Size).Msg("产物已上传")
		keys = append(keys, key)
	}
	return keys, errors.Join(errs...)
}

// ObjectKey 产物在存储桶中的键
func ObjectKey(runID, filePath string) string {
	return path.Join(runID, filepath.Base(filePath))
}

func contentTypeFor(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		return "application/json"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
