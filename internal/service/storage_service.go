package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"studycollab_backend/internal/config"
	"studycollab_backend/internal/model"
	"studycollab_backend/pkg/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 定义题目图片的对象存储接口
type StorageProvider interface {
	// Scheme is the URL scheme question images stored here use, e.g. "minio".
	Scheme() string
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Scheme() string { return "local" }

// path keeps keys inside LocalPath; cleaning a rooted key drops any "..".
func (p *LocalStorageProvider) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	return filepath.Join(p.Config.LocalPath, filepath.Clean("/"+key)), nil
}

func (p *LocalStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst, err := p.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.Scheme() + "://" + key, nil
}

func (p *LocalStorageProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	src, err := p.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(src)
}


// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Scheme() string { return "minio" }

func (p *MinioStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.Scheme() + "://" + key, nil
}

func (p *MinioStorageProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := p.Client.GetObject(ctx, p.Config.MinioBucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}


// OSSStorageProvider 阿里云OSS存储实现
type OSSStorageProvider struct {
	Config *config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) Scheme() string { return "oss" }

func (p *OSSStorageProvider) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObject(key, reader, oss.ContentType(contentType), oss.WithContext(ctx)); err != nil {
		return "", err
	}
	return p.Scheme() + "://" + key, nil
}

func (p *OSSStorageProvider) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return nil, err
	}
	return bucket.GetObject(key, oss.WithContext(ctx))
}


// StorageService 按 URL scheme 分发到具体的存储实现
type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case "minio":
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Warn("MinIO storage unavailable, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	case "oss":
		p, err := NewOSSStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Warn("OSS storage unavailable, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return &StorageService{Provider: provider}
}

// Handles reports whether rawURL points into this storage backend.
func (s *StorageService) Handles(rawURL string) bool {
	return s != nil && s.Provider != nil && strings.HasPrefix(rawURL, s.Provider.Scheme()+"://")
}

// Open reads an object addressed as "<scheme>://<key>".
func (s *StorageService) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if !s.Handles(rawURL) {
		return nil, fmt.Errorf("storage: unsupported url %q", rawURL)
	}
	key := strings.TrimPrefix(rawURL, s.Provider.Scheme()+"://")
	return s.Provider.Open(ctx, key)
}

// ImportImages uploads question images referenced as file://<path> to the
// configured backend and rewrites each reference to the stored object.
// Other references are left alone. It returns how many were uploaded.
func (s *StorageService) ImportImages(ctx context.Context, qs []model.Question) (int, error) {
	n := 0
	for i := range qs {
		path, ok := strings.CutPrefix(qs[i].ImageURL, "file://")
		if !ok {
			continue
		}
		ref, err := s.importFile(ctx, qs[i].ID, path)
		if err != nil {
			return n, fmt.Errorf("import image of question %s: %w", qs[i].ID, err)
		}
		logger.Log.Debug("Question image imported", zap.String("question_id", qs[i].ID), zap.String("ref", ref))
		qs[i].ImageURL = ref
		n++
	}
	return n, nil
}

func (s *StorageService) importFile(ctx context.Context, questionID, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%s is %s, not an image", path, mtype.String())
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	name := filepath.Base(path)
	if questionID != "" {
		name = questionID + mtype.Extension()
	}
	return s.Provider.Upload(ctx, "questions/"+name, f, info.Size(), mtype.String())
}
