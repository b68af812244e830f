package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hioscollector/hioscollector/internal/config"
	"github.com/hioscollector/hioscollector/pkg/logger"
)

// StorageWriter persists one configuration blob.
type StorageWriter interface {
	Write(ctx context.Context, meta StorageMeta, content string, contentType string) (StoredObject, error)
}

// StorageMeta names where a blob belongs.
type StorageMeta struct {
	DeviceName string
	DeviceHost string
	Kind       string // running | startup
	Taken      time.Time
	Backend    string // local | minio
}

// StoredObject references a written blob.
type StoredObject struct {
	Backend string `json:"backend"`
	Ref     string `json:"ref"`
	Size    int64  `json:"size"`
}

// NewStorageWriter builds a writer that routes on meta.Backend and falls
// back to local disk when MinIO is unavailable.
func NewStorageWriter(cfg *config.Config) StorageWriter {
	dw := &delegatingStorageWriter{cfg: cfg, local: &localStorageWriter{cfg: cfg}}
	dw.minio = initMinioWriter(cfg)
	return dw
}

type delegatingStorageWriter struct {
	cfg   *config.Config
	local *localStorageWriter
	minio *minioStorageWriter
}

func (w *delegatingStorageWriter) Write(ctx context.Context, meta StorageMeta, content string, contentType string) (StoredObject, error) {
	backend := strings.ToLower(strings.TrimSpace(meta.Backend))
	if backend == "" {
		backend = strings.ToLower(strings.TrimSpace(w.cfg.Backup.StorageBackend))
	}
	if backend == "minio" {
		if w.minio == nil {
			logger.Warn("MinIO backend selected but client not initialized; falling back to local")
			return w.local.Write(ctx, meta, content, contentType)
		}
		obj, err := w.minio.Write(ctx, meta, content, contentType)
		if err != nil {
			logger.Warnf("MinIO write failed, falling back to local: %v", err)
			return w.local.Write(ctx, meta, content, contentType)
		}
		return obj, nil
	}
	return w.local.Write(ctx, meta, content, contentType)
}

var slugUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func slug(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unnamed"
	}
	return slugUnsafe.ReplaceAllString(s, "_")
}

// objectPath is shared by both backends:
// <prefix>/<device>/<yyyymmdd_hhmmss>/<kind>.cfg
func (m StorageMeta) objectPath(prefix string) string {
	device := m.DeviceName
	if device == "" {
		device = m.DeviceHost
	}
	taken := m.Taken
	if taken.IsZero() {
		taken = time.Now()
	}
	parts := []string{}
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, slug(device), taken.Format("20060102_150405"), slug(m.Kind)+".cfg")
	return path.Join(parts...)
}

type localStorageWriter struct {
	cfg *config.Config
}

func (w *localStorageWriter) Write(ctx context.Context, meta StorageMeta, content string, contentType string) (StoredObject, error) {
	baseDir := strings.TrimSpace(w.cfg.Backup.Local.BaseDir)
	if baseDir == "" {
		baseDir = "./data/backups"
	}
	rel := meta.objectPath(w.cfg.Backup.Prefix)
	full := filepath.Join(baseDir, filepath.FromSlash(rel))

	if w.cfg.Backup.Local.MkdirIfMissing {
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return StoredObject{}, fmt.Errorf("failed to create backup directory: %w", err)
		}
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return StoredObject{}, fmt.Errorf("failed to write backup file: %w", err)
	}
	return StoredObject{Backend: "local", Ref: full, Size: int64(len(content))}, nil
}

type minioStorageWriter struct {
	client *minio.Client
	bucket string
	prefix string
}

func initMinioWriter(cfg *config.Config) *minioStorageWriter {
	mc := cfg.Backup.Minio
	if mc.Host == "" {
		return nil
	}
	endpoint := mc.Host
	if mc.Port > 0 {
		endpoint = fmt.Sprintf("%s:%d", mc.Host, mc.Port)
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(mc.AccessKey, mc.SecretKey, ""),
		Secure: mc.Secure,
	})
	if err != nil {
		logger.Warnf("failed to initialize MinIO client: %v", err)
		return nil
	}
	return &minioStorageWriter{client: client, bucket: mc.Bucket, prefix: cfg.Backup.Prefix}
}

func (w *minioStorageWriter) Write(ctx context.Context, meta StorageMeta, content string, contentType string) (StoredObject, error) {
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	objectName := meta.objectPath(w.prefix)
	reader := strings.NewReader(content)
	info, err := w.client.PutObject(ctx, w.bucket, objectName, reader, int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return StoredObject{}, fmt.Errorf("failed to put object %s: %w", objectName, err)
	}
	return StoredObject{Backend: "minio", Ref: path.Join(w.bucket, objectName), Size: info.Size}, nil
}
