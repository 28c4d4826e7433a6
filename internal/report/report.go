package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/ericksa/legalis/internal/analysis"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// objectStore is the slice of the MinIO client the exporter uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, params url.Values) (*url.URL, error)
}

// Exporter writes analysis reports to S3 compatible storage.
type Exporter struct {
	store  objectStore
	bucket string
	prefix string
	logger *slog.Logger
}

// Export describes a stored report.
type Export struct {
	Bucket string `json:"bucket"`
	Object string `json:"object"`
	Size   int64  `json:"size"`
	URL    string `json:"url,omitempty"`
}

func NewExporter(cfg Config, logger *slog.Logger) (*Exporter, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("report bucket cannot be empty")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return newExporter(client, cfg, logger), nil
}

func newExporter(store objectStore, cfg Config, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "reports"
	}
	return &Exporter{store: store, bucket: cfg.Bucket, prefix: prefix, logger: logger}
}

// ObjectName is the key a report for id is stored under.
func (e *Exporter) ObjectName(id string) string {
	return e.prefix + "/" + id + ".json"
}

// Export uploads res as indented JSON and returns a presigned download URL
// valid for urlTTL. A zero urlTTL skips the URL.
func (e *Exporter) Export(ctx context.Context, res *analysis.Result, urlTTL time.Duration) (*Export, error) {
	if res == nil || res.ID == "" {
		return nil, errors.New("analysis has no id")
	}
	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	exists, err := e.store.BucketExists(ctx, e.bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", e.bucket, err)
	}
	if !exists {
		if err := e.store.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", e.bucket, err)
		}
	}

	object := e.ObjectName(res.ID)
	info, err := e.store.PutObject(ctx, e.bucket, object, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return nil, fmt.Errorf("upload report: %w", err)
	}

	out := &Export{Bucket: e.bucket, Object: object, Size: info.Size}
	if urlTTL > 0 {
		u, err := e.store.PresignedGetObject(ctx, e.bucket, object, urlTTL, nil)
		if err != nil {
			return nil, fmt.Errorf("presign report: %w", err)
		}
		out.URL = u.String()
	}
	e.logger.Info("report exported", "id", res.ID, "bucket", e.bucket, "object", object)
	return out, nil
}
