// Package publish uploads rendered tables to an S3-compatible bucket.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	Region    string
	UseSSL    bool
	AccessKey string
	SecretKey string
}

// Publisher uploads files under <prefix>/<dataset>/run=<runID>/.
type Publisher struct {
	client *minio.Client
	cfg    Config
	runID  string
}

// New creates a Publisher with a fresh run id. Endpoint may be a host:port
// or a URL; an https scheme turns SSL on.
func New(cfg Config) (*Publisher, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("publish: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("publish: bucket is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("publish: credentials are required")
	}

	endpoint, useSSL := cfg.Endpoint, cfg.UseSSL
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("publish: failed to create minio client: %w", err)
	}
	return &Publisher{client: client, cfg: cfg, runID: uuid.NewString()}, nil
}

// RunID identifies the uploads of this Publisher.
func (p *Publisher) RunID() string { return p.runID }

// EnsureBucket creates the bucket when it does not exist yet.
func (p *Publisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("publish: bucket %s: %w", p.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	err = p.client.MakeBucket(ctx, p.cfg.Bucket, minio.MakeBucketOptions{Region: p.cfg.Region})
	if err != nil {
		return fmt.Errorf("publish: create bucket %s: %w", p.cfg.Bucket, err)
	}
	return nil
}

// Upload puts each file of dataset into the bucket and returns the object
// keys in the order of paths.
func (p *Publisher) Upload(ctx context.Context, dataset string, paths []string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, f := range paths {
		key := ObjectKey(p.cfg.Prefix, dataset, p.runID, f)
		_, err := p.client.FPutObject(ctx, p.cfg.Bucket, key, f, minio.PutObjectOptions{
			ContentType: ContentType(f),
		})
		if err != nil {
			return keys, fmt.Errorf("upload %s: %w", f, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// ObjectKey builds <prefix>/<dataset>/run=<runID>/<base name of file>.
// Empty segments are dropped.
func ObjectKey(prefix, dataset, runID, file string) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{strings.Trim(prefix, "/"), dataset, "run=" + runID, filepath.Base(file)} {
		if s != "" && s != "run=" {
			parts = append(parts, s)
		}
	}
	return path.Join(parts...)
}

// ContentType picks the upload content type from the file extension.
func ContentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".txt":
		return "text/tab-separated-values; charset=utf-8"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".parquet":
		return "application/vnd.apache.parquet"
	}
	return "application/octet-stream"
}
