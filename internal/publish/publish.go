// internal/publish/publish.go
package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Uploader copies one local file to key in the target bucket.
type Uploader interface {
	Upload(ctx context.Context, key, localPath, contentType string) error
}

// Options configures the object-store clients.
type Options struct {
	Insecure  bool // plain HTTP for minio
	AccessKey string
	SecretKey string
}

// NewUploader returns the client for t's scheme.
func NewUploader(ctx context.Context, t Target, o Options) (Uploader, error) {
	switch t.Scheme {
	case "s3":
		return newS3Uploader(ctx, t, o)
	case "minio":
		return newMinioUploader(t, o)
	default:
		return nil, fmt.Errorf("publish: unsupported scheme %q", t.Scheme)
	}
}

// MaxConcurrent bounds parallel uploads.
const MaxConcurrent = 4

// Result lists what was uploaded.
type Result struct {
	Keys    []string
	Elapsed time.Duration
}

// Publish uploads files (committed local outputs) under t. Keys are
// returned in the order of files. The first failure cancels the rest.
func Publish(ctx context.Context, up Uploader, t Target, files []string, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()
	keys := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrent)
	for i, fn := range files {
		key := t.Key(filepath.Base(fn))
		keys[i] = key
		g.Go(func() error {
			if err := up.Upload(gctx, key, fn, contentType(fn)); err != nil {
				return fmt.Errorf("publish %s to %s: %w", filepath.Base(fn), t, err)
			}
			log.Debug("uploaded", zap.String("file", fn), zap.String("key", key))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{Keys: keys, Elapsed: time.Since(start)}, nil
}

func contentType(fn string) string {
	switch {
	case strings.HasSuffix(fn, ".json"):
		return "application/json"
	case strings.HasSuffix(fn, ".tsv"):
		return "text/tab-separated-values"
	default:
		return "application/octet-stream"
	}
}
