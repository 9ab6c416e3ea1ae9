// internal/publish/minio.go
package publish

import (
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioUploader struct {
	client *minio.Client
	bucket string
}

func newMinioUploader(t Target, o Options) (*minioUploader, error) {
	creds := credentials.NewEnvAWS()
	if o.AccessKey != "" {
		creds = credentials.NewStaticV4(o.AccessKey, o.SecretKey, "")
	}
	client, err := minio.New(t.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: !o.Insecure,
	})
	if err != nil {
		return nil, err
	}
	return &minioUploader{client: client, bucket: t.Bucket}, nil
}

func (m *minioUploader) Upload(ctx context.Context, key, localPath, contentType string) error {
	_, err := m.client.FPutObject(ctx, m.bucket, key, localPath, minio.PutObjectOptions{ContentType: contentType})
	return err
}
