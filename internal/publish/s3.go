// internal/publish/s3.go
package publish

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3Uploader struct {
	up     *manager.Uploader
	bucket string
}

func newS3Uploader(ctx context.Context, t Target, o Options) (*s3Uploader, error) {
	var loadOpts []func(*config.LoadOptions) error
	if o.AccessKey != "" {
		static := aws.Credentials{AccessKeyID: o.AccessKey, SecretAccessKey: o.SecretKey, Source: "catrapid config"}
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.NewCredentialsCache(
			aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) { return static, nil }),
		)))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg)
	up := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 16 * 1024 * 1024
		u.Concurrency = 5
	})
	return &s3Uploader{up: up, bucket: t.Bucket}, nil
}

func (s *s3Uploader) Upload(ctx context.Context, key, localPath, contentType string) error {
	fh, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer fh.Close()
	_, err = s.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        fh,
		ContentType: aws.String(contentType),
	})
	return err
}
