package publish

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	cases := map[string]Target{
		"s3://bucket":                          {Scheme: "s3", Bucket: "bucket"},
		"s3://bucket/runs/2024/":               {Scheme: "s3", Bucket: "bucket", Prefix: "runs/2024"},
		"minio://localhost:9000/data":          {Scheme: "minio", Endpoint: "localhost:9000", Bucket: "data"},
		"minio://localhost:9000/data/catrapid": {Scheme: "minio", Endpoint: "localhost:9000", Bucket: "data", Prefix: "catrapid"},
	}
	for raw, want := range cases {
		got, err := ParseTarget(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, bad := range []string{"", "file:///tmp", "s3://", "minio://host:9000", "minio:///bucket", "http://x/y"} {
		_, err := ParseTarget(bad)
		assert.Error(t, err, bad)
	}
}

func TestTarget_Key(t *testing.T) {
	assert.Equal(t, "a.tsv", Target{}.Key("a.tsv"))
	assert.Equal(t, "runs/1/a.tsv", Target{Prefix: "runs/1"}.Key("a.tsv"))
}

type fakeUploader struct {
	mu   sync.Mutex
	got  map[string]string // key -> content type
	fail string
}

func (f *fakeUploader) Upload(_ context.Context, key, _ string, ct string) error {
	if key == f.fail {
		return errors.New("access denied")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.got == nil {
		f.got = map[string]string{}
	}
	f.got[key] = ct
	return nil
}

func TestPublish(t *testing.T) {
	up := &fakeUploader{}
	tg := Target{Scheme: "s3", Bucket: "b", Prefix: "run"}
	res, err := Publish(context.Background(), up, tg,
		[]string{"/out/rnaInteractions.tsv", "/out/proteinInteractions.tsv", "/out/run_report.json"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"run/rnaInteractions.tsv", "run/proteinInteractions.tsv", "run/run_report.json"}, res.Keys)
	assert.Equal(t, "application/json", up.got["run/run_report.json"])
	assert.Equal(t, "text/tab-separated-values", up.got["run/rnaInteractions.tsv"])
}

func TestPublish_Failure(t *testing.T) {
	up := &fakeUploader{fail: "run/a.tsv"}
	_, err := Publish(context.Background(), up, Target{Scheme: "s3", Bucket: "b", Prefix: "run"}, []string{"/x/a.tsv", "/x/b.tsv"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Contains(t, err.Error(), "s3://b/run")
}

func TestNewUploader_Minio(t *testing.T) {
	up, err := NewUploader(context.Background(), Target{Scheme: "minio", Endpoint: "localhost:9000", Bucket: "b"},
		Options{Insecure: true, AccessKey: "ak", SecretKey: "sk"})
	require.NoError(t, err)
	assert.IsType(t, &minioUploader{}, up)

	_, err = NewUploader(context.Background(), Target{Scheme: "ftp"}, Options{})
	assert.Error(t, err)
}
