// internal/publish/target.go
package publish

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Target is a parsed --publish URL.
//
//	s3://bucket/prefix               AWS S3, default credential chain
//	minio://host:port/bucket/prefix  any S3-compatible endpoint
type Target struct {
	Scheme   string // "s3" or "minio"
	Endpoint string // minio only
	Bucket   string
	Prefix   string // no leading or trailing slash
}

// ParseTarget validates raw and splits it into its parts.
func ParseTarget(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("invalid publish URL %q: %w", raw, err)
	}
	p := strings.Trim(u.Path, "/")
	switch u.Scheme {
	case "s3":
		if u.Host == "" {
			return Target{}, fmt.Errorf("invalid publish URL %q: missing bucket", raw)
		}
		return Target{Scheme: "s3", Bucket: u.Host, Prefix: p}, nil
	case "minio":
		if u.Host == "" {
			return Target{}, fmt.Errorf("invalid publish URL %q: missing endpoint", raw)
		}
		bucket, prefix, _ := strings.Cut(p, "/")
		if bucket == "" {
			return Target{}, fmt.Errorf("invalid publish URL %q: missing bucket", raw)
		}
		return Target{Scheme: "minio", Endpoint: u.Host, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
	default:
		return Target{}, fmt.Errorf("invalid publish URL %q: scheme must be s3 or minio", raw)
	}
}

// Key returns the object key for a local file name.
func (t Target) Key(name string) string {
	if t.Prefix == "" {
		return name
	}
	return path.Join(t.Prefix, name)
}

func (t Target) String() string {
	if t.Scheme == "minio" {
		return "minio://" + t.Endpoint + "/" + t.Bucket + "/" + t.Prefix
	}
	return "s3://" + t.Bucket + "/" + t.Prefix
}
