package blob

import (
	"fmt"
	"strings"
)

// parsed is a bucket+key pair parsed out of an "s3://bucket/key/..." URI.
type parsed struct {
	bucket string
	key    string
}

func parseURI(uri string) (parsed, error) {
	const scheme = "s3://"
	if !strings.HasPrefix(uri, scheme) {
		return parsed{}, fmt.Errorf("blob: uri %q must begin with %s", uri, scheme)
	}
	rest := strings.TrimPrefix(uri, scheme)
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return parsed{}, fmt.Errorf("blob: uri %q is missing a bucket", uri)
	}
	p := parsed{bucket: parts[0]}
	if len(parts) == 2 {
		p.key = parts[1]
	}
	return p, nil
}

func (p parsed) withPrefix(prefix string) string {
	key := p.key
	if key != "" && !strings.HasSuffix(key, "/") {
		key += "/"
	}
	return fmt.Sprintf("s3://%s/%s%s", p.bucket, key, prefix)
}
