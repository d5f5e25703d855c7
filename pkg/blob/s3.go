package blob

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mansu/kaldb/pkg/kaldberr"
	"github.com/mansu/kaldb/pkg/log"
)

// S3Store implements Store over an AWS SDK v2 S3 client. It is the
// production blob store adapter; a bucket/region/endpoint is supplied via
// pkg/config.
type S3Store struct {
	client *s3.Client
}

// NewS3Store builds an S3Store from the process's default AWS credential
// chain, optionally pointed at a custom endpoint (for S3-compatible stores).
// When accessKeyID and secretAccessKey are both set, they override the
// default chain with a static provider; self-hosted endpoints (MinIO,
// localstack) rarely have an instance role to fall back on.
func NewS3Store(ctx context.Context, region, endpoint, accessKeyID, secretAccessKey string) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, kaldberr.NewBlobIoError("load aws config", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client}, nil
}

// Put uploads every regular file under localDir to uri/. On the first
// sub-file failure the whole operation aborts; no partial upload is left
// referenced by a caller that assumes success.
func (s *S3Store) Put(ctx context.Context, uri, localDir string) error {
	p, err := parseURI(uri)
	if err != nil {
		return kaldberr.NewBlobIoError("put", err)
	}

	logger := log.WithComponent("blob")

	return filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return kaldberr.NewBlobIoError("put:walk", err)
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return kaldberr.NewBlobIoError("put:rel", err)
		}

		key := p.key
		if key != "" && !strings.HasSuffix(key, "/") {
			key += "/"
		}
		key += filepath.ToSlash(rel)

		f, err := os.Open(path)
		if err != nil {
			return kaldberr.NewBlobIoError("put:open", err)
		}
		defer f.Close()

		logger.Debug().Str("bucket", p.bucket).Str("key", key).Msg("uploading chunk file")

		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		if err != nil {
			return kaldberr.NewBlobIoError("put:PutObject", err)
		}
		return nil
	})
}

// Exists reports whether any object lives under uri.
func (s *S3Store) Exists(ctx context.Context, uri string) (bool, error) {
	objs, err := s.List(ctx, uri, true)
	if err != nil {
		return false, err
	}
	return len(objs) > 0, nil
}

// List returns the object URIs under uri.
func (s *S3Store) List(ctx context.Context, uri string, recursive bool) ([]string, error) {
	p, err := parseURI(uri)
	if err != nil {
		return nil, kaldberr.NewBlobIoError("list", err)
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(p.key),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}

	var out []string
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, kaldberr.NewBlobIoError("list:ListObjectsV2", err)
		}
		for _, obj := range page.Contents {
			out = append(out, "s3://"+p.bucket+"/"+aws.ToString(obj.Key))
		}
	}
	return out, nil
}

// Delete removes every object under uri.
func (s *S3Store) Delete(ctx context.Context, uri string) error {
	objs, err := s.List(ctx, uri, true)
	if err != nil {
		return err
	}
	p, err := parseURI(uri)
	if err != nil {
		return kaldberr.NewBlobIoError("delete", err)
	}
	for _, obj := range objs {
		objURI, err := parseURI(obj)
		if err != nil {
			return kaldberr.NewBlobIoError("delete", err)
		}
		_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(objURI.key),
		})
		if err != nil {
			return kaldberr.NewBlobIoError("delete:DeleteObject", err)
		}
	}
	return nil
}

// CopyToLocal downloads every object under uri into dir.
func (s *S3Store) CopyToLocal(ctx context.Context, uri, dir string) error {
	p, err := parseURI(uri)
	if err != nil {
		return kaldberr.NewBlobIoError("copyToLocal", err)
	}

	objs, err := s.List(ctx, uri, true)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return kaldberr.NewBlobIoError("copyToLocal:mkdir", err)
	}

	for _, obj := range objs {
		objURI, err := parseURI(obj)
		if err != nil {
			return kaldberr.NewBlobIoError("copyToLocal", err)
		}
		rel := strings.TrimPrefix(objURI.key, p.key)
		rel = strings.TrimPrefix(rel, "/")
		dest := filepath.Join(dir, filepath.FromSlash(rel))

		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return kaldberr.NewBlobIoError("copyToLocal:mkdir", err)
		}

		resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(objURI.key),
		})
		if err != nil {
			return kaldberr.NewBlobIoError("copyToLocal:GetObject", err)
		}

		out, err := os.Create(dest)
		if err != nil {
			resp.Body.Close()
			return kaldberr.NewBlobIoError("copyToLocal:create", err)
		}

		_, copyErr := io.Copy(out, resp.Body)
		resp.Body.Close()
		out.Close()
		if copyErr != nil {
			return kaldberr.NewBlobIoError("copyToLocal:copy", copyErr)
		}
	}
	return nil
}
