// Package seed bulk-loads create params into the primary store from a local
// file or an S3 object.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// S3Options locate and authenticate against an S3 compatible store.
type S3Options struct {
	Region       string
	User         string
	Password     string
	BaseEndpoint string
}

type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// newS3Client is replaced in tests.
var newS3Client = func(ctx context.Context, opts S3Options) (objectGetter, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.User, opts.Password, "")),
	)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// ParseS3 splits "s3://bucket/key". ok is false for anything else.
func ParseS3(source string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(source, s3Scheme)
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Open returns a reader over source: an s3:// URL or a local path.
func Open(ctx context.Context, source string, opts S3Options) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, s3Scheme) {
		return os.Open(source)
	}

	bucket, key, ok := ParseS3(source)
	if !ok {
		return nil, fmt.Errorf("seed source %q: expected s3://bucket/key", source)
	}

	client, err := newS3Client(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}
