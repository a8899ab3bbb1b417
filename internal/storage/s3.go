package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joshsymonds/tyr/pkg/logger"
)

// ObjectPutter is the part of the S3 client the sink uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ParseS3URL splits s3://bucket/key into its bucket and key. The key may be
// empty or end in a slash, in which case callers append a file name.
func ParseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing S3 URL: %w", err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("S3 URL must start with s3://, got %q", raw)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("S3 URL has no bucket: %q", raw)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// S3Sink uploads reports to one bucket under an optional key prefix.
type S3Sink struct {
	client ObjectPutter
	logger logger.Logger
	bucket string
	prefix string
}

type s3Options struct {
	client      ObjectPutter
	credentials aws.CredentialsProvider
	logger      logger.Logger
	region      string
	endpoint    string
	prefix      string
}

// S3Option configures an S3Sink.
type S3Option func(*s3Options)

// WithRegion sets the AWS region instead of resolving it from the
// environment.
func WithRegion(region string) S3Option {
	return func(o *s3Options) {
		o.region = region
	}
}

// WithEndpoint points the client at an S3-compatible endpoint such as
// LocalStack or MinIO, using path-style addressing.
func WithEndpoint(endpoint string) S3Option {
	return func(o *s3Options) {
		o.endpoint = endpoint
	}
}

// WithCredentials overrides the default credential chain.
func WithCredentials(p aws.CredentialsProvider) S3Option {
	return func(o *s3Options) {
		o.credentials = p
	}
}

// WithPrefix places every object under prefix.
func WithPrefix(prefix string) S3Option {
	return func(o *s3Options) {
		o.prefix = strings.Trim(prefix, "/")
	}
}

// WithClient uses an existing client and skips AWS config loading.
func WithClient(c ObjectPutter) S3Option {
	return func(o *s3Options) {
		o.client = c
	}
}

// WithS3Logger sets the logger.
func WithS3Logger(log logger.Logger) S3Option {
	return func(o *s3Options) {
		o.logger = log
	}
}

// NewS3Sink creates a sink for bucket. Credentials and region come from the
// standard AWS chain unless overridden.
func NewS3Sink(ctx context.Context, bucket string, opts ...S3Option) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}

	o := &s3Options{logger: logger.GetGlobalLogger()}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if o.region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(o.region))
		}
		if o.credentials != nil {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(o.credentials))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client = s3.NewFromConfig(cfg, func(so *s3.Options) {
			if o.endpoint != "" {
				so.BaseEndpoint = aws.String(o.endpoint)
				so.UsePathStyle = true
			}
		})
	}

	return &S3Sink{
		client: client,
		logger: o.logger,
		bucket: bucket,
		prefix: o.prefix,
	}, nil
}

// Put uploads data as name under the sink prefix and returns its s3:// URL.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := strings.TrimPrefix(path.Join(s.prefix, name), "/")
	if key == "" || key == "." {
		return "", fmt.Errorf("S3 object key is empty")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("uploading report to s3://%s/%s: %w", s.bucket, key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.logger.Info("Uploaded report", "location", location, "bytes", len(data))
	return location, nil
}
