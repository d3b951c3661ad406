package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config configures artifact publishing.
type S3Config struct {
	Bucket string
	Prefix string
	Region string
}

// ObjectPutter is the part of the S3 client the publisher uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads report artifacts to s3://bucket/prefix/<run id>/<file>.
type S3Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Publisher loads the default AWS configuration and prepares a publisher.
func NewS3Publisher(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewS3PublisherWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix, logger), nil
}

// NewS3PublisherWithClient builds a publisher around an existing client.
func NewS3PublisherWithClient(client ObjectPutter, bucket, prefix string, logger *slog.Logger) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: orDiscard(logger),
	}
}

// Publish uploads every artifact and returns their s3:// URIs in order.
// It stops at the first failed upload.
func (p *S3Publisher) Publish(ctx context.Context, runID string, artifacts []Artifact) ([]string, error) {
	uris := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		uri, err := p.upload(ctx, runID, a)
		if err != nil {
			return uris, fmt.Errorf("publishing %s report: %w", a.Name, err)
		}
		p.logger.Info("report published", "artifact", a.Name, "uri", uri)
		uris = append(uris, uri)
	}
	return uris, nil
}

func (p *S3Publisher) upload(ctx context.Context, runID string, a Artifact) (string, error) {
	key := p.objectKey(runID, filepath.Base(a.Path))
	file, err := os.Open(a.Path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	input := &s3.PutObjectInput{
		Bucket: &p.bucket,
		Key:    &key,
		Body:   file,
	}
	if a.ContentType != "" {
		input.ContentType = ptr(a.ContentType)
	}
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, key), nil
}

func (p *S3Publisher) objectKey(parts ...string) string {
	if p.prefix == "" {
		return path.Join(parts...)
	}
	return path.Join(append([]string{p.prefix}, parts...)...)
}

func ptr[T any](v T) *T {
	return &v
}
