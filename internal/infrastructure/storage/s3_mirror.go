package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"jan-server/services/quadchart-api/internal/config"
)

var errMirrorDisabled = errors.New("template mirror is not configured; set TEMPLATE_S3_* to enable")

// S3Mirror copies managed template files to an S3-compatible bucket.
type S3Mirror struct {
	bucket   string
	prefix   string
	client   *s3.Client
	log      zerolog.Logger
	disabled bool
}

func NewS3Mirror(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*S3Mirror, error) {
	logger := log.With().Str("component", "s3-template-mirror").Logger()
	mirror := &S3Mirror{
		bucket: strings.TrimSpace(cfg.S3Bucket),
		prefix: cfg.S3KeyPrefix,
		log:    logger,
	}

	if mirror.bucket == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretKey == "" {
		logger.Info().Msg("TEMPLATE_S3_BUCKET or credentials are not set; template mirroring disabled")
		mirror.disabled = true
		return mirror, nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.S3Endpoint != "" {
			return aws.Endpoint{
				URL:           cfg.S3Endpoint,
				PartitionID:   "aws",
				SigningRegion: cfg.S3Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	mirror.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
	})
	logger.Info().Str("bucket", mirror.bucket).Str("prefix", mirror.prefix).Msg("template mirror enabled")
	return mirror, nil
}

// Enabled reports whether uploads reach a bucket.
func (m *S3Mirror) Enabled() bool {
	return m != nil && !m.disabled
}

func (m *S3Mirror) key(name string) string {
	return m.prefix + name
}

// Upload pushes a local file under name.
func (m *S3Mirror) Upload(ctx context.Context, name, path string) error {
	if !m.Enabled() {
		return errMirrorDisabled
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(path); err == nil {
		contentType = mt.String()
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.key(name)),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	return err
}

func (m *S3Mirror) Delete(ctx context.Context, name string) error {
	if !m.Enabled() {
		return errMirrorDisabled
	}
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.key(name)),
	})
	return err
}

// Health performs a HeadBucket request.
func (m *S3Mirror) Health(ctx context.Context) error {
	if !m.Enabled() {
		return nil
	}
	_, err := m.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(m.bucket)})
	return err
}
