package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Client moves objects with the concurrent s3 manager.
type S3Client struct {
	client     *s3.Client
	downloader *manager.Downloader
	uploader   *manager.Uploader
}

// NewS3Client loads the default AWS credential chain. region overrides the
// chain's region when set.
func NewS3Client(ctx context.Context, region string) (*S3Client, error) {
	var opts []func(*awscfg.LoadOptions) error
	if region != "" {
		opts = append(opts, awscfg.WithRegion(region))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg)
	return &S3Client{
		client:     cli,
		downloader: manager.NewDownloader(cli),
		uploader:   manager.NewUploader(cli),
	}, nil
}

// Download writes bucket/key into w and returns the byte count.
func (s *S3Client) Download(ctx context.Context, bucket, key string, w io.WriterAt) (int64, error) {
	n, err := s.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Int64("size", n).Msg("downloaded object from S3")
	return n, nil
}

// Upload stores body at bucket/key with the given user metadata and returns
// the object's s3:// URL.
func (s *S3Client) Upload(ctx context.Context, bucket, key string, body io.Reader, contentType string, meta map[string]string) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload s3://%s/%s: %w", bucket, key, err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Msg("uploaded object to S3")
	return "s3://" + bucket + "/" + key, nil
}

// ParseS3Prefix splits s3://bucket[/prefix]. The prefix may be empty and is
// returned without surrounding slashes.
func ParseS3Prefix(s3url string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(s3url, "s3://") {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	path := strings.TrimPrefix(s3url, "s3://")
	bucket, prefix, _ = strings.Cut(path, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(s3url string) (bucket, key string, err error) {
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if !strings.HasPrefix(s3url, "s3://") || slash <= 0 || slash == len(path)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return path[:slash], path[slash+1:], nil
}
