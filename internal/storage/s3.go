// Package storage keeps user avatars in S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/contacts-api/internal/config"
)

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Avatars uploads avatar images to one bucket and returns their public URL.
type S3Avatars struct {
	client    putter
	bucket    string
	publicURL string
}

// NewS3Avatars builds the client from static credentials, the way MinIO is
// usually run.  Path-style addressing keeps the bucket out of the hostname.
func NewS3Avatars(ctx context.Context, cfg config.StorageConfig) (*S3Avatars, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return newS3Avatars(client, cfg), nil
}

func newS3Avatars(client putter, cfg config.StorageConfig) *S3Avatars {
	public := strings.TrimRight(cfg.PublicURL, "/")
	if public == "" {
		public = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &S3Avatars{client: client, bucket: cfg.Bucket, publicURL: public}
}

// AvatarKey returns a fresh object key for userID.  Every upload gets a new
// key so browsers and CDNs never serve a stale image.
func AvatarKey(userID uint64) string {
	return fmt.Sprintf("users/%d/%s", userID, uuid.NewString())
}

// Upload stores body under key and returns the URL it is served from.
func (s *S3Avatars) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}
