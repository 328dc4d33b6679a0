package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrShareNotFound is returned when no share blob exists for a user.
var ErrShareNotFound = errors.New("share not found")

// S3Config carries the settings for an S3-compatible backend. Endpoint may
// point at MinIO or another compatible service; path style is always used so
// local deployments work without wildcard DNS.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// S3Store keeps each user's encrypted share as a single object.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds a store against an S3-compatible backend.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Store{client: client, bucket: cfg.Bucket}, nil
}

func shareKey(userID string) string {
	return "shares/" + userID
}

// PutShare uploads the encrypted share blob, replacing any previous one.
func (s *S3Store) PutShare(ctx context.Context, userID string, share []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(shareKey(userID)),
		Body:   bytes.NewReader(share),
	})
	if err != nil {
		return fmt.Errorf("failed to store share: %w", err)
	}
	return nil
}

// GetShare downloads a user's encrypted share blob.
func (s *S3Store) GetShare(ctx context.Context, userID string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(shareKey(userID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("failed to fetch share: %w", err)
	}
	defer out.Body.Close()

	share, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read share: %w", err)
	}
	return share, nil
}

// DeleteShare removes a user's share blob. Deleting a missing share is not
// an error.
func (s *S3Store) DeleteShare(ctx context.Context, userID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(shareKey(userID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}
	return nil
}
