package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// DocumentStorage keeps tutor credential documents in object storage.
type DocumentStorage interface {
	UploadDocument(ctx context.Context, r io.Reader, fileName, contentType string) (string, error)
	DeleteDocument(ctx context.Context, key string) error
}

// objectAPI is the part of *s3.Client used here.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

type s3Storage struct {
	client objectAPI
	bucket string
}

// NewS3Storage builds a client for AWS S3 or any S3-compatible endpoint such
// as MinIO. Static credentials are used when AccessKey is set, otherwise the
// default AWS credential chain applies.
func NewS3Storage(ctx context.Context, cfg S3Config) (DocumentStorage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Storage(client, cfg.Bucket), nil
}

func newS3Storage(client objectAPI, bucket string) *s3Storage {
	return &s3Storage{client: client, bucket: bucket}
}

// DocumentKey returns a unique object key under credentials/<yyyy>/<mm>/.
func DocumentKey(fileName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("credentials/%04d/%02d/%s%s", now.Year(), now.Month(), uuid.NewString(), ext)
}

func (s *s3Storage) UploadDocument(ctx context.Context, r io.Reader, fileName, contentType string) (string, error) {
	key := DocumentKey(fileName, time.Now())
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document to s3: %w", err)
	}

	return key, nil
}

func (s *s3Storage) DeleteDocument(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete document from s3: %w", err)
	}
	return nil
}
