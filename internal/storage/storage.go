package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/agilescientific/kosu/internal/logger"
)

// ErrNoBucket is returned when an upload is requested without a bucket.
var ErrNoBucket = errors.New("no s3-bucket specified")

// Uploader puts a local file into a bucket under key with public-read access.
type Uploader interface {
	Upload(ctx context.Context, path, bucket, key string) error
}

// PublicURL returns the public address of key in bucket.
func PublicURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, strings.TrimPrefix(key, "/"))
}

// putObjectAPI is the part of the S3 client the uploader uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader uploads through the AWS SDK. The client is created lazily so
// commands that never upload do not need credentials.
type S3Uploader struct {
	client  putObjectAPI
	options []func(*s3.Options)
}

// NewS3Uploader returns an uploader configured from the environment on first
// use. optFns adjust the S3 client, e.g. to target another endpoint.
func NewS3Uploader(optFns ...func(*s3.Options)) *S3Uploader {
	return &S3Uploader{options: optFns}
}

// Upload implements Uploader.
func (u *S3Uploader) Upload(ctx context.Context, path, bucket, key string) error {
	if bucket == "" {
		return ErrNoBucket
	}

	if key == "" {
		key = filepath.Base(path)
	}

	client, err := u.api(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	logger.DebugKV(ctx, "Uploading archive", "path", path, "bucket", bucket, "key", key)

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        f,
		ACL:         types.ObjectCannedACLPublicRead,
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}

	return nil
}

func (u *S3Uploader) api(ctx context.Context) (putObjectAPI, error) {
	if u.client != nil {
		return u.client, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	u.client = s3.NewFromConfig(cfg, u.options...)

	return u.client, nil
}
