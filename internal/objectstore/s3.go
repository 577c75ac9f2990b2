package objectstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const cacheControlImmutable = "public, max-age=31536000, immutable"

type S3Uploader struct { // implements Uploader
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// S3Options configures an S3-compatible bucket (AWS, R2, MinIO).
type S3Options struct {
	AccessKeyID     string
	AccessKeySecret string
	Region          string
	Endpoint        string
	Bucket          string
	PublicBaseURL   string
}

func NewS3Uploader(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.AccessKeySecret, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3UploaderFromClient(client, opts.Bucket, opts.PublicBaseURL), nil
}

func NewS3UploaderFromClient(client *s3.Client, bucket, publicBaseURL string) *S3Uploader {
	return &S3Uploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
	}
}

func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String(cacheControlImmutable),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading %s to bucket %s: %w", key, u.bucket, err)
	}

	storeLogger.Debug().Str("bucket", u.bucket).Str("key", key).Int("bytes", len(body)).Msg("Uploaded object")
	return publicURL(u.publicBaseURL, key), nil
}

func (u *S3Uploader) Delete(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("error deleting %s from bucket %s: %w", key, u.bucket, err)
	}
	return nil
}
