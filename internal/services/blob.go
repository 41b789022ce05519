package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Blob upload failure classes. Kept distinct so operators can tell a
// missing bucket from a credentials problem without digging through SDK
// error chains.
var (
	ErrBucketMissing = errors.New("storage bucket does not exist")
	ErrBlobDenied    = errors.New("storage access denied")
)

// S3BlobStore stores costume images in an S3 bucket (or any S3-compatible
// endpoint) and hands out public object URLs.
type S3BlobStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3BlobStore creates an S3-backed blob store. accessKey/secretKey and
// endpoint are optional; when empty the default credential chain and AWS
// endpoints are used.
func NewS3BlobStore(ctx context.Context, region, bucket, accessKey, secretKey, endpoint string) (*S3BlobStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	if endpoint != "" {
		publicURL = fmt.Sprintf("%s/%s", strings.TrimRight(endpoint, "/"), bucket)
	}

	return &S3BlobStore{
		client:    client,
		bucket:    bucket,
		publicURL: publicURL,
	}, nil
}

// Upload stores the object under key and returns its public URL.
func (b *S3BlobStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        body,
	})
	if err != nil {
		return "", classifyBlobError(err)
	}
	return fmt.Sprintf("%s/%s", b.publicURL, key), nil
}

// Delete removes the object under key. Deleting a missing object is not
// an error.
func (b *S3BlobStore) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classifyBlobError(err)
	}
	return nil
}

func classifyBlobError(err error) error {
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noBucket) {
		return fmt.Errorf("%w: %v", ErrBucketMissing, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrBucketMissing, err)
		case "AccessDenied":
			return fmt.Errorf("%w: %v", ErrBlobDenied, err)
		}
	}
	return fmt.Errorf("blob store failure: %w", err)
}
