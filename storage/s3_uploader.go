package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Config holds what the uploader needs from the app config.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// objectPutter abstracts the s3 client for testability.
type objectPutter interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// S3Uploader archives audit files to a bucket.
type S3Uploader struct {
	client objectPutter
	bucket string
}

func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	// MinIO and other S3-compatible endpoints
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("s3: create session: %w", err)
	}

	return &S3Uploader{client: s3.New(sess), bucket: cfg.Bucket}, nil
}

// NewS3UploaderWith is only for tests to inject a fake client.
func NewS3UploaderWith(client objectPutter, bucket string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket}
}

// UploadFile puts the local file under raw/<yyyy>/<mm>/<dd>/<stamp>-<name>
// and returns the object key.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath string, at time.Time) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("s3: read %s: %w", localPath, err)
	}

	key := path.Join("raw", at.Format("2006/01/02"), at.Format("150405")+"-"+filepath.Base(localPath))
	_, err = u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", key, err)
	}
	return key, nil
}
