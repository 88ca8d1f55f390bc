package s3store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/msomdec/blogapp/internal/domain"
)

// PutObjectAPI is the part of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader stores uploaded files in an S3 bucket and implements
// domain.FileUploader.
type Uploader struct {
	client        PutObjectAPI
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

// New creates an Uploader using the default AWS credential chain.
func New(ctx context.Context, bucket, publicBaseURL string) (*Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), bucket, publicBaseURL), nil
}

// NewWithClient creates an Uploader over an existing client.
func NewWithClient(client PutObjectAPI, bucket, publicBaseURL string) *Uploader {
	return &Uploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// Upload writes file under folder/<unix-millis>-<random>.<ext>. Credentials
// are not used; the bucket is written with the server's AWS identity.
func (u *Uploader) Upload(ctx context.Context, _ domain.Credentials, folder string, file domain.File) (*domain.Uploaded, error) {
	key := path.Join(folder, strconv.FormatInt(u.now().UnixMilli(), 10)+"-"+uuid.NewString()[:8]+path.Ext(file.Name))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file.Data),
		ContentType:   aws.String(file.ContentType),
		ContentLength: aws.Int64(file.Size()),
	})
	if err != nil {
		slog.Error("failed to upload file", "bucket", u.bucket, "key", key, "error", err)
		return nil, fmt.Errorf("upload file: %w", err)
	}

	slog.Info("uploaded file", "bucket", u.bucket, "key", key, "size", file.Size())
	return &domain.Uploaded{URL: u.publicBaseURL + "/" + key, Path: key}, nil
}
