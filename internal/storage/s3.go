// Package storage uploads exported reports to an S3 compatible bucket.
package storage

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"access-console/internal/config"
)

var logger = loggo.GetLogger("console.storage")

// PresignTTL is how long a download link stays valid.
const PresignTTL = 15 * time.Minute

// Object is an uploaded file.
type Object struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	Size        int    `json:"size"`
	DownloadURL string `json:"download_url,omitempty"`
}

// S3Uploader writes objects under a key prefix.
type S3Uploader struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// NewS3Uploader builds a client for cfg. Static credentials are used when
// configured, the default AWS chain otherwise; a custom endpoint selects R2
// or another S3 compatible store.
func NewS3Uploader(ctx context.Context, cfg config.ObjectStorageConfig) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Annotate(err, "configuring object storage")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Checksums only where the operation requires them.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
	}, nil
}

// Upload stores body under the configured prefix and returns a presigned
// download link.
func (u *S3Uploader) Upload(ctx context.Context, name, contentType string, body []byte) (*Object, error) {
	key := path.Join(u.prefix, name)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return nil, errors.Annotatef(err, "uploading %s", key)
	}
	obj := &Object{Bucket: u.bucket, Key: key, Size: len(body)}

	req, err := u.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignTTL))
	if err != nil {
		logger.Warningf("[Storage] Uploaded %s but could not presign it: %v", key, err)
		return obj, nil
	}
	obj.DownloadURL = req.URL
	logger.Infof("[Storage] Uploaded %s (%d bytes)", key, len(body))
	return obj, nil
}
