// Package archive mirrors post photos into an S3-compatible bucket so they
// outlive the Telegram file ids they were uploaded with.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/m3rciful/postbot/core/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// maxPhotoBytes caps downloads; the Bot API serves files up to 20 MB.
const maxPhotoBytes = 20 << 20

// Config locates the bucket.
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	PathStyle       bool
}

// Fetcher opens a photo by its Telegram file id.
type Fetcher interface {
	Fetch(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// Uploader is the subset of the S3 client used for archiving.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient builds an S3 client with static credentials. A custom endpoint
// (MinIO, R2) switches to path-style addressing.
func NewClient(cfg Config) (*s3.Client, error) {
	if cfg.Bucket == "" || cfg.Region == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("archive: bucket, region, access_key_id and secret_access_key are required")
	}
	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	endpoint := strings.TrimSuffix(strings.TrimSpace(cfg.Endpoint), "/")
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
				endpoint = "https://" + endpoint
			}
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
	}), nil
}

// S3Archiver uploads photos under <prefix>/<post id>/<uuid><ext>.
type S3Archiver struct {
	client Uploader
	fetch  Fetcher
	bucket string
	prefix string
	newID  func() string
}

// New returns an archiver writing to bucket.
func New(client Uploader, fetch Fetcher, bucket, prefix string) *S3Archiver {
	return &S3Archiver{
		client: client,
		fetch:  fetch,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		newID:  func() string { return uuid.NewString() },
	}
}

// Archive downloads the photo and stores it; it returns the object key.
func (a *S3Archiver) Archive(ctx context.Context, postID int64, photoID string) (string, error) {
	rc, err := a.fetch.Fetch(ctx, photoID)
	if err != nil {
		return "", fmt.Errorf("archive post %d: %w", postID, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPhotoBytes+1))
	if err != nil {
		return "", fmt.Errorf("archive post %d: read photo: %w", postID, err)
	}
	if len(data) > maxPhotoBytes {
		return "", fmt.Errorf("archive post %d: photo exceeds %d bytes", postID, maxPhotoBytes)
	}

	contentType := http.DetectContentType(data)
	key := a.objectKey(postID, contentType)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		Metadata:      map[string]string{"post-id": strconv.FormatInt(postID, 10)},
	})
	if err != nil {
		return "", fmt.Errorf("archive post %d: put %s: %w", postID, key, err)
	}
	logger.LogEvent(ctx, logger.Archive, slog.LevelInfo, "archive.put",
		slog.Int64("post_id", postID),
		slog.String("key", key),
		slog.Int("bytes", len(data)),
	)
	return key, nil
}

func (a *S3Archiver) objectKey(postID int64, contentType string) string {
	ext := ".bin"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	}
	name := a.newID() + ext
	if a.prefix == "" {
		return path.Join(strconv.FormatInt(postID, 10), name)
	}
	return path.Join(a.prefix, strconv.FormatInt(postID, 10), name)
}
