// Package storage archives uploaded source spreadsheets in an
// S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"treasury-backend/internal/config"
)

// Archiver stores an uploaded file and returns the object key.
type Archiver interface {
	Archive(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}

// NoopArchiver is used when no bucket is configured.
type NoopArchiver struct{}

func (NoopArchiver) Archive(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	return "", nil
}

type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

// New returns an S3 archiver when storage is enabled, a NoopArchiver
// otherwise.
func New(ctx context.Context, cfg *config.Config) (Archiver, error) {
	sc := cfg.Storage
	if !sc.Enabled || sc.Bucket == "" {
		log.Println("[Storage] Upload archiving disabled")
		return NoopArchiver{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			sc.AccessKey,
			sc.SecretKey,
			"",
		)),
		awsconfig.WithRegion(sc.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure storage client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if sc.Endpoint != "" {
			o.BaseEndpoint = aws.String(sc.Endpoint)
		}
	})

	log.Printf("[Storage] Archiving uploads to bucket %s", sc.Bucket)
	return &S3Archiver{client: client, bucket: sc.Bucket, prefix: sc.Prefix, now: time.Now}, nil
}

func (a *S3Archiver) Archive(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	key := ObjectKey(a.prefix, fileName, a.now())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", fileName, err)
	}
	return key, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey builds "<prefix>YYYY/MM/<timestamp>_<sanitized name>".
func ObjectKey(prefix, fileName string, at time.Time) string {
	name := unsafeKeyChars.ReplaceAllString(path.Base(fileName), "_")
	name = strings.Trim(name, "_")
	if name == "" || name == "." {
		name = "upload.xlsx"
	}
	return fmt.Sprintf("%s%s/%s_%s", prefix, at.UTC().Format("2006/01"), at.UTC().Format("20060102_150405"), name)
}
