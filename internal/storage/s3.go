package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Uploader is the part of manager.Uploader the archive needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Options configure the S3 connection. Empty keys fall back to the default
// credential chain.
type Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Archive stores uploaded screenshots in S3.
type Archive struct {
	uploader Uploader
	bucket   string
	newID    func() string
}

// NewArchive loads AWS config and builds a multipart-capable uploader.
func NewArchive(ctx context.Context, o Options) (*Archive, error) {
	var loadOpts []func(*awscfg.LoadOptions) error
	if o.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(o.Region))
	}
	if o.AccessKeyID != "" && o.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewArchiveWithUploader(manager.NewUploader(s3.NewFromConfig(cfg)), o.Bucket), nil
}

func NewArchiveWithUploader(u Uploader, bucket string) *Archive {
	return &Archive{uploader: u, bucket: bucket, newID: uuid.NewString}
}

// ScreenshotKey builds screenshots/{student}/{id}{ext}.
func ScreenshotKey(studentID, id, ext string) string {
	studentID = strings.Trim(strings.ReplaceAll(studentID, "/", "_"), ". ")
	if studentID == "" {
		studentID = "unknown"
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join("screenshots", studentID, id+ext)
}

// UploadScreenshot stores data and returns its key.
func (a *Archive) UploadScreenshot(ctx context.Context, studentID, contentType, ext, originalName string, data []byte) (string, error) {
	key := ScreenshotKey(studentID, a.newID(), ext)
	meta := map[string]string{"student-id": studentID}
	if originalName != "" {
		meta["name"] = originalName
	}
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Info().
		Str("bucket", a.bucket).
		Str("key", key).
		Str("student_id", studentID).
		Int("size", len(data)).
		Msg("archived screenshot")
	return key, nil
}
