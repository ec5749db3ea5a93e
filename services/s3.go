package services

import (
	"context"
	"fmt"
	"strings"

	"transcriber/config"
	"transcriber/models"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// ArtifactService uploads rendered transcripts to S3 when a job
// completes, so the text outlives the record store's retention window
// and can be served directly.
type ArtifactService struct {
	session  *session.Session
	bucket   string
	uploader *s3manager.Uploader
}

func NewArtifactService(cfg *config.Config) *ArtifactService {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.S3Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		),
	}

	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
	}

	if cfg.S3UsePathStyle {
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess := session.Must(session.NewSession(awsCfg))

	return &ArtifactService{
		session:  sess,
		bucket:   cfg.S3Bucket,
		uploader: s3manager.NewUploader(sess),
	}
}

// UploadResult stores the transcript text and, for captioned jobs, the
// rendered SRT under transcripts/<job_id>.<ext>.
func (a *ArtifactService) UploadResult(ctx context.Context, jobID string, result *models.TranscriptionResult) error {
	key := fmt.Sprintf("transcripts/%s.txt", jobID)
	if err := a.upload(ctx, key, result.Text, "text/plain; charset=utf-8"); err != nil {
		return err
	}

	if result.Format == models.FormatSRT {
		key = fmt.Sprintf("transcripts/%s.srt", jobID)
		if err := a.upload(ctx, key, result.SRT, "application/x-subrip"); err != nil {
			return err
		}
	}
	return nil
}

func (a *ArtifactService) upload(ctx context.Context, key, body, contentType string) error {
	_, err := a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}
