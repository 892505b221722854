package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/dmitrijs2005/zkvault/internal/server/config"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ExportEnvelope is the document written by exports and backups.
type ExportEnvelope struct {
	Export *Export `json:"export"`
}

// BackupResult names the stored object and a time-limited download URL.
type BackupResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// BackupService copies an owner's encrypted export to S3-compatible
// storage. The server uploads ciphertext only.
type BackupService struct {
	vault  *VaultService
	config *config.Config
	log    logging.Logger
	now    func() time.Time
}

func NewBackupService(vault *VaultService, cfg *config.Config, log logging.Logger) *BackupService {
	return &BackupService{vault: vault, config: cfg, log: log, now: time.Now}
}

// Enabled reports whether a bucket is configured.
func (s *BackupService) Enabled() bool {
	return s.config.BackupsEnabled()
}

// BackupKey returns backups/<owner>/<yyyy>/<mm>/<dd>/<uuid>.json for t.
func BackupKey(ownerID string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("backups/%s/%04d/%02d/%02d/%s.json", ownerID, t.Year(), int(t.Month()), t.Day(), uuid.New())
}

func (s *BackupService) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s.config.S3Region)}
	if s.config.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.config.S3AccessKey, s.config.S3SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Backup uploads the owner's export and presigns a GET for it. With no
// bucket configured it returns a wrapped common.ErrorNotFound.
func (s *BackupService) Backup(ctx context.Context, ownerID string) (*BackupResult, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("%w: backups are disabled", common.ErrorNotFound)
	}

	export, err := s.vault.ExportAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(ExportEnvelope{Export: export})
	if err != nil {
		return nil, s.internal(ctx, "encode backup", err)
	}

	c, err := s.client(ctx)
	if err != nil {
		return nil, s.internal(ctx, "s3 config", err)
	}

	bucket := s.config.S3Bucket
	key := BackupKey(ownerID, s.now())

	_, err = putObject(c, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return nil, s.internal(ctx, "upload backup", err)
	}

	req, err := presignGetObject(newS3PresignClient(c), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.BackupURLValidity))
	if err != nil {
		return nil, s.internal(ctx, "presign backup", err)
	}

	s.log.Info(ctx, "backup stored", "user_id", ownerID, "key", key, "items", len(export.Items))
	return &BackupResult{Key: key, URL: req.URL}, nil
}

func (s *BackupService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
