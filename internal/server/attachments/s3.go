package attachments

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/astroprofile/internal/netx"
	"github.com/dmitrijs2005/astroprofile/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	presignDeleteObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignDeleteObject(ctx, in, optFns...)
	}
)

const presignExpiry = 15 * time.Minute

// S3Store uploads pictures to an S3-compatible bucket through a presigned
// PUT. The returned path is "<bucket>/<key>".
type S3Store struct {
	config *config.Config
	client *http.Client
	now    func() time.Time
}

func NewS3Store(cfg *config.Config) *S3Store {
	return &S3Store{
		config: cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
	}
}

// storageKey spreads objects by upload date.
func (s *S3Store) storageKey() string {
	d := s.now().UTC()
	return fmt.Sprintf("avatars/%d/%d/%d/%s", d.Year(), d.Month(), d.Day(), newName())
}

func (s *S3Store) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

func (s *S3Store) Save(ctx context.Context, r io.Reader, contentType string) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := s.storageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}

	if err := netx.PutPresigned(ctx, s.client, req.URL, contentType, body); err != nil {
		return "", err
	}

	return bucket + "/" + key, nil
}

func (s *S3Store) Delete(ctx context.Context, path string) error {
	bucket := s.config.S3Bucket
	key, ok := strings.CutPrefix(path, bucket+"/")
	if !ok || key == "" {
		return fmt.Errorf("path %q is outside bucket %s", path, bucket)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return err
	}

	req, err := presignDeleteObject(presignClient, ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return fmt.Errorf("presign delete: %w", err)
	}

	return netx.DeletePresigned(ctx, s.client, req.URL)
}
