package attachments

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/astroprofile/internal/server/config"
)

func newS3StoreForTest(t *testing.T) *S3Store {
	t.Helper()
	s := NewS3Store(&config.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "avatars",
	})
	s.now = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }
	return s
}

func stubAWS(t *testing.T, presign func(in *s3.PutObjectInput) (*v4.PresignedHTTPRequest, error)) {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	origPut := presignPutObject
	origDelete := presignDeleteObject
	t.Cleanup(func() {
		presignDeleteObject = origDelete
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://127.0.0.1:9000" {
			t.Fatalf("BaseEndpoint not applied")
		}
		if !opts.UsePathStyle {
			t.Fatalf("path style addressing expected")
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return presign(in)
	}
}

func TestS3Store_Save(t *testing.T) {
	var gotBody, gotCT string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotCT = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	var gotKey string
	stubAWS(t, func(in *s3.PutObjectInput) (*v4.PresignedHTTPRequest, error) {
		if aws.ToString(in.Bucket) != "avatars" {
			t.Fatalf("bucket = %q", aws.ToString(in.Bucket))
		}
		gotKey = aws.ToString(in.Key)
		return &v4.PresignedHTTPRequest{URL: ts.URL + "/avatars/" + gotKey, Method: http.MethodPut}, nil
	})

	s := newS3StoreForTest(t)
	path, err := s.Save(context.Background(), strings.NewReader("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if !strings.HasPrefix(gotKey, "avatars/2024/3/9/") {
		t.Fatalf("unexpected key %q", gotKey)
	}
	if path != "avatars/"+gotKey {
		t.Fatalf("path = %q, key = %q", path, gotKey)
	}
	if gotBody != "jpeg" || gotCT != "image/jpeg" {
		t.Fatalf("upload got body=%q ct=%q", gotBody, gotCT)
	}
}

func TestS3Store_Save_PresignError(t *testing.T) {
	stubAWS(t, func(*s3.PutObjectInput) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-fail")
	})

	_, err := newS3StoreForTest(t).Save(context.Background(), strings.NewReader("x"), "")
	if err == nil || !strings.Contains(err.Error(), "presign-fail") {
		t.Fatalf("expected presign-fail, got %v", err)
	}
}

func TestS3Store_Save_UploadRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	stubAWS(t, func(*s3.PutObjectInput) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: ts.URL}, nil
	})

	_, err := newS3StoreForTest(t).Save(context.Background(), strings.NewReader("x"), "")
	if err == nil || !strings.Contains(err.Error(), "upload failed: 403") {
		t.Fatalf("expected upload failure, got %v", err)
	}
}

func TestS3Store_Save_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := newS3StoreForTest(t).Save(context.Background(), strings.NewReader("x"), "")
	if err == nil || err.Error() != "load-fail" {
		t.Fatalf("expected load-fail, got %v", err)
	}
}

func TestS3Store_Delete(t *testing.T) {
	var gotMethod, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	stubAWS(t, nil)
	var gotKey string
	presignDeleteObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if aws.ToString(in.Bucket) != "avatars" {
			t.Fatalf("bucket = %q", aws.ToString(in.Bucket))
		}
		gotKey = aws.ToString(in.Key)
		return &v4.PresignedHTTPRequest{URL: ts.URL + "/avatars/" + gotKey, Method: http.MethodDelete}, nil
	}

	s := newS3StoreForTest(t)
	if err := s.Delete(context.Background(), "avatars/avatars/2024/3/9/abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if gotKey != "avatars/2024/3/9/abc" {
		t.Fatalf("key = %q", gotKey)
	}
	if gotMethod != http.MethodDelete || gotPath != "/avatars/avatars/2024/3/9/abc" {
		t.Fatalf("request %s %s", gotMethod, gotPath)
	}

	if err := s.Delete(context.Background(), "other-bucket/x"); err == nil {
		t.Fatal("expected error for a path outside the bucket")
	}
}
