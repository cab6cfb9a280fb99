package blobstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/akarpov/sealbox/internal/server/config"
)

func newStoreForTest() *Store {
	return NewStore(&sc.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "sealbox",
		PresignTTL:     10 * time.Minute,
	})
}

func stubPresignClient(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func Test_getPresignClient_AppliesSettings(t *testing.T) {
	store := newStoreForTest()

	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origNewPre := newS3PresignClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
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

	var capturedBaseEndpoint string
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil {
			t.Fatalf("BaseEndpoint not set")
		}
		capturedBaseEndpoint = *opts.BaseEndpoint
		return &s3.Client{}
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		if c == nil {
			t.Fatalf("nil client passed to presign")
		}
		return &s3.PresignClient{}
	}

	pc, err := store.getPresignClient()
	if err != nil {
		t.Fatalf("getPresignClient err: %v", err)
	}
	if pc == nil {
		t.Fatalf("nil presign client")
	}
	if capturedBaseEndpoint != "http://127.0.0.1:9000" {
		t.Fatalf("BaseEndpoint mismatch: %q", capturedBaseEndpoint)
	}

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	if _, err := store.getPresignClient(); err == nil || err.Error() != "load-fail" {
		t.Fatalf("expected load-fail, got %v", err)
	}
}

func Test_PresignedPutURL(t *testing.T) {
	store := newStoreForTest()
	stubPresignClient(t)

	origPut := presignPutObject
	t.Cleanup(func() { presignPutObject = origPut })

	var capturedKey string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if *in.Bucket != "sealbox" {
			t.Fatalf("bucket mismatch: %q", *in.Bucket)
		}
		capturedKey = *in.Key
		return &v4.PresignedHTTPRequest{URL: "http://signed-put"}, nil
	}

	key, url, err := store.PresignedPutURL(context.Background())
	if err != nil {
		t.Fatalf("PresignedPutURL err: %v", err)
	}
	if url != "http://signed-put" {
		t.Fatalf("url mismatch: %q", url)
	}
	if key != capturedKey {
		t.Fatalf("returned key %q does not match presigned key %q", key, capturedKey)
	}
	if !strings.HasPrefix(key, "files/") {
		t.Fatalf("storage key not partitioned: %q", key)
	}
}

func Test_PresignedPutURL_Error(t *testing.T) {
	store := newStoreForTest()
	stubPresignClient(t)

	origPut := presignPutObject
	t.Cleanup(func() { presignPutObject = origPut })

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("put-fail")
	}

	if _, _, err := store.PresignedPutURL(context.Background()); err == nil || err.Error() != "put-fail" {
		t.Fatalf("expected put-fail, got %v", err)
	}
}

func Test_PresignedGetURL(t *testing.T) {
	store := newStoreForTest()
	stubPresignClient(t)

	origGet := presignGetObject
	t.Cleanup(func() { presignGetObject = origGet })

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		if *in.Key != "files/2026/1/1/abc" {
			t.Fatalf("key mismatch: %q", *in.Key)
		}
		return &v4.PresignedHTTPRequest{URL: "http://signed-get"}, nil
	}

	url, err := store.PresignedGetURL(context.Background(), "files/2026/1/1/abc")
	if err != nil {
		t.Fatalf("PresignedGetURL err: %v", err)
	}
	if url != "http://signed-get" {
		t.Fatalf("url mismatch: %q", url)
	}
}

func Test_RandomStorageKey_Unique(t *testing.T) {
	a := RandomStorageKey()
	b := RandomStorageKey()
	if a == b {
		t.Fatalf("storage keys must be unique: %q", a)
	}
}
