package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// minimal JPEG header, enough for content sniffing
var jpeg = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

type fakeFetcher struct {
	data []byte
	err  error
}

func (f fakeFetcher) Fetch(context.Context, string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type fakeUploader struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (u *fakeUploader) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	u.in = in
	u.body, _ = io.ReadAll(in.Body)
	if u.err != nil {
		return nil, u.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveUploadsPhoto(t *testing.T) {
	up := &fakeUploader{}
	a := New(up, fakeFetcher{data: jpeg}, "bucket", "/posts/")
	a.newID = func() string { return "fixed" }

	key, err := a.Archive(context.Background(), 42, "file-1")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if key != "posts/42/fixed.jpg" {
		t.Fatalf("key = %q", key)
	}
	if aws.ToString(up.in.Bucket) != "bucket" || aws.ToString(up.in.Key) != key {
		t.Fatalf("unexpected input: %+v", up.in)
	}
	if aws.ToString(up.in.ContentType) != "image/jpeg" || aws.ToInt64(up.in.ContentLength) != int64(len(jpeg)) {
		t.Fatalf("unexpected content headers: %+v", up.in)
	}
	if !bytes.Equal(up.body, jpeg) {
		t.Fatal("uploaded body differs")
	}
}

func TestArchiveErrors(t *testing.T) {
	a := New(&fakeUploader{}, fakeFetcher{err: errors.New("telegram: file not found")}, "b", "")
	if _, err := a.Archive(context.Background(), 1, "x"); err == nil || !strings.Contains(err.Error(), "post 1") {
		t.Fatalf("expected fetch error, got %v", err)
	}

	a = New(&fakeUploader{err: errors.New("access denied")}, fakeFetcher{data: jpeg}, "b", "")
	if _, err := a.Archive(context.Background(), 2, "x"); err == nil {
		t.Fatal("expected upload error")
	}

	big := make([]byte, maxPhotoBytes+1)
	a = New(&fakeUploader{}, fakeFetcher{data: big}, "b", "")
	if _, err := a.Archive(context.Background(), 3, "x"); err == nil {
		t.Fatal("expected size error")
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{Bucket: "b"}); err == nil {
		t.Fatal("expected error for incomplete config")
	}
	c, err := NewClient(Config{Bucket: "b", Region: "us-east-1", AccessKeyID: "k", SecretAccessKey: "s", Endpoint: "minio:9000"})
	if err != nil || c == nil {
		t.Fatalf("new client: %v", err)
	}
	if c.Options().BaseEndpoint == nil || *c.Options().BaseEndpoint != "https://minio:9000" || !c.Options().UsePathStyle {
		t.Fatalf("unexpected options: %+v", c.Options())
	}
}
