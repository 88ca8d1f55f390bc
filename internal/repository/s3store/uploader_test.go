package s3store_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/repository/s3store"
)

var _ domain.FileUploader = (*s3store.Uploader)(nil)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestUpload_PutsObjectAndReturnsPublicURL(t *testing.T) {
	fake := &fakeS3{}
	u := s3store.NewWithClient(fake, "blog-uploads", "https://cdn.example.com/")

	out, err := u.Upload(context.Background(), nil, "images", domain.File{
		Name:        "cover.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if *fake.input.Bucket != "blog-uploads" || *fake.input.ContentType != "image/png" {
		t.Fatalf("unexpected input %+v", fake.input)
	}
	key := *fake.input.Key
	if !strings.HasPrefix(key, "images/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key %q", key)
	}
	if string(fake.body) != "png-bytes" {
		t.Fatalf("unexpected body %q", fake.body)
	}
	if out.Path != key || out.URL != "https://cdn.example.com/"+key {
		t.Fatalf("unexpected result %+v", out)
	}
}

func TestUpload_PropagatesError(t *testing.T) {
	u := s3store.NewWithClient(&fakeS3{err: errors.New("access denied")}, "b", "https://cdn")
	if _, err := u.Upload(context.Background(), nil, "images", domain.File{Name: "a.png"}); err == nil {
		t.Fatal("expected error")
	}
}
