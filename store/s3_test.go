package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 is an in-memory s3API double.
type fakeS3 struct {
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	st := newS3StoreWithClient(newFakeS3(), S3Config{Bucket: "dex", Prefix: "records"})
	ctx := t.Context()

	if err := st.CommitRecord(ctx, "bulbasaur", []byte(bulbasaurDoc)); err != nil {
		t.Fatalf("CommitRecord failed: %v", err)
	}

	data, err := st.ReadRecord(ctx, "bulbasaur")
	if err != nil {
		t.Fatalf("ReadRecord failed: %v", err)
	}
	if string(data) != bulbasaurDoc {
		t.Errorf("ReadRecord = %q, want committed document", data)
	}

	items, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 || items[0] != "bulbasaur" {
		t.Errorf("List = %v, want [bulbasaur]", items)
	}

	if err := st.Remove(ctx, "bulbasaur"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := st.ReadRecord(ctx, "bulbasaur"); !errors.Is(err, ErrNoRecord) {
		t.Errorf("error after Remove = %v, want ErrNoRecord", err)
	}
}

func TestS3Store_KeyPrefix(t *testing.T) {
	st := newS3StoreWithClient(newFakeS3(), S3Config{Bucket: "dex", Prefix: "records/"})
	if got, want := st.key("pikachu"), "records/pikachu.json"; got != want {
		t.Errorf("key = %q, want %q", got, want)
	}

	bare := newS3StoreWithClient(newFakeS3(), S3Config{Bucket: "dex"})
	if got, want := bare.key("pikachu"), "pikachu.json"; got != want {
		t.Errorf("key = %q, want %q", got, want)
	}
}

func TestParseS3Path(t *testing.T) {
	bucket, prefix := ParseS3Path("my-bucket/some/prefix")
	if bucket != "my-bucket" || prefix != "some/prefix" {
		t.Errorf("ParseS3Path = %q/%q, want my-bucket/some/prefix", bucket, prefix)
	}

	bucket, prefix = ParseS3Path("my-bucket")
	if bucket != "my-bucket" || prefix != "" {
		t.Errorf("ParseS3Path = %q/%q, want my-bucket with empty prefix", bucket, prefix)
	}
}
