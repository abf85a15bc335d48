package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dexfetch/dexfetch/iox"
	"github.com/dexfetch/dexfetch/types"
)

// S3Config holds configuration for the S3 storage backend.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not
	// subdomain). Required by most S3-compatible providers.
	UsePathStyle bool
}

// Validate checks that required S3 configuration is present.
func (c *S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3 bucket is required")
	}
	return nil
}

// ParseS3Path parses a path in format "bucket/prefix" or "bucket".
func ParseS3Path(path string) (bucket, prefix string) {
	parts := strings.SplitN(path, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		prefix = parts[1]
	}
	return bucket, prefix
}

// s3API is the subset of the S3 client used by S3Store. Narrowed for
// test doubles.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store stores record documents as S3 objects. S3 object puts are
// already atomic at the key level, so no temp-and-rename step is needed
// to uphold the committed-record invariant.
type S3Store struct {
	client s3API
	config S3Config
}

// NewS3Store creates an S3 store using the AWS SDK default credential
// chain (env vars, shared config, IAM role).
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &S3Store{
		client: s3.NewFromConfig(awsConfig, s3Opts...),
		config: cfg,
	}, nil
}

// newS3StoreWithClient creates an S3 store with an injected client (tests).
func newS3StoreWithClient(client s3API, cfg S3Config) *S3Store {
	return &S3Store{client: client, config: cfg}
}

func (s *S3Store) key(item types.Item) string {
	if s.config.Prefix == "" {
		return item.String() + recordSuffix
	}
	return strings.TrimSuffix(s.config.Prefix, "/") + "/" + item.String() + recordSuffix
}

// ReadRecord returns the committed document for an item.
func (s *S3Store) ReadRecord(ctx context.Context, item types.Item) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.key(item)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, &StorageError{Op: "read", Key: item.String(), Kind: ErrNoRecord, Err: err}
		}
		return nil, &StorageError{Op: "read", Key: item.String(), Kind: ErrCommitFailed, Err: err}
	}
	defer iox.DiscardClose(out.Body)

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &StorageError{Op: "read", Key: item.String(), Kind: ErrCommitFailed, Err: err}
	}
	return data, nil
}

// CommitRecord writes the document as a single PutObject.
func (s *S3Store) CommitRecord(ctx context.Context, item types.Item, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(s.key(item)),
		Body:        strings.NewReader(string(data)),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return &StorageError{Op: "commit", Key: item.String(), Kind: ErrCommitFailed, Err: err}
	}
	return nil
}

// Remove deletes the document for an item.
func (s *S3Store) Remove(ctx context.Context, item types.Item) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(s.key(item)),
	})
	if err != nil {
		return &StorageError{Op: "remove", Key: item.String(), Kind: ErrCommitFailed, Err: err}
	}
	return nil
}

// List returns the items with committed documents, sorted by name.
func (s *S3Store) List(ctx context.Context) ([]types.Item, error) {
	prefix := ""
	if s.config.Prefix != "" {
		prefix = strings.TrimSuffix(s.config.Prefix, "/") + "/"
	}

	var items []types.Item
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.config.Bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, &StorageError{Op: "list", Key: s.config.Bucket, Kind: ErrCommitFailed, Err: err}
		}
		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if !strings.HasSuffix(name, recordSuffix) || strings.Contains(name, "/") {
				continue
			}
			items = append(items, types.Item(strings.TrimSuffix(name, recordSuffix)))
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}

	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	return items, nil
}

// Close is a no-op; the SDK client holds no connections that need
// explicit release.
func (s *S3Store) Close() error { return nil }

// Verify S3Store implements Store.
var _ Store = (*S3Store)(nil)
