package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectAPI is the subset of *s3.Client the repository calls.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Repository keeps the whole key/value map as a single JSON object.
// Every write is read-modify-write of that object, which also makes SetMany
// atomic. Writers outside this process are not coordinated.
type S3Repository struct {
	mu     sync.Mutex
	api    ObjectAPI
	bucket string
	key    string
}

func NewS3Repository(api ObjectAPI, bucket, key string) *S3Repository {
	return &S3Repository{api: api, bucket: bucket, key: key}
}

func (r *S3Repository) load(ctx context.Context) (map[string][]byte, error) {
	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
	})
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	m := map[string][]byte{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode s3://%s/%s: %w", r.bucket, r.key, err)
	}
	return m, nil
}

func (r *S3Repository) store(ctx context.Context, m map[string][]byte) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = r.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (r *S3Repository) update(ctx context.Context, fn func(m map[string][]byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.load(ctx)
	if err != nil {
		return err
	}
	fn(m)
	return r.store(ctx, m)
}

func (r *S3Repository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return m[key], nil
}

func (r *S3Repository) SetMany(ctx context.Context, values map[string][]byte) error {
	err := r.update(ctx, func(m map[string][]byte) {
		for k, v := range values {
			m[k] = v
		}
	})
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}
	return nil
}

func (r *S3Repository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store(ctx, map[string][]byte{}); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return nil
}
