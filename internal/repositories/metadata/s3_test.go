package metadata

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
	putErr  error
	puts    int
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = data
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func TestS3Repository(t *testing.T) {
	exerciseRepository(t, NewS3Repository(newFakeObjects(), "bucket", "safecheck/settings.json"))
}

func TestS3Repository_SingleObject(t *testing.T) {
	api := newFakeObjects()
	r := NewS3Repository(api, "bucket", "settings.json")
	ctx := context.Background()

	require.NoError(t, r.SetMany(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}))
	assert.Equal(t, 1, api.puts)
	require.NoError(t, r.Clear(ctx))
	assert.Equal(t, 2, api.puts)
	assert.JSONEq(t, `{}`, string(api.objects["bucket/settings.json"]))
	assert.Len(t, api.objects, 1)
	assert.Contains(t, api.objects, "bucket/settings.json")
}

func TestS3Repository_Errors(t *testing.T) {
	api := newFakeObjects()
	r := NewS3Repository(api, "bucket", "settings.json")
	ctx := context.Background()

	api.putErr = errors.New("access denied")
	require.ErrorContains(t, r.SetMany(ctx, map[string][]byte{"k": []byte("v")}), "failed to set metadata")
	require.ErrorContains(t, r.Clear(ctx), "failed to clear metadata")

	api.getErr = errors.New("timeout")
	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")
}

func TestS3Repository_CorruptObject(t *testing.T) {
	api := newFakeObjects()
	api.objects["bucket/settings.json"] = []byte("not json")
	r := NewS3Repository(api, "bucket", "settings.json")

	_, err := r.Get(context.Background(), "app_state")
	require.ErrorContains(t, err, "decode s3://bucket/settings.json")
}
