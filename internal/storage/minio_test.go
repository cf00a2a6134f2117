package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	buckets   map[string]bool
	makeErr   error
	existsErr error
	putErr    error

	made []string
	puts []fakePut
}

type fakePut struct {
	bucket, object, path, contentType string
}

func newFakeStore(existing ...string) *fakeStore {
	s := &fakeStore{buckets: map[string]bool{}}
	for _, b := range existing {
		s.buckets[b] = true
	}
	return s
}

func (s *fakeStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.buckets[bucket], nil
}

func (s *fakeStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	if s.makeErr != nil {
		return s.makeErr
	}
	s.made = append(s.made, bucket)
	s.buckets[bucket] = true
	return nil
}

func (s *fakeStore) FPutObject(_ context.Context, bucket, object, path string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if s.putErr != nil {
		return minio.UploadInfo{}, s.putErr
	}
	s.puts = append(s.puts, fakePut{bucket, object, path, opts.ContentType})
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: 42}, nil
}

func TestMinioConfigEnabled(t *testing.T) {
	assert.False(t, MinioConfig{}.Enabled())
	assert.True(t, MinioConfig{Endpoint: "localhost:9000"}.Enabled())
}

func TestNewMinioPublisher_Validation(t *testing.T) {
	_, err := NewMinioPublisher(MinioConfig{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewMinioPublisher(MinioConfig{Endpoint: "localhost:9000"})
	assert.ErrorContains(t, err, "bucket")
}

func TestNewMinioPublisher_BaseURL(t *testing.T) {
	p, err := NewMinioPublisher(MinioConfig{Endpoint: "localhost:9000", Bucket: "dubbed-videos"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", p.baseURL)

	p, err = NewMinioPublisher(MinioConfig{
		Endpoint:  "localhost:9000",
		Bucket:    "dubbed-videos",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com", p.baseURL)
}

func TestEnsureBucket(t *testing.T) {
	t.Run("creates missing bucket", func(t *testing.T) {
		store := newFakeStore()
		p := newMinioPublisher(store, "dubbed-videos", "http://localhost:9000")
		require.NoError(t, p.EnsureBucket(context.Background()))
		assert.Equal(t, []string{"dubbed-videos"}, store.made)
	})

	t.Run("existing bucket is left alone", func(t *testing.T) {
		store := newFakeStore("dubbed-videos")
		p := newMinioPublisher(store, "dubbed-videos", "http://localhost:9000")
		require.NoError(t, p.EnsureBucket(context.Background()))
		assert.Empty(t, store.made)
	})

	t.Run("create failure", func(t *testing.T) {
		store := newFakeStore()
		store.makeErr = errors.New("access denied")
		p := newMinioPublisher(store, "dubbed-videos", "http://localhost:9000")
		err := p.EnsureBucket(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
	})

	t.Run("lookup failure", func(t *testing.T) {
		store := newFakeStore()
		store.existsErr = errors.New("connection refused")
		p := newMinioPublisher(store, "dubbed-videos", "http://localhost:9000")
		assert.ErrorContains(t, p.EnsureBucket(context.Background()), "connection refused")
	})
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "abc/abc_output.mp4", ObjectName("abc", "/srv/work/abc_output.mp4"))
	assert.Equal(t, "abc/abc_output.mp4", ObjectName("abc", "abc_output.mp4"))
}

func TestPublish(t *testing.T) {
	store := newFakeStore("dubbed-videos")
	p := newMinioPublisher(store, "dubbed-videos", "https://cdn.example.com/")

	got, err := p.Publish(context.Background(), "job 1/job 1_output.mp4", "/tmp/job 1_output.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/dubbed-videos/job%201/job%201_output.mp4", got)

	require.Len(t, store.puts, 1)
	assert.Equal(t, fakePut{
		bucket:      "dubbed-videos",
		object:      "job 1/job 1_output.mp4",
		path:        "/tmp/job 1_output.mp4",
		contentType: "video/mp4",
	}, store.puts[0])
}

func TestPublish_Error(t *testing.T) {
	store := newFakeStore("dubbed-videos")
	store.putErr = errors.New("disk full")
	p := newMinioPublisher(store, "dubbed-videos", "http://localhost:9000")

	_, err := p.Publish(context.Background(), "a/b.mp4", "b.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
