package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	body     []byte
	modified time.Time
}

type fakeS3 struct {
	objects map[string]fakeObject
	now     time.Time
}

func newFakeS3(now time.Time) *fakeS3 {
	return &fakeS3{objects: map[string]fakeObject{}, now: now}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = fakeObject{body: body, modified: f.now}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.body))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		if in.Prefix == nil || len(key) >= len(*in.Prefix) && key[:len(*in.Prefix)] == *in.Prefix {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, key := range keys {
		modified := f.objects[key].modified
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key), LastModified: &modified})
	}
	return out, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3(time.Now())
	store := newS3Store(fake, "fleet", "/exports/")

	require.NoError(t, store.Save(ctx, "reports/job-1.pdf", bytes.NewReader([]byte("%PDF")), "application/pdf"))
	assert.Contains(t, fake.objects, "exports/reports/job-1.pdf")

	rc, err := store.Open(ctx, "reports/job-1.pdf")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "%PDF", string(body))

	require.NoError(t, store.Delete(ctx, "reports/job-1.pdf"))
	_, err = store.Open(ctx, "reports/job-1.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3StoreCleanup(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	fake := newFakeS3(now.Add(-72 * time.Hour))
	store := newS3Store(fake, "fleet", "exports")
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "reports/old.csv", bytes.NewReader([]byte("x")), "text/csv"))
	fake.now = now
	require.NoError(t, store.Save(ctx, "reports/new.csv", bytes.NewReader([]byte("y")), "text/csv"))
	fake.objects["elsewhere/old.csv"] = fakeObject{modified: now.Add(-72 * time.Hour)}

	deleted, err := store.CleanupOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/old.csv"}, deleted)
	assert.Contains(t, fake.objects, "exports/reports/new.csv")
	assert.Contains(t, fake.objects, "elsewhere/old.csv")
}
