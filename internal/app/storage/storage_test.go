package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	headErr   error
	deleteErr error
	head      *s3.HeadObjectOutput

	headKey, deleteKey, deleteBucket string
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.headKey = aws.ToString(in.Key)
	return f.head, f.headErr
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleteKey = aws.ToString(in.Key)
	f.deleteBucket = aws.ToString(in.Bucket)
	return &s3.DeleteObjectOutput{}, f.deleteErr
}

type fakePresigner struct {
	err     error
	key     string
	expires time.Duration
}

func (f *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.key = aws.ToString(in.Key)
	f.expires = opts.Expires
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://storage.example/" + f.key + "?sig=x", Method: "GET"}, nil
}

func TestKeyInSession(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"sdk/recording.mp4", true},
		{"sdk/2024/recording.mp4", true},
		{RecordingKey("sdk", "a.m4a"), true},
		{"other/recording.mp4", false},
		{"sdkx/recording.mp4", false},
		{"sdk/", false},
		{"sdk", false},
		{"sdk/../other/recording.mp4", false},
		{"sdk/./recording.mp4", false},
		{"sdk//recording.mp4", false},
		{"sdk/dir/", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, KeyInSession("sdk", tt.key))
		})
	}

	assert.False(t, KeyInSession("", "/recording.mp4"))
}

func TestS3Client_PresignDownload(t *testing.T) {
	p := &fakePresigner{}
	c := &s3Client{bucket: "recordings", api: &fakeS3{}, presigner: p}

	url, err := c.PresignDownload(context.Background(), "sdk/a.mp4", PresignedURLDuration)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example/sdk/a.mp4?sig=x", url)
	assert.Equal(t, "sdk/a.mp4", p.key)
	assert.Equal(t, PresignedURLDuration, p.expires)

	p.err = errors.New("signing failed")
	_, err = c.PresignDownload(context.Background(), "sdk/a.mp4", time.Minute)
	assert.ErrorContains(t, err, "signing failed")
}

func TestS3Client_GetObjectMetadata(t *testing.T) {
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeS3{head: &s3.HeadObjectOutput{
		ContentType:   aws.String("video/mp4"),
		ContentLength: aws.Int64(1024),
		ETag:          aws.String(`"abc"`),
		LastModified:  aws.Time(modified),
	}}
	c := &s3Client{bucket: "recordings", api: api, presigner: &fakePresigner{}}

	meta, err := c.GetObjectMetadata(context.Background(), "sdk/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, ObjectMetadata{
		Key:          "sdk/a.mp4",
		ContentType:  "video/mp4",
		Size:         1024,
		ETag:         `"abc"`,
		LastModified: modified,
	}, meta)

	api.head, api.headErr = nil, &types.NotFound{}
	_, err = c.GetObjectMetadata(context.Background(), "sdk/missing.mp4")
	assert.ErrorIs(t, err, ErrNotFound)

	api.headErr = errors.New("timeout")
	_, err = c.GetObjectMetadata(context.Background(), "sdk/a.mp4")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestS3Client_Delete(t *testing.T) {
	api := &fakeS3{}
	c := &s3Client{bucket: "recordings", api: api, presigner: &fakePresigner{}}

	require.NoError(t, c.Delete(context.Background(), "sdk/a.mp4"))
	assert.Equal(t, "sdk/a.mp4", api.deleteKey)
	assert.Equal(t, "recordings", api.deleteBucket)

	api.deleteErr = errors.New("denied")
	assert.ErrorContains(t, c.Delete(context.Background(), "sdk/a.mp4"), "denied")
}
