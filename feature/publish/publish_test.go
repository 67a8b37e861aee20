package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"table-manager/core/storage"
	"table-manager/core/storage/mocks"
	"table-manager/feature/pack"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupOutput(t *testing.T, versions ...int) string {
	t.Helper()
	dir := t.TempDir()
	idx := &pack.Index{}
	for _, v := range versions {
		name := filepath.Join(dir, fmt.Sprintf("patch_%d.zip", v))
		require.NoError(t, os.WriteFile(name, []byte("zip"), 0o644))
		idx.Append(pack.Entry{Version: v, URL: "https://cdn.example.com/" + filepath.Base(name)})
	}
	require.NoError(t, idx.Save(filepath.Join(dir, "patches.json")))
	return dir
}

func listing(keys ...string) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		ch <- minio.ObjectInfo{Key: k}
	}
	close(ch)
	return ch
}

func noSuchKey() error {
	return minio.ErrorResponse{Code: "NoSuchKey"}
}

func newPublisher(client storage.Client) *Publisher {
	cfg := storage.Config{Bucket: "patches", Prefix: "live/"}
	return NewPublisher(client, cfg, pack.Config{}, zap.NewNop())
}

func TestPublish_UploadsMissingArchivesThenIndex(t *testing.T) {
	dir := setupOutput(t, 1, 2)
	client := new(mocks.Client)

	client.On("BucketExists", mock.Anything, "patches").Return(true, nil)
	client.On("GetObject", mock.Anything, "patches", "live/patches.json", mock.Anything).Return(nil, noSuchKey())
	client.On("ListObjects", mock.Anything, "patches", mock.Anything).Return(listing("live/patch_1.zip"))

	var order []string
	client.On("PutObject", mock.Anything, "patches", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { order = append(order, args.String(2)) }).
		Return(minio.UploadInfo{}, nil)

	res, err := newPublisher(client).Publish(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"live/patch_2.zip", "live/patches.json"}, order)
	assert.Equal(t, order, res.Uploaded)
	assert.Equal(t, 1, res.Skipped)
	client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	client.AssertExpectations(t)
}

func TestPublish_CreatesBucket(t *testing.T) {
	dir := setupOutput(t, 1)
	client := new(mocks.Client)

	client.On("BucketExists", mock.Anything, "patches").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "patches", mock.Anything).Return(nil)
	client.On("GetObject", mock.Anything, "patches", "live/patches.json", mock.Anything).Return(nil, noSuchKey())
	client.On("ListObjects", mock.Anything, "patches", mock.Anything).Return(listing())
	client.On("PutObject", mock.Anything, "patches", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	res, err := newPublisher(client).Publish(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, res.Uploaded, 2)
	client.AssertExpectations(t)
}

func TestPublish_RemoteAhead(t *testing.T) {
	dir := setupOutput(t, 1)
	client := new(mocks.Client)

	remote := io.NopCloser(strings.NewReader(`{"latestVersion":5,"patches":[]}`))
	client.On("BucketExists", mock.Anything, "patches").Return(true, nil)
	client.On("GetObject", mock.Anything, "patches", "live/patches.json", mock.Anything).Return(remote, nil)

	_, err := newPublisher(client).Publish(context.Background(), dir)
	assert.ErrorIs(t, err, ErrRemoteAhead)
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_NoIndex(t *testing.T) {
	client := new(mocks.Client)
	_, err := newPublisher(client).Publish(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoIndex)
}

func TestPublish_ListError(t *testing.T) {
	dir := setupOutput(t, 1)
	client := new(mocks.Client)

	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Err: assert.AnError}
	close(ch)

	client.On("BucketExists", mock.Anything, "patches").Return(true, nil)
	client.On("GetObject", mock.Anything, "patches", "live/patches.json", mock.Anything).Return(nil, noSuchKey())
	client.On("ListObjects", mock.Anything, "patches", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	_, err := newPublisher(client).Publish(context.Background(), dir)
	assert.ErrorIs(t, err, assert.AnError)
}
