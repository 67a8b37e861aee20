package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"table-manager/core/storage"
	"table-manager/feature/pack"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

var (
	// ErrNoIndex is returned when the output directory has no patch index.
	ErrNoIndex = errors.New("no patch index in output directory")
	// ErrRemoteAhead is returned when the bucket already holds a newer index.
	ErrRemoteAhead = errors.New("remote patch index is ahead of local")
)

// Result summarizes a publish run.
type Result struct {
	Uploaded []string
	Skipped  int
	Bytes    int64
}

// Publisher mirrors patch archives and the patch index to a bucket.
type Publisher struct {
	client    storage.Client
	cfg       storage.Config
	indexName string
	logger    *zap.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(client storage.Client, cfg storage.Config, packCfg pack.Config, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	name := packCfg.IndexName
	if name == "" {
		name = "patches.json"
	}
	return &Publisher{client: client, cfg: cfg, indexName: name, logger: logger}
}

func (p *Publisher) key(name string) string {
	return p.cfg.Prefix + name
}

// Publish uploads every indexed archive the bucket does not have yet and
// then the index itself, so the remote index never names a missing archive.
func (p *Publisher) Publish(ctx context.Context, outputDir string) (*Result, error) {
	idx, found, err := pack.LoadIndex(filepath.Join(outputDir, p.indexName))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoIndex
	}

	if err := p.ensureBucket(ctx); err != nil {
		return nil, err
	}

	remote, err := p.remoteIndex(ctx)
	if err != nil {
		return nil, err
	}
	if remote != nil && remote.LatestVersion > idx.LatestVersion {
		return nil, fmt.Errorf("%w: remote %d, local %d", ErrRemoteAhead, remote.LatestVersion, idx.LatestVersion)
	}

	existing, err := p.existingKeys(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{Uploaded: []string{}}
	for _, e := range idx.Ascending() {
		name := path.Base(e.URL)
		key := p.key(name)
		if existing[key] {
			res.Skipped++
			continue
		}
		size, err := p.upload(ctx, filepath.Join(outputDir, name), key, "application/zip", "")
		if err != nil {
			return nil, fmt.Errorf("failed to upload patch %d: %w", e.Version, err)
		}
		res.Uploaded = append(res.Uploaded, key)
		res.Bytes += size
	}

	indexKey := p.key(p.indexName)
	size, err := p.upload(ctx, filepath.Join(outputDir, p.indexName), indexKey, "application/json", "no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to upload patch index: %w", err)
	}
	res.Uploaded = append(res.Uploaded, indexKey)
	res.Bytes += size

	p.logger.Info("Patches published",
		zap.String("bucket", p.cfg.Bucket),
		zap.Int("uploaded", len(res.Uploaded)),
		zap.Int("skipped", res.Skipped),
		zap.String("size", humanize.Bytes(uint64(res.Bytes))))
	return res, nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	p.logger.Info("Creating bucket", zap.String("bucket", p.cfg.Bucket))
	if err := p.client.MakeBucket(ctx, p.cfg.Bucket, minio.MakeBucketOptions{Region: p.cfg.Region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// remoteIndex fetches the published index, or nil when none exists.
func (p *Publisher) remoteIndex(ctx context.Context) (*pack.Index, error) {
	obj, err := p.client.GetObject(ctx, p.cfg.Bucket, p.key(p.indexName), minio.GetObjectOptions{})
	if err == nil {
		defer obj.Close()
		var idx pack.Index
		err = json.NewDecoder(obj).Decode(&idx)
		if err == nil {
			return &idx, nil
		}
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil, nil
	}
	return nil, fmt.Errorf("failed to read remote patch index: %w", err)
}

func (p *Publisher) existingKeys(ctx context.Context) (map[string]bool, error) {
	keys := map[string]bool{}
	for obj := range p.client.ListObjects(ctx, p.cfg.Bucket, minio.ListObjectsOptions{Prefix: p.cfg.Prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list bucket: %w", obj.Err)
		}
		keys[obj.Key] = true
	}
	return keys, nil
}

func (p *Publisher) upload(ctx context.Context, file, key, contentType, cacheControl string) (int64, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	_, err = p.client.PutObject(ctx, p.cfg.Bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	})
	if err != nil {
		return 0, err
	}
	p.logger.Debug("Uploaded", zap.String("key", key), zap.Int64("size", info.Size()))
	return info.Size(), nil
}
