package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/draftdesk/draftdesk/backend/go-services/internal/article"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// SnapshotArchive mirrors article snapshots into an object store bucket, one
// JSON object per snapshot, so history survives a lost database.
type SnapshotArchive struct {
	client *minio.Client
	bucket string
}

// NewSnapshotArchive creates a MinIO client and ensures the bucket exists.
func NewSnapshotArchive(cfg *MinIOConfig) (*SnapshotArchive, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &SnapshotArchive{client: mc, bucket: cfg.Bucket}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// SnapshotKey is the object key of a snapshot: articles/<articleID>/<seq>.json.
// Seq is zero padded so a prefix listing returns objects in creation order.
func SnapshotKey(articleID string, seq int64) string {
	return fmt.Sprintf("articles/%s/%012d.json", articleID, seq)
}

// ArchiveSnapshot uploads s as JSON.
func (s *SnapshotArchive) ArchiveSnapshot(ctx context.Context, snap *article.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, SnapshotKey(snap.ArticleID, snap.Seq), bytes.NewReader(b), int64(len(b)),
		minio.PutObjectOptions{ContentType: "application/json"})
	return err
}

// LoadSnapshot reads an archived snapshot back. A missing object is reported
// as article.ErrNotFound.
func (s *SnapshotArchive) LoadSnapshot(ctx context.Context, articleID string, seq int64) (*article.Snapshot, error) {
	key := SnapshotKey(articleID, seq)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	if _, err := obj.Stat(); err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("archived snapshot %s: %w", key, article.ErrNotFound)
		}
		return nil, err
	}
	var snap article.Snapshot
	if err := json.NewDecoder(obj).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode archived snapshot: %w", err)
	}
	return &snap, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
