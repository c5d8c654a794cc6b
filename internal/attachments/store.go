// Package attachments stores binary payloads referenced by registry documents.
// Objects live in a MinIO bucket keyed "<docID>/<name>" so all attachments of a
// document share a prefix and can be listed or cleaned up together.
package attachments

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/skyfield/listenerd/internal/config"
)

// Store is a thin wrapper around the minio client.
type Store struct {
	client *minio.Client
	bucket string
}

// NewStore creates a MinIO-backed attachment store and ensures the bucket exists.
func NewStore(cfg config.MinIOConfig) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &Store{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
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

// ObjectKey builds the storage key for an attachment of a document.
func ObjectKey(docID, name string) string {
	return docID + "/" + name
}

// Put uploads data from reader for the named attachment of a document.
func (s *Store) Put(ctx context.Context, docID, name string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, ObjectKey(docID, name), reader, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Get returns a ReadCloser for the stored attachment.
func (s *Store) Get(ctx context.Context, docID, name string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, ObjectKey(docID, name), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// perform a stat to ensure the object exists
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// Delete removes the named attachment of a document.
func (s *Store) Delete(ctx context.Context, docID, name string) error {
	return s.client.RemoveObject(ctx, s.bucket, ObjectKey(docID, name), minio.RemoveObjectOptions{})
}

// PresignedURL returns a presigned GET URL valid for the given duration.
func (s *Store) PresignedURL(ctx context.Context, docID, name string, expires time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, ObjectKey(docID, name), expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
