// Package artifact stores synthesized audio so RPC callers and channels
// can reference it by path or URL instead of shipping raw bytes.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Store persists one audio artifact and returns a stable reference.
type Store interface {
	Put(ctx context.Context, ext, mimeType string, data []byte) (string, error)
}

// LocalStore writes artifacts under a base directory.
type LocalStore struct {
	dir string
}

// NewLocalStore ensures dir exists and returns a store over it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Put writes the artifact and returns its absolute path. ext includes the
// leading dot.
func (s *LocalStore) Put(_ context.Context, ext, _ string, data []byte) (string, error) {
	name := fmt.Sprintf("tts-%s-%s%s", time.Now().Format("20060102-150405"), uuid.NewString()[:8], ext)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

// S3Store uploads artifacts to an S3 bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store wraps an S3 client for the given bucket and key prefix.
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads the artifact and returns its s3:// URL.
func (s *S3Store) Put(ctx context.Context, ext, mimeType string, data []byte) (string, error) {
	key := s.prefix + fmt.Sprintf("tts-%s-%s%s", time.Now().Format("20060102-150405"), uuid.NewString()[:8], ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("upload artifact: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
