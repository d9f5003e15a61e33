package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ObjectStore persists entries in a NATS JetStream object store bucket.
// A single-object PUT replaces the previous version whole, so the atomicity
// guarantee comes from the backend itself.
type ObjectStore struct {
	conn   *nats.Conn
	bucket jetstream.ObjectStore
}

// NewObjectStore connects to the NATS server and binds (or creates) the bucket
func NewObjectStore(ctx context.Context, natsURL, bucket string) (*ObjectStore, error) {
	if bucket == "" {
		return nil, errors.New("object store bucket not configured")
	}

	conn, err := nats.Connect(natsURL, nats.Name("garminwrapped-cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	store, err := js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "wrapped summaries and generated insights",
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open object store bucket: %w", err)
	}

	return &ObjectStore{conn: conn, bucket: store}, nil
}

// Get retrieves the payload stored under key
func (s *ObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.GetBytes(ctx, key)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return data, nil
}

// Put stores the payload under key, replacing any previous object
func (s *ObjectStore) Put(ctx context.Context, key string, data []byte) error {
	if _, err := s.bucket.PutBytes(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Exists reports whether an object is stored under key
func (s *ObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.bucket.GetInfo(ctx, key)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat cache entry: %w", err)
	}
	return true, nil
}

// Delete removes the object under key; missing keys are ignored
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Close drains the NATS connection
func (s *ObjectStore) Close() error {
	return s.conn.Drain()
}
