package clientstate

import (
	"context"
	"errors"

	"bazaar-dashboard/internal/domain"
	"bazaar-dashboard/pkg/storage"
)

// ObjectStore is the part of storage.R2Storage the backend needs.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	DeleteObject(ctx context.Context, key string) error
}

// ObjectBackend stores each key as one JSON object in a bucket.
type ObjectBackend struct {
	store ObjectStore
}

func NewObjectBackend(store ObjectStore) *ObjectBackend {
	return &ObjectBackend{store: store}
}

func (b *ObjectBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.store.GetObject(ctx, key+".json")
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, domain.ErrNotFound
	}
	return data, err
}

func (b *ObjectBackend) Put(ctx context.Context, key string, value []byte) error {
	return b.store.PutObject(ctx, key+".json", value, "application/json")
}

func (b *ObjectBackend) Delete(ctx context.Context, key string) error {
	return b.store.DeleteObject(ctx, key+".json")
}
