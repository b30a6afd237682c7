package core

import (
	"context"
	"errors"
)

var ErrAssetNotFound = errors.New("asset not found")

type (
	// Asset is a stored binary blob, typically a product image.
	Asset struct {
		Key         string
		ContentType string
		Data        []byte
	}

	// AssetStore persists uploaded binaries. Keys are opaque and generated by
	// the store on Put.
	AssetStore interface {
		PutAsset(ctx context.Context, contentType string, data []byte) (string, error)
		GetAsset(ctx context.Context, key string) (*Asset, error)
		DeleteAsset(ctx context.Context, key string) error
	}
)
