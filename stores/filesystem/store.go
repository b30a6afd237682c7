package filesystem

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"overlaysnow/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based asset store.
func NewStore(basePath string) *fsStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		log.Fatalf("failed to create base directory: %v", err)
	}
	return &fsStore{basePath: basePath}
}

// assetPath validates the key and maps it to a file under basePath. Keys are
// generated by PutAsset and must never be path-like.
func (s *fsStore) assetPath(key string) (string, error) {
	if key == "" || filepath.Base(key) != key || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid asset key")
	}
	return filepath.Join(s.basePath, key), nil
}

func (s *fsStore) PutAsset(ctx context.Context, contentType string, data []byte) (string, error) {
	key := "asset_" + ulid.Make().String()
	filePath := filepath.Join(s.basePath, key)
	log := logrus.WithFields(logrus.Fields{
		"asset_key": key,
		"file_path": filePath,
		"size":      len(data),
	})

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write asset")
		return "", err
	}
	// Content type lives in a sidecar file so the data file stays raw.
	if err := os.WriteFile(filePath+".type", []byte(contentType), 0644); err != nil {
		log.WithError(err).Error("Failed to write asset metadata")
		return "", err
	}

	log.Info("Asset stored")
	return key, nil
}

func (s *fsStore) GetAsset(ctx context.Context, key string) (*core.Asset, error) {
	filePath, err := s.assetPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrAssetNotFound
		}
		logrus.WithError(err).WithField("asset_key", key).Error("Failed to read asset")
		return nil, err
	}

	contentType, err := os.ReadFile(filePath + ".type")
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return &core.Asset{
		Key:         key,
		ContentType: string(contentType),
		Data:        data,
	}, nil
}

func (s *fsStore) DeleteAsset(ctx context.Context, key string) error {
	filePath, err := s.assetPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			// Already gone, the goal is achieved.
			return nil
		}
		return err
	}
	os.Remove(filePath + ".type")
	return nil
}
