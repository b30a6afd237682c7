package stores

import (
	"os"

	"overlaysnow/core"
	"overlaysnow/stores/aws"
	"overlaysnow/stores/filesystem"
	"overlaysnow/stores/memory"
	"overlaysnow/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// Store is a union interface covering every resource the API serves.
type Store interface {
	core.UserStore
	core.CategoryStore
	core.ProductStore
	core.CartStore
	core.OrderStore
}

// GetStore selects the storage backend from STORAGE_TYPE. The in-memory
// store is the default and comes pre-seeded with the demo catalog.
func GetStore() Store {
	storageType := os.Getenv("STORAGE_TYPE")
	var store Store

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "overlaysnow.db" // Default filename
		}
		storageField["dataSourceName"] = dataSourceName
		store = sqlite.NewStore(dataSourceName)
	default:
		store = memory.NewSeededStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}

// GetAssetStore selects the product-image backend from ASSET_STORAGE_TYPE.
func GetAssetStore() core.AssetStore {
	storageType := os.Getenv("ASSET_STORAGE_TYPE")
	var store core.AssetStore

	storageField := logrus.Fields{
		"assetStorageType": storageType,
	}

	switch storageType {
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			logrus.Fatal("S3_BUCKET_NAME environment variable must be set for s3 asset storage")
		}
		storageField["bucketName"] = bucketName
		store = aws.NewStore(bucketName)
	default:
		basePath := os.Getenv("LOCAL_STORAGE_PATH")
		if basePath == "" {
			basePath = "./data" // Default path
		}
		storageField["basePath"] = basePath
		storageField["assetStorageType"] = "filesystem"
		store = filesystem.NewStore(basePath)
	}
	logrus.WithFields(storageField).Info("Use asset storage")
	return store
}
