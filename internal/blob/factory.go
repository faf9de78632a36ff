package blob

import (
	"context"
	"fmt"
	"os"
)

// Open selects a blob.Store implementation using environment variables.
//
//	STOCKTAKE_BLOB_DRIVER: fs|s3|memory (default fs)
//	STOCKTAKE_BLOB_FS_ROOT: directory root when driver=fs (default ./stocktake-files)
//	(S3 specific variables documented in internal/infra/blob/s3)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("STOCKTAKE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("STOCKTAKE_BLOB_FS_ROOT"))
	case DriverS3:
		return OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
