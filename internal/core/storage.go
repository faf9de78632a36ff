package core

import (
	"fmt"
	"os"
	"stocktake/internal/infra/persistence/memory"
	"stocktake/internal/infra/persistence/postgres"
	"stocktake/internal/infra/persistence/redis"
	"stocktake/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageRedis    StorageDriver = "redis"    // Redis keys
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	STOCKTAKE_STORAGE_DRIVER: memory|sqlite|postgres|redis (default sqlite)
//	STOCKTAKE_SQLITE_PATH: path to sqlite file (default ./stocktake.db)
//	STOCKTAKE_POSTGRES_DSN: postgres DSN when driver=postgres
//	STOCKTAKE_REDIS_ADDR: host:port when driver=redis (default localhost:6379)
//	STOCKTAKE_REDIS_PREFIX: key prefix when driver=redis (default stocktake:)
func OpenPersistentStore() (PersistentStore, error) {
	driver := os.Getenv("STOCKTAKE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		store, err := sqlite.NewStore(os.Getenv("STOCKTAKE_SQLITE_PATH"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(os.Getenv("STOCKTAKE_POSTGRES_DSN"))
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageRedis:
		store, err := redis.NewStore(os.Getenv("STOCKTAKE_REDIS_ADDR"), os.Getenv("STOCKTAKE_REDIS_PREFIX"))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
