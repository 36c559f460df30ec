package lightauth

// Helpers to create SQLite connection pools with defaults that work for the
// auth store. When the host application talks to the same database directly,
// share a single pool between it and lightauth; two pools on one file invite
// SQLITE_BUSY errors.

import (
	"fmt"
	"runtime"

	crawshawPool "crawshaw.io/sqlite/sqlitex"
	zombiezenPool "zombiezen.com/go/sqlite/sqlitex"
)

// NewCrawshawPool opens a crawshaw SQLite pool on dbPath, sized to the
// machine, with the driver's defaults (WAL enabled).
func NewCrawshawPool(dbPath string) (*crawshawPool.Pool, error) {
	pool, err := crawshawPool.Open(fmt.Sprintf("file:%s", dbPath), 0, runtime.NumCPU())
	if err != nil {
		return nil, fmt.Errorf("failed to create crawshaw pool at %s: %w", dbPath, err)
	}
	return pool, nil
}

// NewZombiezenPool opens a zombiezen SQLite pool on dbPath, sized to the
// machine, with the driver's defaults (WAL enabled).
func NewZombiezenPool(dbPath string) (*zombiezenPool.Pool, error) {
	pool, err := zombiezenPool.NewPool(fmt.Sprintf("file:%s", dbPath), zombiezenPool.PoolOptions{
		PoolSize: runtime.NumCPU(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create zombiezen pool at %s: %w", dbPath, err)
	}
	return pool, nil
}
