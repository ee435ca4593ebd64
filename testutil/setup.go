package testutil

import (
	"strings"
	"testing"

	"github.com/morinoparty/dailyquest/server/cache"
	"github.com/morinoparty/dailyquest/server/config"
	dbadapter "github.com/morinoparty/dailyquest/server/db"
	"github.com/morinoparty/dailyquest/server/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates an in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Named shared in-memory DB: one isolated database per test,
	// usable from multiple connections within it.
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: "file:" + name + "?mode=memory&cache=shared",
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates a LocalCache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	cfg := cache.CacheConfig{} // empty RedisAddr → LocalCache
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	return c
}
