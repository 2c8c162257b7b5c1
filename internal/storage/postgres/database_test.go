package postgres

import (
	"path/filepath"
	"testing"

	"github.com/VitaminP8/postgraph/internal/config"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDB(t *testing.T) {
	// Сохраняем текущее значение DB
	originalDB := DB

	// Создаем тестовую БД
	testDB, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer testDB.Close()

	// Устанавливаем тестовую БД
	DB = testDB

	// Проверяем, что GetDB возвращает установленную БД
	result := GetDB()
	assert.Equal(t, DB, result)

	// Восстанавливаем исходное значение
	DB = originalDB
}

func TestInitDBWithConnection(t *testing.T) {
	originalDB := DB

	testDB, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer testDB.Close()

	InitDBWithConnection(testDB)
	assert.Equal(t, testDB, DB)

	DB = originalDB
}

// Тест для проверки поведения CloseDB с NULL-базой данных
func TestCloseDBWithNilDB(t *testing.T) {
	originalDB := DB

	DB = nil

	err := CloseDB()
	assert.NoError(t, err)

	DB = originalDB
}

func TestInitDB_SQLite(t *testing.T) {
	originalDB := DB
	defer func() { DB = originalDB }()

	cfg := &config.Config{
		Storage:    config.StorageSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "postgraph.db"),
	}

	require.NoError(t, InitDB(cfg))
	require.NoError(t, Migrate())

	assert.True(t, DB.HasTable("users"))
	assert.True(t, DB.HasTable("posts"))
	assert.True(t, DB.HasTable("tags"))
	assert.True(t, DB.HasTable("post_tags"))
	assert.Equal(t, "sqlite3", dialectName())

	assert.NoError(t, CloseDB())
}

func TestInitDB_MemoryStorage(t *testing.T) {
	err := InitDB(&config.Config{Storage: config.StorageMemory})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not backed by a database")
}

func TestEnableForeignKeys(t *testing.T) {
	t.Run("Enables foreign key checks", func(t *testing.T) {
		db, err := gorm.Open("sqlite3", ":memory:")
		require.NoError(t, err)
		defer db.Close()
		db.DB().SetMaxOpenConns(1)

		require.NoError(t, enableForeignKeys(db))

		var enabled int
		require.NoError(t, db.Raw("PRAGMA foreign_keys").Row().Scan(&enabled))
		assert.Equal(t, 1, enabled)
	})

	t.Run("Returns error of closed connection", func(t *testing.T) {
		db, err := gorm.Open("sqlite3", ":memory:")
		require.NoError(t, err)
		require.NoError(t, db.Close())

		err = enableForeignKeys(db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to enable foreign keys")
	})
}

// Примечание: InitDB с PostgreSQL не тестируется, так как требует настоящую базу данных.
