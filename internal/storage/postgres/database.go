package postgres

import (
	"fmt"

	"github.com/VitaminP8/postgraph/internal/config"
	"github.com/VitaminP8/postgraph/models"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"go.uber.org/zap"
)

var DB *gorm.DB

// GetDB возвращает глобальную переменную DB (для тестирования)
func GetDB() *gorm.DB {
	return DB
}

// InitDB подключается к PostgreSQL или SQLite (в зависимости от cfg.Storage)
// и устанавливает глобальную переменную DB
func InitDB(cfg *config.Config) error {
	var (
		db  *gorm.DB
		err error
	)

	switch cfg.Storage {
	case config.StoragePostgres:
		db, err = gorm.Open("postgres", cfg.PostgresDSN())
	case config.StorageSQLite:
		db, err = gorm.Open("sqlite3", cfg.SQLitePath)
	default:
		return fmt.Errorf("storage %q is not backed by a database", cfg.Storage)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}

	if cfg.Storage == config.StorageSQLite {
		// PRAGMA действует на одно соединение
		db.DB().SetMaxOpenConns(1)
		if err := enableForeignKeys(db); err != nil {
			_ = db.Close()
			return err
		}
	}
	db.LogMode(cfg.DB.LogQueries)

	DB = db
	zap.L().Info("Successfully connected to the database.", zap.String("dialect", db.Dialect().GetName()))
	return nil
}

// enableForeignKeys включает проверку внешних ключей, в SQLite она выключена по умолчанию
func enableForeignKeys(db *gorm.DB) error {
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}

// Migrate создает/обновляет таблицы users, posts, tags и post_tags
func Migrate() error {
	err := DB.AutoMigrate(&models.User{}, &models.Post{}, &models.Tag{}).Error
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// CloseDB закрывает соединение с базой данных
func CloseDB() error {
	if DB == nil {
		return nil
	}

	err := DB.Close()
	if err != nil {
		return fmt.Errorf("failed to close the database connection: %w", err)
	}

	zap.L().Info("Database connection closed.")
	return nil
}

// InitDBWithConnection для тестирования (позволяет инъекцию соединения БД)
func InitDBWithConnection(db *gorm.DB) {
	DB = db
}
