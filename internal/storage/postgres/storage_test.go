package postgres

import (
	"context"
	"testing"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/models"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite" // Импортируем драйвер SQLite
	"github.com/stretchr/testify/require"
)

// setupTestDB создает тестовую БД в памяти и выполняет миграции
func setupTestDB(t *testing.T) *gorm.DB {
	// Сохраняем оригинальное соединение (если оно есть)
	oldDB := GetDB()

	// Создаем SQLite в памяти
	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err, "Failed to connect to in-memory SQLite")

	// у каждого соединения своя база в памяти
	db.DB().SetMaxOpenConns(1)
	// Включаем foreign keys в SQLite
	require.NoError(t, enableForeignKeys(db))
	// Отключаем логирование запросов для тестов
	db.LogMode(false)
	// Выполняем миграцию схемы базы данных
	InitDBWithConnection(db)
	require.NoError(t, Migrate(), "Failed to migrate database schema")

	return oldDB
}

// teardownTestDB восстанавливает оригинальную базу данных
func teardownTestDB(db *gorm.DB) {
	if DB != nil {
		DB.Close()
	}
	InitDBWithConnection(db)
}

// createTestUser создает тестового пользователя и возвращает его ID
func createTestUser(t *testing.T, firstName string) uint {
	u := &models.User{
		FirstName: firstName,
		LastName:  "Tester",
		Age:       30,
	}

	err := DB.Create(u).Error
	require.NoError(t, err, "Failed to create test user")

	return u.ID
}

// createTestTag создает тестовый тег и возвращает его ID
func createTestTag(t *testing.T, name string) uint {
	tg := &models.Tag{Name: name}

	err := DB.Create(tg).Error
	require.NoError(t, err, "Failed to create test tag")

	return tg.ID
}

// createTestPost создает тестовый пост с тегами и возвращает его ID
func createTestPost(t *testing.T, authorID uint, title string, tagIDs ...uint) uint {
	p := &models.Post{
		Title:    title,
		Content:  title + " content",
		AuthorID: authorID,
	}
	for _, id := range tagIDs {
		p.Tags = append(p.Tags, models.Tag{Model: gorm.Model{ID: id}})
	}

	err := DB.Create(p).Error
	require.NoError(t, err, "Failed to create test post")

	return p.ID
}

func postIDs(posts []*model.Post) []string {
	result := make([]string, 0, len(posts))
	for _, p := range posts {
		result = append(result, p.ID)
	}
	return result
}

func tagIDs(tags []*model.Tag) []string {
	result := make([]string, 0, len(tags))
	for _, t := range tags {
		result = append(result, t.ID)
	}
	return result
}

var ctx = context.Background()
