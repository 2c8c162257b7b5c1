package mocks

import (
	"context"
	"sync"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/internal/post"
)

// MockPostStorage оборачивает настоящее хранилище постов,
// позволяет подменить ошибки и считает вызовы Find (для проверки N+1).
type MockPostStorage struct {
	post.PostStorage

	mu        sync.Mutex
	FindErr   error
	SaveErr   error
	findCalls int
}

func NewMockPostStorage(storage post.PostStorage) *MockPostStorage {
	return &MockPostStorage{PostStorage: storage}
}

func (m *MockPostStorage) Find(ctx context.Context, filter post.Filter, relations ...string) ([]*model.Post, error) {
	m.mu.Lock()
	m.findCalls++
	err := m.FindErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.PostStorage.Find(ctx, filter, relations...)
}

func (m *MockPostStorage) Save(ctx context.Context, posts ...*model.Post) ([]*model.Post, error) {
	m.mu.Lock()
	err := m.SaveErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.PostStorage.Save(ctx, posts...)
}

// FindCalls - сколько раз вызывался Find
func (m *MockPostStorage) FindCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findCalls
}
