package mocks

import (
	"sync"

	"github.com/VitaminP8/postgraph/graph/model"
)

type MockSubscriptionManager struct {
	mu            sync.Mutex
	subs          map[string][]chan *model.Post // topic -> список каналов подписчиков
	notifications map[string][]*model.Post      // Для отслеживания в тестах
}

func NewMockSubscriptionManager() *MockSubscriptionManager {
	return &MockSubscriptionManager{
		subs:          make(map[string][]chan *model.Post),
		notifications: make(map[string][]*model.Post),
	}
}

func (m *MockSubscriptionManager) Subscribe(topic string) (<-chan *model.Post, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan *model.Post, 16)

	m.subs[topic] = append(m.subs[topic], ch)

	// функция для отписки
	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subscribers := m.subs[topic]
		for i, sub := range subscribers {
			if sub == ch {
				// Удаляем подписчика
				m.subs[topic] = append(subscribers[:i], subscribers[i+1:]...)
				close(ch)
				break
			}
		}
	}

	return ch, cancel
}

// Publish не блокируется: если буфер подписчика полон, событие ему не доставляется
func (m *MockSubscriptionManager) Publish(topic string, post *model.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs[topic] {
		select {
		case sub <- post:
		default:
		}
	}

	// Сохраняем уведомление для тестирования
	m.notifications[topic] = append(m.notifications[topic], post)
}

// GetNotifications - вспомогательный метод для тестирования,
// возвращает все опубликованные события топика
func (m *MockSubscriptionManager) GetNotifications(topic string) []*model.Post {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*model.Post(nil), m.notifications[topic]...)
}

// Subscribers - количество активных подписчиков топика
func (m *MockSubscriptionManager) Subscribers(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[topic])
}
