package subscription

import (
	"sync"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/google/uuid"
)

// subscriberBuffer - сколько событий может накопить подписчик, не читая канал.
// Подписчик, переполнивший буфер, отключается.
const subscriberBuffer = 16

type subscriber struct {
	mu     sync.Mutex
	ch     chan *model.Post
	closed bool
}

// offer кладет событие в буфер без ожидания. false - буфер полон.
func (s *subscriber) offer(post *model.Post) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- post:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// SubscriptionManager - рассылка событий подписчикам внутри процесса.
// Publish никогда не ждет подписчиков: отстающий подписчик теряет поток,
// остальные получают каждое событие ровно один раз и в порядке публикации.
type SubscriptionManager struct {
	mu   sync.Mutex
	subs map[string]map[string]*subscriber // topic -> subscriberID -> подписчик
}

func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{
		subs: make(map[string]map[string]*subscriber),
	}
}

func (m *SubscriptionManager) Subscribe(topic string) (<-chan *model.Post, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	sub := &subscriber{ch: make(chan *model.Post, subscriberBuffer)}

	if m.subs[topic] == nil {
		m.subs[topic] = make(map[string]*subscriber)
	}
	m.subs[topic][id] = sub

	// функция для отписки
	cancel := func() {
		m.remove(topic, id)
		sub.close()
	}

	return sub.ch, cancel
}

func (m *SubscriptionManager) Publish(topic string, post *model.Post) {
	// снимок под локом, отправка без него
	m.mu.Lock()
	targets := make(map[string]*subscriber, len(m.subs[topic]))
	for id, sub := range m.subs[topic] {
		targets[id] = sub
	}
	m.mu.Unlock()

	for id, sub := range targets {
		if !sub.offer(post) {
			// подписчик не читает: закрываем его поток, чтобы не терять события молча
			m.remove(topic, id)
			sub.close()
		}
	}
}

func (m *SubscriptionManager) remove(topic, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs[topic], id)
	if len(m.subs[topic]) == 0 {
		delete(m.subs, topic)
	}
}

// Subscribers - количество активных подписчиков топика
func (m *SubscriptionManager) Subscribers(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[topic])
}

func (m *SubscriptionManager) Close() error {
	m.mu.Lock()
	subs := m.subs
	m.subs = make(map[string]map[string]*subscriber)
	m.mu.Unlock()

	for _, byID := range subs {
		for _, sub := range byID {
			sub.close()
		}
	}
	return nil
}
