package subscription

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisChannelPrefix - префикс каналов redis, имя топика идет после него
const RedisChannelPrefix = "postgraph:"

// redisPublishQueue - сколько событий ждут отправки в redis.
// При переполнении новые события отбрасываются.
const redisPublishQueue = 256

type redisEvent struct {
	topic string
	data  []byte
}

// RedisManager публикует события в redis и раздает полученные из redis
// события локальным подписчикам. Так события доходят до подписчиков всех
// экземпляров сервера.
type RedisManager struct {
	client *redis.Client
	local  *SubscriptionManager
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	pubsub *redis.PubSub

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}

	queue         chan redisEvent
	publisherDone chan struct{}
}

func NewRedisManager(client *redis.Client, logger *zap.Logger) *RedisManager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &RedisManager{
		client: client,
		local:  NewSubscriptionManager(),
		logger: logger.Named("redis"),
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),

		queue:         make(chan redisEvent, redisPublishQueue),
		publisherDone: make(chan struct{}),
	}
	go m.listen()
	go m.publisher()

	return m
}

func (m *RedisManager) Subscribe(topic string) (<-chan *model.Post, func()) {
	return m.local.Subscribe(topic)
}

func (m *RedisManager) Publish(topic string, post *model.Post) {
	data, err := encodePost(post)
	if err != nil {
		m.logger.Error("failed to encode event", zap.String("topic", topic), zap.Error(err))
		return
	}

	if m.ctx.Err() != nil {
		return
	}

	// отправка идет в фоне, вызывающий не ждет redis
	select {
	case m.queue <- redisEvent{topic: topic, data: data}:
	default:
		m.logger.Warn("publish queue is full, event dropped", zap.String("topic", topic))
	}
}

// publisher отправляет события из очереди по одному, сохраняя порядок
func (m *RedisManager) publisher() {
	defer close(m.publisherDone)

	for {
		select {
		case <-m.ctx.Done():
			return
		case ev := <-m.queue:
			if err := m.client.Publish(m.ctx, RedisChannelPrefix+ev.topic, ev.data).Err(); err != nil {
				if m.ctx.Err() != nil {
					return
				}
				m.logger.Error("failed to publish event", zap.String("topic", ev.topic), zap.Error(err))
			}
		}
	}
}

// Ready закрывается после первой успешной подписки на каналы redis
func (m *RedisManager) Ready() <-chan struct{} {
	return m.ready
}

func (m *RedisManager) Close() error {
	m.cancel()

	m.mu.Lock()
	if m.pubsub != nil {
		_ = m.pubsub.Close()
	}
	m.mu.Unlock()

	<-m.done
	<-m.publisherDone
	return m.local.Close()
}

// listen держит подписку на redis и переподключается с задержкой RetryDelay
func (m *RedisManager) listen() {
	defer close(m.done)

	attempt := 0
	for {
		subscribed, err := m.receive()
		if m.ctx.Err() != nil {
			return
		}
		// после успешной подписки задержка считается заново
		if subscribed {
			attempt = 0
		}

		attempt++
		delay := RetryDelay(attempt)
		m.logger.Warn("redis subscription lost, reconnecting",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if !sleep(m.ctx, delay) {
			return
		}
	}
}

func (m *RedisManager) receive() (bool, error) {
	pubsub := m.client.PSubscribe(m.ctx, RedisChannelPrefix+"*")
	defer pubsub.Close()

	// ждем подтверждения подписки, иначе события до него потеряются
	if _, err := pubsub.Receive(m.ctx); err != nil {
		return false, err
	}

	m.mu.Lock()
	m.pubsub = pubsub
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.pubsub = nil
		m.mu.Unlock()
	}()

	m.readyOnce.Do(func() { close(m.ready) })
	m.logger.Info("subscribed to redis", zap.String("pattern", RedisChannelPrefix+"*"))

	for {
		msg, err := pubsub.ReceiveMessage(m.ctx)
		if err != nil {
			if errors.Is(err, redis.ErrClosed) {
				return true, nil
			}
			return true, err
		}

		post, err := decodePost([]byte(msg.Payload))
		if err != nil {
			m.logger.Error("failed to decode event", zap.String("channel", msg.Channel), zap.Error(err))
			continue
		}

		m.local.Publish(strings.TrimPrefix(msg.Channel, RedisChannelPrefix), post)
	}
}
