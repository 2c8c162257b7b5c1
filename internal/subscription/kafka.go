package subscription

import (
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// KafkaManager пишет события в один топик kafka, ключ сообщения - топик события.
// Каждый экземпляр читает все партиции с последнего смещения, поэтому
// события получают подписчики всех экземпляров.
// Публикация асинхронная: сообщение уходит во входной канал продюсера,
// ошибки доставки только логируются.
type KafkaManager struct {
	producer sarama.AsyncProducer
	consumer sarama.Consumer
	topic    string
	local    *SubscriptionManager
	logger   *zap.Logger

	partitions []sarama.PartitionConsumer
	wg         sync.WaitGroup
	closeOnce  sync.Once

	// closed защищает очередь от записи после Close
	pubMu         sync.RWMutex
	closed        bool
	queue         chan *sarama.ProducerMessage
	stop          chan struct{}
	forwarderDone chan struct{}
	errorsDrained chan struct{}
}

// kafkaPublishQueue - сколько сообщений ждут передачи продюсеру.
// При переполнении новые события отбрасываются.
const kafkaPublishQueue = 256

// NewKafkaConfig - конфигурация клиента: повторы по RetryDelay, ошибки
// продюсера и партиций возвращаются в каналы Errors.
func NewKafkaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "postgraph-" + uuid.NewString()
	cfg.Version = sarama.V2_8_0_0

	cfg.Metadata.Retry.BackoffFunc = func(retries, _ int) time.Duration {
		return RetryDelay(retries)
	}
	cfg.Producer.Retry.BackoffFunc = func(retries, _ int) time.Duration {
		return RetryDelay(retries)
	}
	cfg.Consumer.Retry.BackoffFunc = func(retries int) time.Duration {
		return RetryDelay(retries)
	}

	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Successes = false
	cfg.Producer.Return.Errors = true
	cfg.Consumer.Return.Errors = true
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest

	return cfg
}

func NewKafkaManager(brokers []string, topic string, logger *zap.Logger) (*KafkaManager, error) {
	cfg := NewKafkaConfig()

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create kafka producer: %w", err)
	}

	consumer, err := sarama.NewConsumer(brokers, cfg)
	if err != nil {
		_ = producer.Close()
		return nil, fmt.Errorf("could not create kafka consumer: %w", err)
	}

	m, err := newKafkaManager(producer, consumer, topic, logger)
	if err != nil {
		_ = consumer.Close()
		_ = producer.Close()
		return nil, err
	}
	return m, nil
}

func newKafkaManager(producer sarama.AsyncProducer, consumer sarama.Consumer, topic string, logger *zap.Logger) (*KafkaManager, error) {
	m := &KafkaManager{
		producer:      producer,
		consumer:      consumer,
		topic:         topic,
		local:         NewSubscriptionManager(),
		logger:        logger.Named("kafka"),
		queue:         make(chan *sarama.ProducerMessage, kafkaPublishQueue),
		stop:          make(chan struct{}),
		forwarderDone: make(chan struct{}),
		errorsDrained: make(chan struct{}),
	}

	partitions, err := consumer.Partitions(topic)
	if err != nil {
		return nil, fmt.Errorf("could not get partitions of %s: %w", topic, err)
	}

	for _, partition := range partitions {
		pc, err := consumer.ConsumePartition(topic, partition, sarama.OffsetNewest)
		if err != nil {
			m.closePartitions()
			return nil, fmt.Errorf("could not consume partition %s/%d: %w", topic, partition, err)
		}
		m.partitions = append(m.partitions, pc)

		m.wg.Add(1)
		go m.consume(partition, pc)
	}

	go m.forward()
	go m.drainErrors()

	m.logger.Info("kafka consumer up and running",
		zap.String("topic", topic),
		zap.Int("partitions", len(partitions)),
	)
	return m, nil
}

func (m *KafkaManager) Subscribe(topic string) (<-chan *model.Post, func()) {
	return m.local.Subscribe(topic)
}

func (m *KafkaManager) Publish(topic string, post *model.Post) {
	data, err := encodePost(post)
	if err != nil {
		m.logger.Error("failed to encode event", zap.String("topic", topic), zap.Error(err))
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: m.topic,
		Key:   sarama.StringEncoder(topic),
		Value: sarama.ByteEncoder(data),
	}

	m.pubMu.RLock()
	defer m.pubMu.RUnlock()
	if m.closed {
		return
	}

	// вызывающий не ждет продюсера
	select {
	case m.queue <- msg:
	default:
		m.logger.Warn("publish queue is full, event dropped", zap.String("topic", topic))
	}
}

// forward передает сообщения продюсеру в порядке публикации
func (m *KafkaManager) forward() {
	defer close(m.forwarderDone)

	for msg := range m.queue {
		select {
		case m.producer.Input() <- msg:
		case <-m.stop:
			// продюсер не принимает сообщения, а менеджер закрывается
			m.logger.Warn("producer is stalled, event dropped")
		}
	}
}

// drainErrors читает ошибки продюсера до его закрытия
func (m *KafkaManager) drainErrors() {
	defer close(m.errorsDrained)

	for perr := range m.producer.Errors() {
		topic := ""
		if perr.Msg != nil && perr.Msg.Key != nil {
			if key, err := perr.Msg.Key.Encode(); err == nil {
				topic = string(key)
			}
		}
		m.logger.Error("failed to publish event", zap.String("topic", topic), zap.Error(perr.Err))
	}
}

func (m *KafkaManager) consume(partition int32, pc sarama.PartitionConsumer) {
	defer m.wg.Done()

	messages, errs := pc.Messages(), pc.Errors()
	for messages != nil || errs != nil {
		select {
		case msg, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			post, err := decodePost(msg.Value)
			if err != nil {
				m.logger.Error("failed to decode event",
					zap.Int32("partition", partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
				continue
			}
			m.local.Publish(string(msg.Key), post)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.logger.Warn("kafka consumer error", zap.Int32("partition", partition), zap.Error(err))
		}
	}
}

func (m *KafkaManager) closePartitions() {
	for _, pc := range m.partitions {
		pc.AsyncClose()
	}
	m.wg.Wait()
}

func (m *KafkaManager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.closePartitions()

		if cerr := m.consumer.Close(); cerr != nil {
			err = fmt.Errorf("could not close kafka consumer: %w", cerr)
		}

		m.pubMu.Lock()
		m.closed = true
		close(m.queue)
		close(m.stop)
		m.pubMu.Unlock()
		<-m.forwarderDone

		// ошибки оставшихся сообщений попадут в лог через drainErrors
		m.producer.AsyncClose()
		<-m.errorsDrained

		_ = m.local.Close()
	})
	return err
}
