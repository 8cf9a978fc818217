// Package mq 提供领域事件发布：Kafka 生产者与仅写日志的替代实现
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/storefront/pkg/logger"
)

// Publisher 领域事件发布接口
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers      []string
	WriteTimeout int
	MaxAttempts  int
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewProducer 创建 Kafka 生产者
func NewProducer(cfg KafkaConfig) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           time.Duration(cfg.WriteTimeout) * time.Second,
	}

	logger.Info(context.Background(), "Kafka producer created successfully", "brokers", cfg.Brokers)
	return &KafkaProducer{writer: writer}
}

// Publish 以 JSON 发送单条事件，同一 key 落在同一分区
func (kp *KafkaProducer) Publish(ctx context.Context, topic string, key string, event any) error {
	msg, err := BuildMessage(topic, key, event)
	if err != nil {
		return err
	}

	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		logger.Error(ctx, "Failed to send Kafka message",
			"topic", topic,
			"key", key,
			"error", err,
		)
		return err
	}

	logger.Debug(ctx, "Kafka message sent", "topic", topic, "key", key)
	return nil
}

// Close 关闭生产者
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}

// BuildMessage 将事件编码为 Kafka 消息，事件类型写入 header
func BuildMessage(topic, key string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	return kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(topic)},
		},
		Time: time.Now(),
	}, nil
}

// LogPublisher 未启用 Kafka 时使用，只记录事件
type LogPublisher struct{}

// NewLogPublisher 创建日志发布器
func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

// Publish 记录事件
func (LogPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	logger.Debug(ctx, "domain event", "topic", topic, "key", key, "payload", string(data))
	return nil
}
