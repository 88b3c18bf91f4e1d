package pkg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// 房间生命周期事件，下游通知服务消费
const (
	EventRoomCreated    = "room_created"
	EventHostChanged    = "host_changed"
	EventRoomTerminated = "room_terminated"
)

type RoomEvent struct {
	Type   string    `json:"type"`
	RoomID uint64    `json:"room_id"`
	UserID uint64    `json:"user_id,omitempty"` // 事件主体：新房主/操作者
	At     time.Time `json:"at"`
}

type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func NewKafkaProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &KafkaProducer{writer: w, topic: cfg.Topic}, nil
}

func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// SendRoomEvent 以roomID为key保证同房间事件有序
func (p *KafkaProducer) SendRoomEvent(ctx context.Context, ev RoomEvent) error {
	if p == nil || p.writer == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", ev.RoomID)),
		Value: value,
	}
	return p.writer.WriteMessages(ctx, msg)
}
