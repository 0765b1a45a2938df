// Package journal ships one record per finished page action to Kafka.
package journal

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"blogfront/pkg/controller"
)

const writeTimeout = 10 * time.Second

const (
	StatusOK       = "ok"
	StatusFailed   = "failed"
	StatusDeclined = "declined"
)

type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	PostID    string    `json:"post_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Duration  float64   `json:"duration_sec"`
	Service   string    `json:"service"`
}

// MessageWriter is the part of *kafka.Writer the journal uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Journal struct {
	service string
	w       MessageWriter
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func New(service string, w MessageWriter) *Journal {
	return &Journal{service: service, w: w}
}

// NewKafkaWriter returns a writer for the topic on the broker at addr.
func NewKafkaWriter(addr, topic string, batch int) *kafka.Writer {
	return &kafka.Writer{
		Addr:      kafka.TCP(addr),
		Topic:     topic,
		BatchSize: batch,
	}
}

// CreateTopic creates a single partition topic. It fails if the topic exists.
func CreateTopic(broker, topic string) error {
	conn, err := kafka.DialContext(context.Background(), "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}

// Observe writes the outcome in the background. Write errors are logged only.
// Outcomes arriving after Close are dropped.
func (j *Journal) Observe(o controller.Outcome) {
	entry := j.entry(o)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		log.Debugf("[journal] closed, %s entry for post %s dropped", entry.Action, entry.PostID)
		return
	}

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		jsonEntry, err := json.Marshal(entry)
		if err != nil {
			log.Errorf("[journal] failed to marshal entry for request %s", entry.RequestID)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		err = j.w.WriteMessages(ctx, kafka.Message{Key: []byte(entry.PostID), Value: jsonEntry})
		if err != nil {
			log.Errorf("[journal] failed to write entry to Kafka: %v", err)
			return
		}
		log.Debugf("[journal] entry sent to Kafka request_id:%s", entry.RequestID)
	}()
}

// Close waits for pending writes and closes the writer when it can be closed.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	j.mu.Unlock()

	j.wg.Wait()
	if c, ok := j.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (j *Journal) entry(o controller.Outcome) Entry {
	e := Entry{
		Timestamp: time.Now(),
		Action:    string(o.Action),
		PostID:    o.PostID,
		Username:  o.Username,
		RequestID: o.RequestID,
		Status:    StatusOK,
		Duration:  o.Duration.Seconds(),
		Service:   j.service,
	}
	switch {
	case o.Declined:
		e.Status = StatusDeclined
	case o.Err != nil:
		e.Status = StatusFailed
		e.Error = o.Err.Error()
	}

	return e
}
