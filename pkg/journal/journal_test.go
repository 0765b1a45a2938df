package journal

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"blogfront/pkg/controller"
)

type memWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

func TestMain(m *testing.M) {
	log.SetLevel(log.PanicLevel)
	exitCode := m.Run()
	os.Exit(exitCode)
}

func TestJournal_Observe(t *testing.T) {
	tests := []struct {
		name    string
		outcome controller.Outcome
		want    Entry
	}{
		{
			name:    "Success",
			outcome: controller.Outcome{Action: controller.ActionLike, PostID: "7", RequestID: "req-1", Duration: 250 * time.Millisecond},
			want:    Entry{Action: "like", PostID: "7", RequestID: "req-1", Status: StatusOK, Duration: 0.25, Service: "blogfront"},
		},
		{
			name:    "Failure",
			outcome: controller.Outcome{Action: controller.ActionComment, PostID: "42", Username: "alice", RequestID: "req-2", Err: errors.New("boom")},
			want:    Entry{Action: "comment", PostID: "42", Username: "alice", RequestID: "req-2", Status: StatusFailed, Error: "boom", Service: "blogfront"},
		},
		{
			name:    "Declined",
			outcome: controller.Outcome{Action: controller.ActionDelete, PostID: "3", Declined: true},
			want:    Entry{Action: "delete", PostID: "3", Status: StatusDeclined, Service: "blogfront"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &memWriter{}
			j := New("blogfront", w)

			j.Observe(tt.outcome)
			if err := j.Close(); err != nil {
				t.Fatalf("unexpected error closing journal: %v", err)
			}

			if len(w.msgs) != 1 {
				t.Fatalf("want 1 message, got %d", len(w.msgs))
			}
			if string(w.msgs[0].Key) != tt.want.PostID {
				t.Errorf("want message key %q, got %q", tt.want.PostID, w.msgs[0].Key)
			}

			var got Entry
			if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
				t.Fatalf("failed to unmarshal entry: %v", err)
			}
			if got.Timestamp.IsZero() {
				t.Error("want non-zero timestamp")
			}
			got.Timestamp = time.Time{}
			if got != tt.want {
				t.Errorf("want entry\n%+v\ngot\n%+v", tt.want, got)
			}
			if !w.closed {
				t.Error("want writer closed")
			}
		})
	}
}

func TestJournal_WriteErrorIsSwallowed(t *testing.T) {
	w := &memWriter{err: errors.New("broker down")}
	j := New("blogfront", w)

	j.Observe(controller.Outcome{Action: controller.ActionLike, PostID: "7"})
	if err := j.Close(); err != nil {
		t.Errorf("unexpected error closing journal: %v", err)
	}
	if len(w.msgs) != 0 {
		t.Errorf("want no messages, got %d", len(w.msgs))
	}
}

func TestJournal_ObserveAfterClose(t *testing.T) {
	w := &memWriter{}
	j := New("blogfront", w)

	if err := j.Close(); err != nil {
		t.Fatalf("unexpected error closing journal: %v", err)
	}
	j.Observe(controller.Outcome{Action: controller.ActionLike, PostID: "7"})
	if err := j.Close(); err != nil {
		t.Errorf("unexpected error on second close: %v", err)
	}

	if len(w.msgs) != 0 {
		t.Errorf("want no messages after close, got %d", len(w.msgs))
	}
}

func TestJournal_ObserveConcurrentWithClose(t *testing.T) {
	w := &memWriter{}
	j := New("blogfront", w)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.Observe(controller.Outcome{Action: controller.ActionLike, PostID: "7"})
		}()
	}
	if err := j.Close(); err != nil {
		t.Errorf("unexpected error closing journal: %v", err)
	}
	wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.msgs) > 20 {
		t.Errorf("want at most 20 messages, got %d", len(w.msgs))
	}
}
