package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roombook/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("R1").
		WithValue(map[string]string{"booking_id": "b1"}).
		WithEventType("booking.created").
		WithCorrelationID("req-1").
		WithSource("bookings").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if msg.GetEventID() == "" {
		t.Error("event id should be generated")
	}
	if msg.GetEventType() != "booking.created" || msg.GetCorrelationID() != "req-1" {
		t.Errorf("unexpected headers %v", msg.Headers)
	}
	if _, ok := msg.GetHeader(HeaderTimestamp); !ok {
		t.Error("timestamp header should be set")
	}

	var payload map[string]string
	if err := msg.DecodeValue(&payload); err != nil || payload["booking_id"] != "b1" {
		t.Errorf("DecodeValue = %v, %v", payload, err)
	}
}

func TestMessageBuilder_EncodingError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	if msg.GetRetryCount() != 0 {
		t.Fatal("fresh message should have no retries")
	}
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("GetRetryCount = %d, want 12", got)
	}
}

func TestProducer_Publish(t *testing.T) {
	writer := &fakeWriter{}
	p := newProducer(writer, "booking-events")

	var order []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "outer")
		return next(ctx, msg)
	})
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "inner")
		if msg.Topic != "booking-events" {
			t.Errorf("middleware should see the topic, got %q", msg.Topic)
		}
		return next(ctx, msg)
	})

	msg, _ := NewMessage().WithKey("R1").WithValue("x").WithEventType("booking.created").Build()
	if err := p.Publish(context.Background(), msg); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("middleware order = %v", order)
	}
	if len(writer.messages) != 1 || string(writer.messages[0].Key) != "R1" {
		t.Fatalf("unexpected written messages %v", writer.messages)
	}
	found := false
	for _, h := range writer.messages[0].Headers {
		if h.Key == HeaderEventType && string(h.Value) == "booking.created" {
			found = true
		}
	}
	if !found {
		t.Error("event type header not written")
	}
}

func TestProducer_Errors(t *testing.T) {
	writer := &fakeWriter{}
	p := newProducer(writer, "booking-events")

	if err := p.Publish(context.Background(), Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}

	writer.err = errors.New("broker down")
	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}); err == nil {
		t.Error("expected write error")
	}

	_ = p.Close()
	if !writer.closed {
		t.Error("writer should be closed")
	}
	if err := p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")}); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
}

func TestConsumer_RetriesTransientThenCommits(t *testing.T) {
	reader := &fakeReader{queue: []kafka.Message{{Offset: 1}, {Offset: 2}}}

	var mu sync.Mutex
	calls := map[int64]int{}
	handler := func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		calls[msg.Offset]++
		if msg.Offset == 1 && calls[msg.Offset] < 3 {
			return &KafkaError{Type: ErrorTypeTransient, Message: "flaky", Err: errors.New("connection reset")}
		}
		if msg.Offset == 2 {
			return NewPermanentError("bad payload", nil)
		}
		return nil
	}

	c := newConsumer(reader, "booking-events", "audit", handler, logger.Discard())
	c.maxRetries = 5

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(reader.committedOffsets()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("timed out, committed %v", reader.committedOffsets())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start returned %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls[1] != 3 {
		t.Errorf("transient message handled %d times, want 3", calls[1])
	}
	if calls[2] != 1 {
		t.Errorf("permanent failure must not be retried, handled %d times", calls[2])
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorType
	}{
		{nil, ErrorTypeUnknown},
		{context.DeadlineExceeded, ErrorTypeTransient},
		{errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{NewPermanentError("bad", nil), ErrorTypePermanent},
		{errors.New("json: cannot unmarshal"), ErrorTypePermanent},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}

	if ShouldRetry(context.DeadlineExceeded, 3, 3) {
		t.Error("retries exhausted")
	}
}
