package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	q := NewInMemory(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	body, _ := json.Marshal(map[string]any{"alumno_id": 7, "clase_id": 3})
	if err := q.Publish(ctx, Message{Type: "asistencia", Body: body}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	select {
	case msg := <-messages:
		if msg.Type != "asistencia" {
			t.Errorf("type = %q", msg.Type)
		}
		var decoded struct {
			AlumnoID int64 `json:"alumno_id"`
		}
		if err := json.Unmarshal(msg.Body, &decoded); err != nil || decoded.AlumnoID != 7 {
			t.Errorf("body = %s (%v)", msg.Body, err)
		}
	case <-ctx.Done():
		t.Fatal("no message before timeout")
	}
}

func TestCrossProcess(t *testing.T) {
	t.Parallel()

	if CrossProcess("memory") {
		t.Error("the in-memory queue must not claim cross-process delivery")
	}
	if !CrossProcess("redis") {
		t.Error("the redis queue delivers across processes")
	}
}

func TestInMemoryPublishRespectsCancellation(t *testing.T) {
	t.Parallel()

	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())
	_ = q.Publish(ctx, Message{Type: "asistencia"})
	cancel()

	if err := q.Publish(ctx, Message{Type: "asistencia"}); err == nil {
		t.Fatal("publish into a full queue with cancelled context must fail")
	}
}
