package sinkbus

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/nexosim/nexosim-go/internal/examplemodels"
	"github.com/nexosim/nexosim-go/internal/simulation"
	"github.com/nexosim/nexosim-go/internal/stime"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGoChannelPubSub(logger *slog.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(logger))
}

func TestBusExportPublishesToTopic(t *testing.T) {
	logger := testLogger()
	pubsub := newGoChannelPubSub(logger)
	defer pubsub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := pubsub.Subscribe(ctx, "nexosim.test.topic")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	bus := New(logger, pubsub)
	bus.Export(ctx, "nexosim.test.topic", []byte(`{"value":7}`))

	select {
	case msg := <-messages:
		msg.Ack()
		var payload struct{ Value int }
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if payload.Value != 7 {
			t.Fatalf("expected value 7, got %d", payload.Value)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for exported message")
	}
}

func TestSinkWrapOnlyExportsWhileOpen(t *testing.T) {
	logger := testLogger()
	pubsub := newGoChannelPubSub(logger)
	defer pubsub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := pubsub.Subscribe(ctx, "nexosim.counter.history")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	bus := New(logger, pubsub)
	inner := simulation.NewEventSink[int64]()
	wrapped := Wrap(inner, bus, "nexosim.counter.history")

	// Closed: Push is dropped, neither collected locally nor exported.
	wrapped.Push(int64(1))
	select {
	case <-messages:
		t.Fatalf("did not expect an export while the sink is closed")
	case <-time.After(200 * time.Millisecond):
	}

	wrapped.Open()
	wrapped.Push(int64(2))
	select {
	case msg := <-messages:
		msg.Ack()
		var v int64
		if err := json.Unmarshal(msg.Payload, &v); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if v != 2 {
			t.Fatalf("expected exported value 2, got %d", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for exported message once open")
	}

	collected, err := wrapped.Collect()
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(collected) != 1 {
		t.Fatalf("expected only the push made while open to be collected locally, got %d", len(collected))
	}
}

func TestAmqpEventSourceDeliversIngestedMessages(t *testing.T) {
	logger := testLogger()
	pubsub := newGoChannelPubSub(logger)
	defer pubsub.Close()

	init := examplemodels.Build(16, nil)
	sim := init.Init(stime.Zero)

	sink, ok := sim.Endpoints().Sink("counter.history")
	if !ok {
		t.Fatalf("expected counter.history sink")
	}
	sink.Open()

	router, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	source := NewAmqpEventSource(logger)
	bindings := map[string]string{"nexosim.ingest.counter.add": "counter.add"}
	if err := source.RegisterHandlers(router, pubsub, sim, bindings); err != nil {
		t.Fatalf("register handlers: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = router.Run(ctx)
	}()
	<-router.Running()

	payload, _ := json.Marshal(int64(9))
	if _, err := pubsub.Publish("nexosim.ingest.counter.add", message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		events, err := sink.Collect()
		if err != nil {
			t.Fatalf("collect: %v", err)
		}
		if len(events) == 1 {
			var total int64
			if err := json.Unmarshal(events[0], &total); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if total != 9 {
				t.Fatalf("expected total 9, got %d", total)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for ingested event to reach the sink")
		case <-time.After(20 * time.Millisecond):
		}
	}

	_ = router.Close()
}
