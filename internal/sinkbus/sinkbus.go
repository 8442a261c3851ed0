// Package sinkbus supplements the reference implementation's in-process
// sink story (a plain Vec<bytes> collector, §4.5) with an optional
// external export/ingest path: sink events optionally get republished to
// an AMQP topic via watermill, guarded by a circuit breaker so a broker
// whose publishes keep failing degrades to local-only collection (each
// publish still runs synchronously inside the Push that triggered it); and
// an AMQP-driven EventSource lets an external system inject events the
// same way a model's own address would.
//
// Grounded on the teacher's internal/adapter/pubsub (message.Publisher
// usage, topic-per-routing-key dispatch) and internal/handler/amqp
// (decode-then-deliver consumer shape), generalized from chat-delivery
// events to arbitrary JSON-encoded simulation payloads.
package sinkbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sony/gobreaker"

	"github.com/nexosim/nexosim-go/internal/simulation"
)

// Exportable is implemented by sink payloads that name their own AMQP
// routing key, the same contract the teacher's event.Exportable marker
// gives model output destined for cross-node fan-out. Nothing in this
// package consults it: a Sink publishes every value to its own fixed topic.
type Exportable interface {
	RoutingKey() string
}

// Bus republishes sink pushes onto an external watermill Publisher,
// wrapping every publish in a circuit breaker: once publishes return
// errors repeatedly, the breaker trips and Export becomes a no-op until it
// recovers. The breaker counts errors only; Export sets no timeout of its
// own, so a Publish call that blocks also blocks Export's caller.
type Bus struct {
	logger    *slog.Logger
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
}

// New wraps publisher with a circuit breaker named for logging/metrics
// purposes. Settings mirror a conservative default: trip after 5
// consecutive failures, stay open 10s, then allow one trial request.
func New(logger *slog.Logger, publisher message.Publisher) *Bus {
	settings := gobreaker.Settings{
		Name:        "sinkbus-export",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("sinkbus breaker state change", slog.String("breaker", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	}
	return &Bus{
		logger:    logger,
		publisher: publisher,
		breaker:   gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Export publishes v (already JSON-encoded by the sink) to topic, subject
// to the breaker. A breaker-open error is swallowed: local collection via
// EventSink.Collect already happened, so export failure never loses the
// event, only its cross-node visibility.
func (b *Bus) Export(ctx context.Context, topic string, payload []byte) {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)
		return struct{}{}, b.publisher.Publish(topic, msg)
	})
	if err != nil {
		b.logger.Warn("sinkbus export dropped", slog.String("topic", topic), slog.Any("err", err))
	}
}

// Sink wraps a simulation.EventSink so every Push made while the sink is
// open also exports the value, synchronously within Push, via Bus.Export,
// without changing Collect/Open/Close semantics for local
// callers (internal/rpc's ReadEvents keeps working exactly as before).
type Sink struct {
	simulation.EventSink
	bus   *Bus
	topic string
}

// Wrap returns a Sink that exports alongside the given inner sink.
func Wrap(inner simulation.EventSink, bus *Bus, topic string) *Sink {
	return &Sink{EventSink: inner, bus: bus, topic: topic}
}

func (s *Sink) Push(v any) {
	s.EventSink.Push(v)
	if !s.IsOpen() {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.bus.Export(context.Background(), s.topic, payload)
}

// AmqpEventSource decodes inbound broker messages and feeds them to a
// named event source, letting the simulation be driven by an external
// system in addition to the embedded API (spec §4.5's Out-of-scope note
// on "external collaborators" names exactly this kind of bridge).
type AmqpEventSource struct {
	logger *slog.Logger
}

// NewAmqpEventSource returns a source ready to be handed to
// RegisterHandlers.
func NewAmqpEventSource(logger *slog.Logger) *AmqpEventSource {
	return &AmqpEventSource{logger: logger}
}

// RegisterHandlers wires one no-publish handler per (topic, target event
// source) pair onto router, mirroring the teacher's
// internal/handler/amqp.Bind: decode the message body as the source's
// expected payload, then deliver it immediately via
// simulation.EventSource.Send, ACK-ing regardless of delivery outcome
// since a poison message should never block the queue (matching the
// teacher's "ACK: Invalid routing is a terminal state" comment).
func (a *AmqpEventSource) RegisterHandlers(router *message.Router, subscriber message.Subscriber, sim *simulation.Simulation, bindings map[string]string) error {
	for topic, sourceName := range bindings {
		sourceName := sourceName
		router.AddNoPublisherHandler(
			fmt.Sprintf("nexosim-ingest-%s", topic),
			topic,
			subscriber,
			func(msg *message.Message) error {
				source, ok := sim.Endpoints().EventSource(sourceName)
				if !ok {
					a.logger.Warn("ingest: unknown event source", slog.String("source", sourceName))
					return nil
				}
				payload, err := source.Decode(msg.Payload)
				if err != nil {
					a.logger.Warn("ingest: decode failed", slog.String("source", sourceName), slog.Any("err", err))
					return nil
				}
				if err := source.Send(sim, payload); err != nil {
					a.logger.Error("ingest: delivery failed", slog.String("source", sourceName), slog.Any("err", err))
				}
				return nil
			},
		)
	}
	return nil
}
