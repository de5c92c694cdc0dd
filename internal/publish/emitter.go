package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rescuelink/telemetry-simulator/internal/logging"
	"github.com/rescuelink/telemetry-simulator/model"
)

// Emitter routes topic classes onto the bus through the mapping table, so
// producers never carry per-topic knowledge. It implements core.Sink.
type Emitter struct {
	pub     Publisher
	topics  map[string]model.TopicSpec
	log     logging.Logger
	stats   *Stats
	tracer  trace.Tracer
	timeout time.Duration
}

// DefaultEmitTimeout bounds a single publish, including the QoS handshake.
const DefaultEmitTimeout = 5 * time.Second

// NewEmitter constructs an emitter over the given publisher and mapping
// table. stats may be nil.
func NewEmitter(pub Publisher, topics map[string]model.TopicSpec, log logging.Logger, stats *Stats) *Emitter {
	if log == nil {
		log = logging.Noop()
	}
	return &Emitter{
		pub:     pub,
		topics:  topics,
		log:     log,
		stats:   stats,
		tracer:  otel.Tracer("telemetry-simulator/publish"),
		timeout: DefaultEmitTimeout,
	}
}

// Emit marshals the payload and publishes it on the topic mapped to class.
// An unknown class is a programming error and is reported as one.
func (e *Emitter) Emit(ctx context.Context, class string, payload any) error {
	spec, ok := e.topics[class]
	if !ok {
		return fmt.Errorf("no topic mapping for class %q", class)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", class, err)
	}

	ctx, span := e.tracer.Start(ctx, "publish",
		trace.WithAttributes(
			attribute.String("messaging.destination", spec.Topic),
			attribute.String("telemetry.class", class),
			attribute.Int("messaging.qos", int(spec.QoS)),
		),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err = e.pub.Publish(ctx, spec.Topic, data, Options{QoS: spec.QoS, Retain: spec.Retain})
	e.stats.RecordPublish(class, err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return fmt.Errorf("publish %s: %w", class, err)
	}
	return nil
}
