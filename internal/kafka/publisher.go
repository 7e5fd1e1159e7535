package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/mrussa/orderbridge/internal/everstox"
)

const (
	RunIDHeader = "run_id"

	batchTimeout = 100 * time.Millisecond
	retryBase    = 300 * time.Millisecond
	maxAttempts  = 3
)

var ErrNoBrokers = errors.New("kafka: no brokers configured")

var tracer = otel.Tracer("orderbridge/kafka")

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var newWriter = func(brokers []string, topic string) writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireAll,
	}
}

type Encoder func(everstox.Order) ([]byte, error)
type Validator func(everstox.Order) error

func defaultEncode(o everstox.Order) ([]byte, error) { return json.Marshal(o) }

func defaultValidate(o everstox.Order) error {
	if o.OrderNumber == "" {
		return fmt.Errorf("field order_number: empty")
	}
	if len(o.OrderItems) == 0 {
		return fmt.Errorf("field order_items: empty")
	}
	return nil
}

// Publisher emits one message per prepared everstox order, keyed by order
// number so every order of a shop lands on the same partition.
type Publisher struct {
	Brokers []string
	Topic   string

	Logf     func(string, ...any)
	Encode   Encoder
	Validate Validator

	RetryBase   time.Duration
	MaxAttempts int

	w     writer
	sleep func(time.Duration)
}

func NewPublisher(brokers []string, topic string, logf func(string, ...any)) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	p := &Publisher{
		Brokers:     brokers,
		Topic:       topic,
		Logf:        logf,
		Encode:      defaultEncode,
		Validate:    defaultValidate,
		RetryBase:   retryBase,
		MaxAttempts: maxAttempts,
		w:           newWriter(brokers, topic),
		sleep:       time.Sleep,
	}
	logf("[KAFKA] writer ready (topic=%s brokers=%v)", topic, brokers)
	return p, nil
}

// PublishOrders writes the run's orders as one batch. Orders that fail
// validation are skipped; the returned count is what was written.
func (p *Publisher) PublishOrders(ctx context.Context, runID string, orders []everstox.Order) (int, error) {
	ctx, span := tracer.Start(ctx, "send "+p.Topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(p.Topic),
			semconv.MessagingBatchMessageCount(len(orders)),
		),
	)
	defer span.End()

	msgs := make([]kafka.Message, 0, len(orders))
	for _, o := range orders {
		if err := p.Validate(o); err != nil {
			p.Logf("[KAFKA] skip %q: %v", o.OrderNumber, err)
			continue
		}
		val, err := p.Encode(o)
		if err != nil {
			p.Logf("[KAFKA] encode %q: %v", o.OrderNumber, err)
			continue
		}
		msg := kafka.Message{
			Key:     []byte(o.OrderNumber),
			Value:   val,
			Headers: []kafka.Header{{Key: RunIDHeader, Value: []byte(runID)}},
		}
		otel.GetTextMapPropagator().Inject(ctx, NewMessageCarrier(&msg))
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = p.w.WriteMessages(ctx, msgs...); err == nil {
			p.Logf("[KAFKA] published %d orders (run=%s topic=%s)", len(msgs), runID, p.Topic)
			return len(msgs), nil
		}
		if ctx.Err() != nil {
			break
		}
		p.Logf("[KAFKA] write attempt %d/%d: %v", attempt, p.MaxAttempts, err)
		if attempt < p.MaxAttempts {
			p.backoff()
		}
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return 0, fmt.Errorf("publish orders: %w", err)
}

func (p *Publisher) backoff() {
	j := time.Duration(rand.Intn(200)) * time.Millisecond
	p.sleep(p.RetryBase + j)
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
