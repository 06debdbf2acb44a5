// Package queryevents publishes one Kafka event per executed query set.
package queryevents

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type Event struct {
	Shape      string    `json:"shape"`
	Set        string    `json:"set"`
	QueryHash  string    `json:"query_hash"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Rows       int       `json:"rows"`
	DurationMS int64     `json:"duration_ms"`
	TS         time.Time `json:"ts"`
}

// Sink is satisfied by *Publisher and by Nop.
type Sink interface {
	Publish(ev Event)
}

type Nop struct{}

func (Nop) Publish(Event) {}

type Publisher struct {
	logger  *slog.Logger
	topic   string
	events  chan Event
	prod    sarama.AsyncProducer
	stopped chan struct{}
}

func NewPublisher(logger *slog.Logger, brokers []string, topic string, queueSize int) (*Publisher, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false

	prod, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("queryevents: create async producer: %w", err)
	}
	return newPublisher(logger, prod, topic, queueSize), nil
}

func newPublisher(logger *slog.Logger, prod sarama.AsyncProducer, topic string, queueSize int) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	p := &Publisher{
		logger:  logger,
		topic:   topic,
		events:  make(chan Event, queueSize),
		prod:    prod,
		stopped: make(chan struct{}),
	}

	go func() {
		defer close(p.stopped)
		for ev := range p.events {
			b, err := json.Marshal(ev)
			if err != nil {
				p.logger.Warn("queryevents marshal failed", "err", err)
				continue
			}
			p.prod.Input() <- &sarama.ProducerMessage{
				Topic: p.topic,
				Key:   sarama.StringEncoder(ev.QueryHash),
				Value: sarama.ByteEncoder(b),
			}
		}
	}()

	go func() {
		for err := range p.prod.Errors() {
			if err != nil {
				p.logger.Warn("queryevents producer error", "err", err)
			}
		}
	}()

	return p
}

// Publish never blocks the request path: events are dropped when the queue is full.
func (p *Publisher) Publish(ev Event) {
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	select {
	case p.events <- ev:
	default:
	}
}

func (p *Publisher) Close() error {
	close(p.events)
	<-p.stopped

	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("queryevents: close producer: %w", err)
	}
	return nil
}
