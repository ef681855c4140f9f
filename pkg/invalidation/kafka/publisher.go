package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammed-shakir/landuse-api/internal/invalidation"
)

// Publisher produces invalidation events after the feature table changes.
type Publisher struct {
	prod     sarama.SyncProducer
	topic    string
	source   string
	log      *slog.Logger
	produced *prometheus.CounterVec
	now      func() time.Time
}

func NewPublisher(cfg InvalidationConfig, opts Options) (*Publisher, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V2_5_0_0
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3

	prod, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("producer create: %w", err)
	}
	return NewPublisherWithProducer(prod, cfg, opts), nil
}

func NewPublisherWithProducer(prod sarama.SyncProducer, cfg InvalidationConfig, opts Options) *Publisher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Publisher{
		prod:     prod,
		topic:    cfg.Topic,
		source:   cfg.Source,
		log:      opts.Logger,
		produced: newProducedCounter(opts.Register),
		now:      time.Now,
	}
}

// PublishReplace announces a committed full replacement of the land-use layer.
func (p *Publisher) PublishReplace(ctx context.Context, inserted int) (invalidation.Event, error) {
	ev := invalidation.NewReplace(p.source, inserted, p.now())
	if err := ctx.Err(); err != nil {
		return ev, err
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return ev, fmt.Errorf("encode event: %w", err)
	}
	part, off, err := p.prod.SendMessage(&sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(ev.Layer),
		Value:     sarama.ByteEncoder(b),
		Timestamp: ev.TS,
	})
	if err != nil {
		p.produced.WithLabelValues("error").Inc()
		return ev, fmt.Errorf("send event to %s: %w", p.topic, err)
	}
	p.produced.WithLabelValues("ok").Inc()
	p.log.DebugContext(ctx, "invalidation event produced",
		"id", ev.ID, "topic", p.topic, "partition", part, "offset", off)
	return ev, nil
}

func (p *Publisher) Close() error {
	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("producer close: %w", err)
	}
	return nil
}
