package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammed-shakir/landuse-api/internal/invalidation"
)

// Purger drops every cached response.
type Purger interface {
	Purge(ctx context.Context) error
}

type Runner struct {
	log      *slog.Logger
	cfg      InvalidationConfig
	cache    Purger
	ms       *metricSet
	seen     *idDedupe
	assigned atomic.Bool
	assignMu sync.RWMutex
	assign   map[int32]struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

type Options struct {
	Logger   *slog.Logger
	Register prometheus.Registerer
}

func New(cfg InvalidationConfig, c Purger, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		log:    opts.Logger,
		cfg:    cfg,
		cache:  c,
		ms:     newMetricSet(opts.Register),
		seen:   newIDDedupe(8192),
		assign: map[int32]struct{}{},
	}
}

func (r *Runner) Start(ctx context.Context) error {
	if !r.cfg.Active() {
		r.log.Info("invalidation runner disabled", "driver", r.cfg.Driver, "enabled", r.cfg.Enabled)
		return nil
	}
	if r.cache == nil {
		return errors.New("kafka runner: cache dependency is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = r.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = r.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = r.cfg.RebalanceTimeout
	if r.cfg.InitialOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Return.Errors = true

	// Every instance must see every event, so each one joins its own group.
	group, err := sarama.NewConsumerGroup(r.cfg.Brokers, r.groupID(), cfg)
	if err != nil {
		cancel()
		return fmt.Errorf("consumer group: %w", err)
	}

	h := &groupHandler{
		setup: func(sess sarama.ConsumerGroupSession) {
			claims := sess.Claims()
			r.assignMu.Lock()
			r.assigned.Store(true)
			r.assign = map[int32]struct{}{}
			for _, parts := range claims {
				for _, p := range parts {
					r.assign[p] = struct{}{}
				}
			}
			r.assignMu.Unlock()
		},
		cleanup: func(sarama.ConsumerGroupSession) {
			r.assignMu.Lock()
			r.assigned.Store(false)
			r.assign = map[int32]struct{}{}
			r.assignMu.Unlock()
		},
		process: r.handleMessage,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if err := group.Close(); err != nil {
				r.log.Error("kafka consumer group close", "err", err)
			}
		}()

		for {
			if err := group.Consume(ctx, []string{r.cfg.Topic}, h); err != nil {
				r.log.Error("kafka consume error", "err", err)
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for err := range group.Errors() {
			r.log.Error("kafka group error", "err", err)
		}
	}()

	r.log.Info("kafka invalidation runner started",
		"topic", r.cfg.Topic, "group", r.groupID(), "brokers", r.cfg.Brokers)
	return nil
}

func (r *Runner) groupID() string {
	if r.cfg.Source == "" {
		return r.cfg.GroupID
	}
	return r.cfg.GroupID + "-" + r.cfg.Source
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.log.Info("kafka invalidation runner stopped")
}

// Readiness reports true when the runner is disabled or holds a partition assignment.
func (r *Runner) Readiness() (ready bool, partitions []int32) {
	if !r.cfg.Active() {
		return true, nil
	}
	if !r.assigned.Load() {
		return false, nil
	}
	r.assignMu.RLock()
	defer r.assignMu.RUnlock()
	for p := range r.assign {
		partitions = append(partitions, p)
	}
	return true, partitions
}

func (r *Runner) handleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	start := time.Now()

	if !msg.Timestamp.IsZero() {
		r.ms.lagGauge.Set(time.Since(msg.Timestamp).Seconds())
	}

	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		r.ms.msgs.WithLabelValues("invalid").Inc()
		r.log.Warn("dropping undecodable invalidation event", "offset", msg.Offset, "err", err)
		return nil
	}
	if err := ev.Validate(); err != nil {
		r.ms.msgs.WithLabelValues("invalid").Inc()
		r.log.Warn("dropping invalid invalidation event", "offset", msg.Offset, "err", err)
		return nil
	}
	if ev.Source != "" && ev.Source == r.cfg.Source {
		r.ms.msgs.WithLabelValues("skip_self").Inc()
		return nil
	}
	if !r.seen.firstSeen(ev.ID) {
		r.ms.msgs.WithLabelValues("skip_duplicate").Inc()
		return nil
	}

	err := r.cache.Purge(ctx)
	r.observe(ev.Op, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("purge cache for %s %s: %w", ev.Op, ev.Layer, err)
	}
	r.log.Info("cache purged by invalidation event",
		"id", ev.ID, "source", ev.Source, "layer", ev.Layer, "inserted", ev.Inserted)
	return nil
}

func (r *Runner) observe(op string, err error, dur time.Duration) {
	if op == "" {
		op = "unknown"
	}
	if err != nil {
		r.ms.msgs.WithLabelValues("error").Inc()
	} else {
		r.ms.msgs.WithLabelValues("ok").Inc()
	}
	r.ms.proc.WithLabelValues(op).Observe(dur.Seconds())
}

type groupHandler struct {
	setup   func(sarama.ConsumerGroupSession)
	cleanup func(sarama.ConsumerGroupSession)
	process func(context.Context, *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	if h.setup != nil {
		h.setup(sess)
	}
	return nil
}

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	if h.cleanup != nil {
		h.cleanup(sess)
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for msg := range claim.Messages() {
		if err := h.process(ctx, msg); err != nil {
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
