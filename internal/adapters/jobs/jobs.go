// Package jobs moves domain.Job values between the API and the worker over
// RabbitMQ (default) or NATS.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

const (
	BrokerRabbitMQ = "rabbitmq"
	BrokerNATS     = "nats"
)

// DefaultDrain is how long in-flight handlers may keep running after Consume's context ends.
const DefaultDrain = 30 * time.Second

// Handler processes one job. A returned error drops the job after logging,
// unless the handler was interrupted by shutdown.
type Handler func(ctx context.Context, job domain.Job) error

type Consumer interface {
	// Consume blocks until ctx is done or the subscription fails.
	Consume(ctx context.Context, h Handler) error
	Close() error
}

type Config struct {
	Broker   string
	AMQPURL  string
	NATSURL  string
	Queue    string
	Prefetch int
	Drain    time.Duration
}

// NewPublisher connects to the configured broker and guards it with a circuit breaker.
func NewPublisher(cfg Config) (domain.JobPublisher, error) {
	switch cfg.Broker {
	case BrokerRabbitMQ, "":
		p, err := DialRabbitPublisher(cfg.AMQPURL, cfg.Queue)
		if err != nil {
			return nil, err
		}
		return Guard(p, BrokerRabbitMQ), nil
	case BrokerNATS:
		p, err := DialNATSPublisher(cfg.NATSURL, cfg.Queue)
		if err != nil {
			return nil, err
		}
		return Guard(p, BrokerNATS), nil
	default:
		return nil, fmt.Errorf("unknown jobs broker %q", cfg.Broker)
	}
}

func NewConsumer(cfg Config) (Consumer, error) {
	switch cfg.Broker {
	case BrokerRabbitMQ, "":
		c, err := DialRabbitConsumer(cfg.AMQPURL, cfg.Queue, cfg.Prefetch)
		if err != nil {
			return nil, err
		}
		c.drain = cfg.Drain
		return c, nil
	case BrokerNATS:
		c, err := DialNATSConsumer(cfg.NATSURL, cfg.Queue)
		if err != nil {
			return nil, err
		}
		c.drain = cfg.Drain
		return c, nil
	default:
		return nil, fmt.Errorf("unknown jobs broker %q", cfg.Broker)
	}
}

func encode(job domain.Job) ([]byte, error) { return json.Marshal(job) }

func decode(b []byte) (domain.Job, error) {
	var j domain.Job
	if err := json.Unmarshal(b, &j); err != nil {
		return j, fmt.Errorf("decode job: %w", err)
	}
	if j.Type == "" {
		return j, fmt.Errorf("decode job: missing type")
	}
	return j, nil
}

// Guarded fails fast while the broker keeps rejecting publishes.
type Guarded struct {
	inner  domain.JobPublisher
	broker string
	cb     *gobreaker.CircuitBreaker
}

func Guard(p domain.JobPublisher, broker string) *Guarded {
	st := gobreaker.Settings{
		Name:        broker + "-publish",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &Guarded{inner: p, broker: broker, cb: gobreaker.NewCircuitBreaker(st)}
}

func (g *Guarded) Publish(ctx context.Context, job domain.Job) error {
	start := time.Now()
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.inner.Publish(ctx, job)
	})
	observability.ObservePublish(g.broker, job.Type, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("publish %s job via %s: %w", job.Type, g.broker, err)
	}
	return nil
}

func (g *Guarded) State() gobreaker.State { return g.cb.State() }

func (g *Guarded) Close() error { return g.inner.Close() }

// dispatch decodes body and runs h with per-job logging and metrics.
func dispatch(ctx context.Context, body []byte, h Handler) error {
	job, err := decode(body)
	if err != nil {
		observability.ObserveJob("unknown", err)
		log.Error().Err(err).Msg("dropping malformed job")
		return err
	}
	err = h(ctx, job)
	observability.ObserveJob(job.Type, err)
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Str("type", job.Type).Msg("job failed")
	}
	return err
}

// handlerContext outlives parent by drain so jobs already running can finish
// after shutdown starts. The returned cancel must be called once handlers return.
func handlerContext(parent context.Context, drain time.Duration) (context.Context, context.CancelFunc) {
	if drain <= 0 {
		drain = DefaultDrain
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	go func() {
		select {
		case <-parent.Done():
		case <-ctx.Done():
			return
		}
		t := time.NewTimer(drain)
		defer t.Stop()
		select {
		case <-t.C:
			log.Warn().Dur("drain", drain).Msg("drain deadline reached, interrupting jobs")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// interrupted reports whether err came from shutdown rather than from the job itself.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
