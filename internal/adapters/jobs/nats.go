package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"hotel_booking/internal/domain"
)

const natsWorkerGroup = "workers"

func dialNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("hotel-booking"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

// NATSPublisher publishes jobs on a subject named after the queue and
// flushes so the server has accepted the message before Publish returns.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

func DialNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := dialNATS(url)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc, subject: subject}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, job domain.Job) error {
	body, err := encode(job)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.subject, body); err != nil {
		return err
	}
	// FlushWithContext refuses contexts without a deadline
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return p.nc.FlushWithContext(ctx)
}

func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// NATSConsumer joins a queue group so each job reaches one worker.
type NATSConsumer struct {
	nc      *nats.Conn
	subject string
	drain   time.Duration
}

func DialNATSConsumer(url, subject string) (*NATSConsumer, error) {
	nc, err := dialNATS(url)
	if err != nil {
		return nil, err
	}
	return &NATSConsumer{nc: nc, subject: subject}, nil
}

// Consume delivers at most once: core NATS has no redelivery, so on shutdown
// the pending callbacks run to completion within the drain period.
func (c *NATSConsumer) Consume(ctx context.Context, h Handler) error {
	hctx, cancel := handlerContext(ctx, c.drain)
	defer cancel()
	sub, err := c.nc.QueueSubscribe(c.subject, natsWorkerGroup, func(m *nats.Msg) {
		_ = dispatch(hctx, m.Data, h)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.subject, err)
	}
	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return err
	}
	// Drain is asynchronous; the subscription turns invalid once its callbacks ran.
	for sub.IsValid() {
		select {
		case <-hctx.Done():
			return nil
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

func (c *NATSConsumer) Close() error {
	c.nc.Close()
	return nil
}
