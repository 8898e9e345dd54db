// Package broadcaster drains the change outbox into a Publisher. Delivery is
// at-least-once: an event is marked SENT before publishing and ACKED after,
// and anything not ACKED is retried on the next tick.
package broadcaster

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rbindex/infra/codec"
	"rbindex/infra/outbox"
)

type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

type Config struct {
	Interval   time.Duration
	MaxRetries uint32
}

const (
	defaultInterval   = 250 * time.Millisecond
	defaultMaxRetries = 10
)

type Broadcaster struct {
	outbox     *outbox.Outbox
	publisher  Publisher
	interval   time.Duration
	maxRetries uint32
	log        logrus.FieldLogger
}

// ------------------------------------------------
// CONSTRUCTOR
// ------------------------------------------------

func New(ob *outbox.Outbox, pub Publisher, cfg Config, log logrus.FieldLogger) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Broadcaster{
		outbox:     ob,
		publisher:  pub,
		interval:   cfg.Interval,
		maxRetries: cfg.MaxRetries,
		log:        log.WithField("component", "broadcaster"),
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run drains on every tick until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) error {
	b.log.WithField("interval", b.interval).Info("started")
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopped")
			return nil
		case <-ticker.C:
			if _, err := b.DrainOnce(ctx); err != nil {
				b.log.WithError(err).Error("drain failed")
			}
		}
	}
}

// ------------------------------------------------
// DRAIN
// ------------------------------------------------

var errStopDrain = errors.New("broadcaster: stop drain")

// DrainOnce publishes pending events in sequence order. The first publish
// failure ends the pass so later events never overtake an earlier one.
// Events that exhausted their retries are marked FAILED and skipped.
func (b *Broadcaster) DrainOnce(ctx context.Context) (int, error) {
	sent := 0
	err := b.outbox.ScanPending(func(rec outbox.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rec.Retries >= b.maxRetries {
			b.log.WithFields(logrus.Fields{"seq": rec.Seq, "retries": rec.Retries}).Warn("giving up on event")
			return b.outbox.MarkFailed(rec.Seq)
		}

		if err := b.outbox.MarkSent(rec.Seq); err != nil {
			return err
		}
		key := []byte(strconv.FormatUint(rec.Seq, 10))
		if err := b.publisher.Publish(ctx, key, rec.Payload); err != nil {
			b.log.WithError(err).WithField("seq", rec.Seq).Warn("publish failed, will retry")
			return errStopDrain
		}
		if err := b.outbox.MarkAcked(rec.Seq); err != nil {
			return err
		}
		sent++
		return nil
	})
	if err != nil && !errors.Is(err, errStopDrain) {
		return sent, err
	}

	removed, err := b.outbox.DeleteAcked()
	if err != nil {
		return sent, errors.Wrap(err, "delete acked events")
	}
	if sent > 0 || removed > 0 {
		b.log.WithFields(logrus.Fields{"sent": sent, "removed": removed}).Debug("drained")
	}
	return sent, nil
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

func (b *Broadcaster) Close() error {
	return b.publisher.Close()
}

// LogPublisher writes events to a logger instead of a broker. It backs the
// "log" broker driver. With a Serializer set, payloads are decoded into
// fields; otherwise the raw payload is the message.
type LogPublisher struct {
	Log        logrus.FieldLogger
	Serializer codec.Serializer
}

func (p LogPublisher) Publish(_ context.Context, key, value []byte) error {
	entry := p.Log.WithField("key", string(key))
	if p.Serializer == nil {
		entry.Info(string(value))
		return nil
	}
	c, err := p.Serializer.Decode(value)
	if err != nil {
		return errors.Wrapf(err, "decode event %s", key)
	}
	entry.WithFields(logrus.Fields{
		"seq":  c.Seq,
		"op":   c.Op.String(),
		"k":    c.Key,
		"size": c.Size,
	}).Info("change event")
	return nil
}

func (LogPublisher) Close() error { return nil }
