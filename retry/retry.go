// Package retry runs store operations under a bounded backoff policy. Only
// operations declared Idempotent are retried; everything else runs once.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

type Kind int

const (
	// Once marks an operation whose repeated execution would duplicate effects.
	Once Kind = iota
	// Idempotent marks reads, upserts and insert-if-absent writes.
	Idempotent
)

func (k Kind) String() string {
	if k == Idempotent {
		return "idempotent"
	}
	return "once"
}

type Policy struct {
	Attempts int
	Delay    time.Duration
	Log      logrus.FieldLogger
}

func Default(log logrus.FieldLogger) Policy {
	return Policy{Attempts: 3, Delay: time.Second, Log: log}
}

// Permanent wraps err so that Do stops retrying and returns err unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// Do runs op. Idempotent operations are attempted up to p.Attempts times,
// waiting Delay, 2*Delay, ... between attempts.
func (p Policy) Do(ctx context.Context, kind Kind, op func() error) error {
	attempts := p.Attempts
	if attempts < 1 || kind == Once {
		attempts = 1
	}

	var b backoff.BackOff = &linear{step: p.Delay}
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	notify := func(err error, wait time.Duration) {
		if p.Log == nil {
			return
		}
		p.Log.WithFields(logrus.Fields{
			"attempt": attempt,
			"wait":    wait.String(),
			"kind":    kind.String(),
		}).Warnf("operation failed, retrying: %v", err)
	}

	err := backoff.RetryNotify(func() error {
		attempt++
		return op()
	}, b, notify)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

// linear waits step, 2*step, 3*step, ...
type linear struct {
	step time.Duration
	n    int64
}

func (l *linear) NextBackOff() time.Duration {
	l.n++
	return time.Duration(l.n) * l.step
}

func (l *linear) Reset() { l.n = 0 }
