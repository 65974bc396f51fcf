// Package notify carries the payload-free "work available" signal between the
// API and the worker pool over PostgreSQL LISTEN/NOTIFY.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/violetear/api/internal/dbx"
	"github.com/violetear/api/internal/logging"
)

// Notifier emits the work-available signal.
type Notifier interface {
	Notify(ctx context.Context) error
}

// DefaultMaxElapsed bounds how long Notify keeps retrying.
const DefaultMaxElapsed = 10 * time.Second

// PostgresNotifier issues pg_notify on channel and retries failures with
// exponential backoff.
type PostgresNotifier struct {
	db         dbx.DBTX
	channel    string
	log        logging.Logger
	newBackOff func() backoff.BackOff
}

type Option func(*PostgresNotifier)

// WithMaxElapsed sets the total retry budget of one Notify call.
func WithMaxElapsed(d time.Duration) Option {
	return func(n *PostgresNotifier) {
		n.newBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = d
			return b
		}
	}
}

// WithBackOff replaces the retry policy factory.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(n *PostgresNotifier) { n.newBackOff = f }
}

func WithLogger(l logging.Logger) Option {
	return func(n *PostgresNotifier) { n.log = l }
}

func NewPostgresNotifier(db dbx.DBTX, channel string, opts ...Option) *PostgresNotifier {
	n := &PostgresNotifier{db: db, channel: channel, log: logging.Nop{}}
	WithMaxElapsed(DefaultMaxElapsed)(n)
	for _, o := range opts {
		o(n)
	}
	return n
}

// Notify sends one empty notification. It returns the last error once the
// retry budget is spent or ctx is done.
func (n *PostgresNotifier) Notify(ctx context.Context) error {
	attempt := 1
	op := func() error {
		_, err := n.db.ExecContext(ctx, `SELECT pg_notify($1, '')`, n.channel)
		if err != nil {
			n.log.Warn(ctx, "notify failed", "channel", n.channel, "attempt", attempt, "error", err)
			attempt++
			return err
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(n.newBackOff(), ctx)); err != nil {
		return fmt.Errorf("notify %s: %w", n.channel, err)
	}
	return nil
}
