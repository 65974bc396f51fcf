package notify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type listenConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// connect is a seam for tests.
var connect = func(ctx context.Context, dsn string) (listenConn, error) {
	c, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Listener subscribes to a channel on a dedicated connection. LISTEN does not
// work through a pooled *sql.DB, hence the native pgx connection.
type Listener struct {
	dsn     string
	channel string
}

func NewListener(dsn, channel string) *Listener {
	return &Listener{dsn: dsn, channel: channel}
}

// Listen blocks, calling fn for every notification, until ctx is done or the
// connection fails. A cancelled ctx yields ctx.Err().
func (l *Listener) Listen(ctx context.Context, fn func(*pgconn.Notification)) error {
	conn, err := connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		fn(n)
	}
}
