// Command tasklisten subscribes to the work-available channel and prints one
// line per wake-up. Workers use the same channel to learn that new pending
// tasks were committed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/joho/godotenv"
	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/server/notify"
)

func main() {
	_ = godotenv.Load()

	dsn := flag.String("d", os.Getenv("DATABASE_URL"), "database connection string")
	channel := flag.String("channel", common.WorkAvailableChannel, "notification channel")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("database dsn is required (-d or DATABASE_URL)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := notify.NewListener(*dsn, *channel)
	err := l.Listen(ctx, func(n *pgconn.Notification) {
		fmt.Printf("%s work available on %q (pid %d)\n", time.Now().Format(time.RFC3339), n.Channel, n.PID)
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("listen: %v", err)
	}
}
