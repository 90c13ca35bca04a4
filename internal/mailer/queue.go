package mailer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quill/internal/middleware"
	"quill/internal/observability"
)

// OutboxKey is the Redis list holding pending mail jobs.
const OutboxKey = "mail:outbox"

const popTimeout = 2 * time.Second

// Queue is a best-effort outbox: Enqueue pushes jobs onto a Redis list and a
// single worker drains it. Without Redis it degrades to sending from a
// detached goroutine so callers never block on SMTP.
type Queue struct {
	rdb    *redis.Client
	sender Sender

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewQueue builds a queue. rdb may be nil.
func NewQueue(rdb *redis.Client, sender Sender) *Queue {
	return &Queue{
		rdb:    rdb,
		sender: sender,
		stop:   make(chan struct{}),
	}
}

// Enqueue submits a message for delivery and returns immediately.
func (q *Queue) Enqueue(ctx context.Context, msg Message) {
	observability.MailJobsEnqueued.Inc()

	if q.rdb != nil {
		raw, err := json.Marshal(msg)
		if err == nil {
			if err := q.rdb.LPush(ctx, OutboxKey, raw).Err(); err == nil {
				return
			}
			middleware.Logger.WarnContext(ctx, "mail outbox push failed, sending directly",
				slog.String("to", msg.To))
		}
	}

	go q.deliver(msg)
}

// Start launches the outbox worker. No-op without Redis.
func (q *Queue) Start() {
	if q.rdb == nil {
		return
	}
	q.wg.Add(1)
	go q.work()
}

// Shutdown stops the worker and waits for an in-flight delivery to finish.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.once.Do(func() { close(q.stop) })

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.stop:
			return
		default:
		}

		res, err := q.rdb.BRPop(context.Background(), popTimeout, OutboxKey).Result()
		if err != nil {
			// redis.Nil means the pop timed out with an empty list.
			if err != redis.Nil {
				time.Sleep(popTimeout)
			}
			continue
		}
		if len(res) < 2 {
			continue
		}

		var msg Message
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			middleware.Logger.Warn("discarding malformed mail job", slog.String("error", err.Error()))
			continue
		}
		q.deliver(msg)
	}
}

func (q *Queue) deliver(msg Message) {
	if err := q.sender.Send(msg); err != nil {
		observability.MailJobsFailed.Inc()
		middleware.Logger.Warn("mail delivery failed",
			slog.String("to", msg.To),
			slog.String("subject", msg.Subject),
			slog.String("error", err.Error()),
		)
	}
}
