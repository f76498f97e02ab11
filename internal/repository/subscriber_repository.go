package repository

import (
	"context"
	"time"

	"feargreed-bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const createSubscribersTable = `
CREATE TABLE IF NOT EXISTS report_subscribers (
    chat_id     BIGINT      PRIMARY KEY,
    username    TEXT        NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
ALTER TABLE report_subscribers ADD COLUMN IF NOT EXISTS last_report_at TIMESTAMPTZ;
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SubscriberRepository stores chats that opted in to scheduled reports.
type SubscriberRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSubscriberRepository(pool PgxPool, tracer trace.Tracer) *SubscriberRepository {
	return &SubscriberRepository{pool: pool, tracer: tracer}
}

func (r *SubscriberRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "subscriber-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createSubscribersTable)
	return err
}

// Subscribe is idempotent; it reports whether the chat was newly added.
func (r *SubscriberRepository) Subscribe(ctx context.Context, chatID int64, username string) (bool, error) {
	_, span := r.tracer.Start(ctx, "subscriber-repo.subscribe")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat_id", chatID))

	tag, err := r.pool.Exec(ctx,
		`INSERT INTO report_subscribers (chat_id, username) VALUES ($1, $2)
		 ON CONFLICT (chat_id) DO NOTHING`,
		chatID, username,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Unsubscribe reports whether a subscription was removed.
func (r *SubscriberRepository) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	_, span := r.tracer.Start(ctx, "subscriber-repo.unsubscribe")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat_id", chatID))

	tag, err := r.pool.Exec(ctx, `DELETE FROM report_subscribers WHERE chat_id = $1`, chatID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkDelivered records a successful scheduled delivery. Chats that are not
// subscribers are ignored.
func (r *SubscriberRepository) MarkDelivered(ctx context.Context, chatIDs []int64, at time.Time) error {
	_, span := r.tracer.Start(ctx, "subscriber-repo.mark-delivered")
	defer span.End()
	span.SetAttributes(attribute.Int("chats", len(chatIDs)))

	if len(chatIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE report_subscribers SET last_report_at = $2 WHERE chat_id = ANY($1)`,
		chatIDs, at.UTC(),
	)
	return err
}

func (r *SubscriberRepository) ListSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	_, span := r.tracer.Start(ctx, "subscriber-repo.list")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT chat_id, username, created_at FROM report_subscribers ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscribers []domain.Subscriber
	for rows.Next() {
		var s domain.Subscriber
		var ts time.Time
		if err := rows.Scan(&s.ChatID, &s.Username, &ts); err != nil {
			return nil, err
		}
		s.CreatedAt = ts.UTC()
		subscribers = append(subscribers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subscribers, nil
}
