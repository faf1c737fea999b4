package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Backend = (*PostgresBackend)(nil)

// receiptsNotifyChannel carries receipt IDs; listeners load the row.
const receiptsNotifyChannel = "csverify_receipts"

const receiptColumns = `id, module, event, api_key, entry_uid, triggered_at, received_at, payload`

// PostgresBackend stores receipts in Postgres and announces them with
// LISTEN/NOTIFY.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (p *PostgresBackend) Add(ctx context.Context, r Receipt) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO receipts (`+receiptColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.ID,
			r.Module,
			r.Event,
			r.APIKey,
			r.EntryUID,
			timestamptz(r.TriggeredAt),
			timestamptz(r.ReceivedAt),
			[]byte(r.Payload),
		)
		if err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}

		// delivered on commit
		if _, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", receiptsNotifyChannel, r.ID); err != nil {
			return fmt.Errorf("notify receipt: %w", err)
		}
		return nil
	})
	return err
}

func (p *PostgresBackend) ListSince(ctx context.Context, since time.Time, limit int) ([]Receipt, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+receiptColumns+`
		FROM receipts
		WHERE received_at > $1
		ORDER BY received_at, id
		LIMIT $2`,
		since, clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}

	receipts, err := pgx.CollectRows(rows, scanReceipt)
	if err != nil {
		return nil, fmt.Errorf("scan receipts: %w", err)
	}
	return receipts, nil
}

func (p *PostgresBackend) get(ctx context.Context, id string) (Receipt, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id)
	if err != nil {
		return Receipt{}, fmt.Errorf("get receipt: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanReceipt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Receipt{}, ErrNotFound
	}
	if err != nil {
		return Receipt{}, fmt.Errorf("scan receipt: %w", err)
	}
	return r, nil
}

// Subscribe holds one pooled connection in LISTEN mode until unsubscribed.
func (p *PostgresBackend) Subscribe(ctx context.Context) (<-chan Receipt, func(), error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+receiptsNotifyChannel); err != nil {
		conn.Release()
		return nil, nil, fmt.Errorf("listen: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Receipt)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				return
			}

			r, err := p.get(ctx, n.Payload)
			if err != nil {
				continue
			}

			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	unsubscribe := func() {
		cancel()
		<-done
		// a cancelled wait leaves the connection unusable, so drop it
		// instead of returning a LISTENing connection to the pool
		_ = conn.Hijack().Close(context.Background())
	}

	return out, unsubscribe, nil
}

func (p *PostgresBackend) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresBackend) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func scanReceipt(row pgx.CollectableRow) (Receipt, error) {
	var (
		r           Receipt
		triggeredAt pgtype.Timestamptz
		payload     []byte
	)
	err := row.Scan(
		&r.ID,
		&r.Module,
		&r.Event,
		&r.APIKey,
		&r.EntryUID,
		&triggeredAt,
		&r.ReceivedAt,
		&payload,
	)
	if err != nil {
		return Receipt{}, err
	}
	if triggeredAt.Valid {
		r.TriggeredAt = triggeredAt.Time
	}
	r.Payload = payload
	return r, nil
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}
