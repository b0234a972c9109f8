package rates

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercadito-erp/mercadito-erp/internal/platform/db"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed rate repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

func (r *repository) EnsureDefaults(ctx context.Context, kinds []RateKind) error {
	for _, kind := range kinds {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO exchange_rates (kind, value, updated_at)
			VALUES ($1, 0, NOW())
			ON CONFLICT (kind) DO NOTHING`, kind)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) ListRates(ctx context.Context) ([]Rate, error) {
	rows, err := r.pool.Query(ctx, `SELECT kind, value, updated_at FROM exchange_rates ORDER BY kind`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rate
	for rows.Next() {
		var rate Rate
		if err := rows.Scan(&rate.Kind, &rate.Value, &rate.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rate)
	}
	return out, rows.Err()
}

func (r *repository) ListHistory(ctx context.Context, limit int64) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kind, value, recorded_at
		FROM exchange_rate_history
		ORDER BY recorded_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		if err := rows.Scan(&entry.Kind, &entry.Value, &entry.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (r *repository) UpdateRates(ctx context.Context, changes map[RateKind]float64, now time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for kind, value := range changes {
			if _, err := tx.Exec(ctx, `
				UPDATE exchange_rates SET value = $2, updated_at = $3 WHERE kind = $1`,
				kind, value, now); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO exchange_rate_history (kind, value, recorded_at)
				VALUES ($1, $2, $3)`, kind, value, now); err != nil {
				return err
			}
			// Keep only the newest entries per kind.
			if _, err := tx.Exec(ctx, `
				DELETE FROM exchange_rate_history
				WHERE kind = $1 AND id NOT IN (
					SELECT id FROM exchange_rate_history
					WHERE kind = $1
					ORDER BY recorded_at DESC, id DESC
					LIMIT $2
				)`, kind, HistoryCap); err != nil {
				return err
			}
		}
		return nil
	})
}
