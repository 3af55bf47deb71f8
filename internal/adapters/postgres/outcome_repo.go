package postgres

import (
	"context"
	"encoding/json"

	"github.com/lliebig/opencelldroid/internal/core/domain"
)

// OutcomeRepo implements ports.OutcomeRepository.
type OutcomeRepo struct {
	db *DB
}

func NewOutcomeRepo(db *DB) *OutcomeRepo {
	return &OutcomeRepo{db: db}
}

func (r *OutcomeRepo) Insert(ctx context.Context, o *domain.SyncOutcome) error {
	cell, err := jsonOrNil(o.Cell)
	if err != nil {
		return err
	}
	box, err := jsonOrNil(o.Box)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO sync_outcomes (id, channel, status, cells, cached, error, cell, box, duration_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`, o.ID, string(o.Channel), string(o.Status), o.Cells, o.Cached, o.Error, cell, box, o.Duration, o.CreatedAt)
	return err
}

// Recent returns the newest outcomes first. An empty channel selects all.
func (r *OutcomeRepo) Recent(ctx context.Context, channel domain.Channel, limit int) ([]domain.SyncOutcome, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id::text, channel, status, cells, cached, COALESCE(error, ''), cell, box, duration_seconds, created_at
		FROM sync_outcomes
		WHERE $1 = '' OR channel = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, string(channel), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SyncOutcome
	for rows.Next() {
		var (
			o         domain.SyncOutcome
			ch, st    string
			cell, box []byte
		)
		if err := rows.Scan(&o.ID, &ch, &st, &o.Cells, &o.Cached, &o.Error, &cell, &box, &o.Duration, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Channel, o.Status = domain.Channel(ch), domain.Status(st)
		if cell != nil {
			o.Cell = &domain.CellReport{}
			if err := json.Unmarshal(cell, o.Cell); err != nil {
				return nil, err
			}
		}
		if box != nil {
			o.Box = &domain.BoundingBox{}
			if err := json.Unmarshal(box, o.Box); err != nil {
				return nil, err
			}
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func jsonOrNil[T any](v *T) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
