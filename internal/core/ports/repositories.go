package ports

import (
	"context"

	"github.com/lliebig/opencelldroid/internal/core/domain"
)

// OutcomeRepository journals terminal sync outcomes.
type OutcomeRepository interface {
	Insert(ctx context.Context, outcome *domain.SyncOutcome) error
	Recent(ctx context.Context, channel domain.Channel, limit int) ([]domain.SyncOutcome, error)
}
