// Package ledger records inventory movements. It writes through the
// movement repository it is handed, so a movement recorded inside a unit of
// work commits or rolls back with the item state change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/assistencia-service/internal/domain"
	"github.com/spec-kit/assistencia-service/internal/observability"
	"github.com/spec-kit/assistencia-service/internal/repository"
	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

const collaboratorName = "ledger"

// Recorder writes one movement.
type Recorder interface {
	Record(ctx context.Context, repo repository.MovementRepository, operation string, movement domain.Movement) (*domain.Movement, error)
}

// Service is the default Recorder.
type Service struct {
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewService builds a ledger with the given per-call timeout. Zero means no
// timeout beyond the caller's context.
func NewService(timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{timeout: timeout, logger: logger, metrics: metrics}
}

// Record appends movement. A movement already stored under the same
// idempotency key for the same item is returned as is.
func (s *Service) Record(ctx context.Context, repo repository.MovementRepository, operation string, movement domain.Movement) (*domain.Movement, error) {
	if err := validate(movement); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if movement.IdempotencyKey != "" {
		existing, err := repo.GetByIdempotencyKey(ctx, movement.IdempotencyKey)
		switch {
		case err == nil:
			if existing.ItemID != movement.ItemID {
				return nil, apperrors.NewConflict("idempotency key reused for another item", map[string]any{
					"idempotency_key": movement.IdempotencyKey,
				})
			}
			return existing, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, s.fail(operation, movement, err)
		}
	}

	if err := repo.Create(ctx, &movement); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("movement already recorded", map[string]any{
				"idempotency_key": movement.IdempotencyKey,
			})
		}
		return nil, s.fail(operation, movement, err)
	}

	s.metrics.RecordMovement(operation)
	s.logger.Debug("movement recorded",
		zap.String("movement_id", movement.ID),
		zap.String("item_id", movement.ItemID),
		zap.String("origem", movement.Origem.String()),
		zap.String("destino", movement.Destino.String()),
	)
	return &movement, nil
}

func (s *Service) fail(operation string, movement domain.Movement, err error) error {
	s.metrics.RecordCollaboratorFailure(collaboratorName)
	s.logger.Warn("movement not recorded",
		zap.String("operacao", operation),
		zap.String("item_id", movement.ItemID),
		zap.Error(err),
	)
	return apperrors.NewCollaboratorError(collaboratorName, err)
}

func validate(m domain.Movement) error {
	if m.ItemID == "" {
		return errors.New("movement without item")
	}
	for _, loc := range []domain.Location{m.Origem, m.Destino} {
		switch loc.Kind {
		case domain.LocationDeposit, domain.LocationAssistance:
			if loc.ID == "" {
				return fmt.Errorf("movement endpoint %s without id", loc.Kind)
			}
		case domain.LocationCustomer:
		default:
			return fmt.Errorf("unknown movement endpoint %q", loc.Kind)
		}
	}
	return nil
}
