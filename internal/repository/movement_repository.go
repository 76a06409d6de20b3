package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/assistencia-service/internal/domain"
)

const movementColumns = `id, item_id, origem_tipo, origem_id, destino_tipo, destino_id, idempotency_key, created_at`

type movementRepository struct {
	db DBTX
}

// NewMovementRepository instantiates repository.
func NewMovementRepository(db DBTX) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, movement *domain.Movement) error {
	const query = `
        INSERT INTO assistencia_movimentacoes (item_id, origem_tipo, origem_id, destino_tipo, destino_id, idempotency_key)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		movement.ItemID,
		movement.Origem.Kind,
		movement.Origem.ID,
		movement.Destino.Kind,
		movement.Destino.ID,
		movement.IdempotencyKey,
	).Scan(&movement.ID, &movement.CreatedAt)
	return mapPgError(err)
}

func (r *movementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM assistencia_movimentacoes WHERE id=$1`
	return scanMovement(r.db.QueryRow(ctx, query, id))
}

func (r *movementRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM assistencia_movimentacoes WHERE idempotency_key=$1`
	return scanMovement(r.db.QueryRow(ctx, query, key))
}

func (r *movementRepository) ListByItem(ctx context.Context, itemID string) ([]domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM assistencia_movimentacoes WHERE item_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, itemID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.Movement
	for rows.Next() {
		movement, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *movement)
	}
	return result, rows.Err()
}

func scanMovement(row pgx.Row) (*domain.Movement, error) {
	var movement domain.Movement
	if err := row.Scan(
		&movement.ID,
		&movement.ItemID,
		&movement.Origem.Kind,
		&movement.Origem.ID,
		&movement.Destino.Kind,
		&movement.Destino.ID,
		&movement.IdempotencyKey,
		&movement.CreatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &movement, nil
}
