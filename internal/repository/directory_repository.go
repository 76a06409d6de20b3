package repository

import (
	"context"

	"github.com/spec-kit/assistencia-service/internal/domain"
)

type directoryRepository struct {
	db DBTX
}

// NewDirectoryRepository reads the deposit and assistance registries.
func NewDirectoryRepository(db DBTX) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) GetDeposit(ctx context.Context, id string) (*domain.Deposit, error) {
	var dep domain.Deposit
	if err := r.db.QueryRow(ctx, `SELECT id, nome FROM depositos WHERE id=$1`, id).Scan(&dep.ID, &dep.Nome); err != nil {
		return nil, mapPgError(err)
	}
	return &dep, nil
}

func (r *directoryRepository) GetAssistance(ctx context.Context, id string) (*domain.Assistance, error) {
	var a domain.Assistance
	if err := r.db.QueryRow(ctx, `SELECT id, nome FROM assistencias WHERE id=$1`, id).Scan(&a.ID, &a.Nome); err != nil {
		return nil, mapPgError(err)
	}
	return &a, nil
}
