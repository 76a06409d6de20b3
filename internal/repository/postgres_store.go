package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepositories struct {
	db DBTX
}

func (r pgRepositories) Tickets() TicketRepository     { return NewTicketRepository(r.db) }
func (r pgRepositories) Items() ItemRepository         { return NewItemRepository(r.db) }
func (r pgRepositories) Movements() MovementRepository { return NewMovementRepository(r.db) }
func (r pgRepositories) AuditLog() AuditLogRepository  { return NewAuditLogRepository(r.db) }

type postgresStore struct {
	pgRepositories
	pool *pgxpool.Pool
}

// NewPostgresStore builds a Store over a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pgRepositories: pgRepositories{db: pool}, pool: pool}
}

func (s *postgresStore) Directory() DirectoryRepository {
	return NewDirectoryRepository(s.pool)
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, pgRepositories{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
