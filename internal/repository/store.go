package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/assistencia-service/internal/domain"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrLocked is returned when a row lock is held by another transaction.
var ErrLocked = errors.New("row locked")

// ErrDuplicate is returned when a unique key already exists.
var ErrDuplicate = errors.New("duplicate key")

// DBTX is satisfied by both the pool and a transaction, so repositories run
// unchanged inside or outside a unit of work.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// TicketRepository persists tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
}

// ItemRepository persists ticket items.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	// GetForUpdate reads the item and holds its row until the transaction
	// ends. Outside a transaction it behaves like GetByID.
	GetForUpdate(ctx context.Context, id string) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Item, error)
}

// MovementRepository is the append-only movement table behind the ledger.
type MovementRepository interface {
	Create(ctx context.Context, movement *domain.Movement) error
	GetByID(ctx context.Context, id string) (*domain.Movement, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Movement, error)
	ListByItem(ctx context.Context, itemID string) ([]domain.Movement, error)
}

// AuditLogRepository stores transition history.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
	FindByIdempotencyKey(ctx context.Context, itemID, key string) (*domain.AuditLogEntry, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditLogEntry, error)
}

// DirectoryRepository reads deposits and assistances.
type DirectoryRepository interface {
	GetDeposit(ctx context.Context, id string) (*domain.Deposit, error)
	GetAssistance(ctx context.Context, id string) (*domain.Assistance, error)
}

// Repositories bundles the repositories bound to one connection or transaction.
type Repositories interface {
	Tickets() TicketRepository
	Items() ItemRepository
	Movements() MovementRepository
	AuditLog() AuditLogRepository
}

// Store exposes unlocked reads and a unit of work. If fn returns an error
// every write made through tx is rolled back.
type Store interface {
	Repositories
	Directory() DirectoryRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03":
			return ErrLocked
		case "23505":
			return ErrDuplicate
		}
	}
	return err
}
