package memory

import (
	"context"

	"github.com/spec-kit/assistencia-service/internal/domain"
)

type acTickets struct{ a autoCommit }

func (r acTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.a.run(ctx, func(tx *txRepos) error { return tickets{tx}.Create(ctx, ticket) })
}

func (r acTickets) GetByID(ctx context.Context, id string) (out *domain.Ticket, err error) {
	err = r.a.run(ctx, func(tx *txRepos) error {
		out, err = tickets{tx}.GetByID(ctx, id)
		return err
	})
	return out, err
}

type acItems struct{ a autoCommit }

func (r acItems) Create(ctx context.Context, item *domain.Item) error {
	return r.a.run(ctx, func(tx *txRepos) error { return items{tx}.Create(ctx, item) })
}

func (r acItems) GetByID(ctx context.Context, id string) (out *domain.Item, err error) {
	err = r.a.run(ctx, func(tx *txRepos) error {
		out, err = items{tx}.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (r acItems) GetForUpdate(ctx context.Context, id string) (*domain.Item, error) {
	return r.GetByID(ctx, id)
}

func (r acItems) Update(ctx context.Context, item *domain.Item) error {
	return r.a.run(ctx, func(tx *txRepos) error { return items{tx}.Update(ctx, item) })
}

func (r acItems) ListByTicket(ctx context.Context, ticketID string) (out []domain.Item, err error) {
	err = r.a.run(ctx, func(tx *txRepos) error {
		out, err = items{tx}.ListByTicket(ctx, ticketID)
		return err
	})
	return out, err
}

type acMovements struct{ a autoCommit }

func (r acMovements) Create(ctx context.Context, movement *domain.Movement) error {
	return r.a.run(ctx, func(tx *txRepos) error { return movements{tx}.Create(ctx, movement) })
}

func (r acMovements) GetByID(ctx context.Context, id string) (out *domain.Movement, err error) {
	err = r.a.run(ctx, func(tx *txRepos) error {
		out, err = movements{tx}.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (r acMovements) GetByIdempotencyKey(ctx context.Context, key string) (out *domain.Movement, err error) {
	err = r.a.run(ctx, func(tx *txRepos) error {
		out, err = movements{tx}.GetByIdempotencyKey(ctx, key)
		return err
	})
	return out, err
}

func (r acMovements) ListByItem(ctx context.Context, itemID string) (out []domain.Movement, err error) {
	err = r.a.run(ctx, func(tx *txRepos) error {
		out, err = movements{tx}.ListByItem(ctx, itemID)
		return err
	})
	return out, err
}

type acAuditLog struct{ a autoCommit }

func (r acAuditLog) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	return r.a.run(ctx, func(tx *txRepos) error { return auditLog{tx}.Append(ctx, entry) })
}

func (r acAuditLog) FindByIdempotencyKey(ctx context.Context, itemID, key string) (out *domain.AuditLogEntry, err error) {
	err = r.a.run(ctx, func(tx *txRepos) error {
		out, err = auditLog{tx}.FindByIdempotencyKey(ctx, itemID, key)
		return err
	})
	return out, err
}

func (r acAuditLog) ListByTicket(ctx context.Context, ticketID string) (out []domain.AuditLogEntry, err error) {
	err = r.a.run(ctx, func(tx *txRepos) error {
		out, err = auditLog{tx}.ListByTicket(ctx, ticketID)
		return err
	})
	return out, err
}
