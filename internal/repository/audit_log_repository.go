package repository

import (
	"context"

	"github.com/spec-kit/assistencia-service/internal/domain"
)

type auditLogRepository struct {
	db DBTX
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Append inserts one entry. Updates and deletes are refused by a table trigger.
func (r *auditLogRepository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	const query = `
        INSERT INTO assistencia_logs (chamado_id, item_id, operacao, mensagem, status_de, status_para,
            movimento_id, idempotency_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id::text, created_at`
	err := r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.ItemID,
		entry.Operacao,
		entry.Mensagem,
		entry.StatusDe,
		entry.StatusPara,
		entry.MovimentoID,
		entry.IdempotencyKey,
	).Scan(&entry.ID, &entry.CreatedAt)
	return mapPgError(err)
}

func (r *auditLogRepository) FindByIdempotencyKey(ctx context.Context, itemID, key string) (*domain.AuditLogEntry, error) {
	const query = `
        SELECT id::text, chamado_id, item_id, operacao, mensagem, status_de, status_para, movimento_id,
               idempotency_key, created_at
        FROM assistencia_logs WHERE item_id=$1 AND idempotency_key=$2`
	var entry domain.AuditLogEntry
	if err := r.db.QueryRow(ctx, query, itemID, key).Scan(
		&entry.ID,
		&entry.TicketID,
		&entry.ItemID,
		&entry.Operacao,
		&entry.Mensagem,
		&entry.StatusDe,
		&entry.StatusPara,
		&entry.MovimentoID,
		&entry.IdempotencyKey,
		&entry.CreatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &entry, nil
}

// ListByTicket returns the full history in insertion order.
func (r *auditLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditLogEntry, error) {
	const query = `
        SELECT id::text, chamado_id, item_id, operacao, mensagem, status_de, status_para, movimento_id,
               idempotency_key, created_at
        FROM assistencia_logs WHERE chamado_id=$1 ORDER BY id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	result := []domain.AuditLogEntry{}
	for rows.Next() {
		var entry domain.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ItemID,
			&entry.Operacao,
			&entry.Mensagem,
			&entry.StatusDe,
			&entry.StatusPara,
			&entry.MovimentoID,
			&entry.IdempotencyKey,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
