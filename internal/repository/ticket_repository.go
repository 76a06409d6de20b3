package repository

import (
	"context"

	"github.com/spec-kit/assistencia-service/internal/domain"
)

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO assistencia_chamados (numero, origem_tipo, origem_id, cliente_id, assistencia_id,
            prioridade, local_reparo, custo_responsavel, observacoes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Numero,
		ticket.OrigemTipo,
		ticket.OrigemID,
		ticket.ClienteID,
		ticket.AssistenciaID,
		ticket.Prioridade,
		ticket.LocalReparo,
		ticket.CustoResponsavel,
		ticket.Observacoes,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return mapPgError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, numero, origem_tipo, origem_id, cliente_id, assistencia_id, prioridade,
               local_reparo, custo_responsavel, observacoes, created_at, updated_at
        FROM assistencia_chamados WHERE id=$1`
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Numero,
		&ticket.OrigemTipo,
		&ticket.OrigemID,
		&ticket.ClienteID,
		&ticket.AssistenciaID,
		&ticket.Prioridade,
		&ticket.LocalReparo,
		&ticket.CustoResponsavel,
		&ticket.Observacoes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &ticket, nil
}
