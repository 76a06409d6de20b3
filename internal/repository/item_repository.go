package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/assistencia-service/internal/domain"
)

const itemColumns = `id, chamado_id, produto_id, variacao_id, numero_serie, lote, defeito_id,
               deposito_origem_id, status_item, valor_orcado, assistencia_id, deposito_assistencia_id,
               rastreio_envio, data_envio, rastreio_retorno, data_retorno, data_conclusao,
               prazo_finalizacao, nota_numero, observacoes, created_at, updated_at`

type itemRepository struct {
	db DBTX
}

// NewItemRepository instantiates repository.
func NewItemRepository(db DBTX) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	const query = `
        INSERT INTO assistencia_itens (chamado_id, produto_id, variacao_id, numero_serie, lote, defeito_id,
            deposito_origem_id, status_item, prazo_finalizacao, nota_numero, observacoes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		item.TicketID,
		item.ProdutoID,
		item.VariacaoID,
		item.NumeroSerie,
		item.Lote,
		item.DefeitoID,
		item.DepositoOrigemID,
		item.StatusItem,
		item.PrazoFinalizacao,
		item.NotaNumero,
		item.Observacoes,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	return mapPgError(err)
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM assistencia_itens WHERE id=$1`
	return scanItem(r.db.QueryRow(ctx, query, id))
}

// GetForUpdate fails fast with ErrLocked instead of queueing behind another
// transition on the same item.
func (r *itemRepository) GetForUpdate(ctx context.Context, id string) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM assistencia_itens WHERE id=$1 FOR UPDATE NOWAIT`
	return scanItem(r.db.QueryRow(ctx, query, id))
}

// Update writes the mutable lifecycle fields. Identity and origin fields are
// fixed at creation.
func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	const query = `
        UPDATE assistencia_itens SET status_item=$1, valor_orcado=$2, assistencia_id=$3,
            deposito_assistencia_id=$4, rastreio_envio=$5, data_envio=$6, rastreio_retorno=$7,
            data_retorno=$8, data_conclusao=$9, observacoes=$10, updated_at=$11
        WHERE id=$12`
	cmd, err := r.db.Exec(ctx, query,
		item.StatusItem,
		nullDecimal(item.ValorOrcado),
		item.AssistenciaID,
		item.DepositoAssistenciaID,
		item.RastreioEnvio,
		item.DataEnvio,
		item.RastreioRetorno,
		item.DataRetorno,
		item.DataConclusao,
		item.Observacoes,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *itemRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM assistencia_itens WHERE chamado_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var (
		item  domain.Item
		valor decimal.NullDecimal
	)
	if err := row.Scan(
		&item.ID,
		&item.TicketID,
		&item.ProdutoID,
		&item.VariacaoID,
		&item.NumeroSerie,
		&item.Lote,
		&item.DefeitoID,
		&item.DepositoOrigemID,
		&item.StatusItem,
		&valor,
		&item.AssistenciaID,
		&item.DepositoAssistenciaID,
		&item.RastreioEnvio,
		&item.DataEnvio,
		&item.RastreioRetorno,
		&item.DataRetorno,
		&item.DataConclusao,
		&item.PrazoFinalizacao,
		&item.NotaNumero,
		&item.Observacoes,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	if valor.Valid {
		v := valor.Decimal
		item.ValorOrcado = &v
	}
	return &item, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
