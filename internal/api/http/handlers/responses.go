package handlers

import (
	"github.com/spec-kit/assistencia-service/internal/api/dto"
	"github.com/spec-kit/assistencia-service/internal/domain"
	"github.com/spec-kit/assistencia-service/internal/service"
	"github.com/spec-kit/assistencia-service/internal/workflow"
)

const dateLayout = workflow.DateLayout

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:               ticket.ID,
		Numero:           ticket.Numero,
		OrigemTipo:       ticket.OrigemTipo,
		OrigemID:         ticket.OrigemID,
		ClienteID:        ticket.ClienteID,
		AssistenciaID:    ticket.AssistenciaID,
		Prioridade:       ticket.Prioridade,
		LocalReparo:      ticket.LocalReparo,
		CustoResponsavel: ticket.CustoResponsavel,
		Observacoes:      ticket.Observacoes,
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
	}
}

func slaResponse(sla domain.SLA) dto.SLAResponse {
	return dto.SLAResponse{Label: sla.Label, Severity: sla.Severity, DiffDays: sla.DiffDays}
}

func itemResponse(item *domain.Item, sla domain.SLA) dto.ItemResponse {
	resp := dto.ItemResponse{
		ID:                    item.ID,
		TicketID:              item.TicketID,
		ProdutoID:             item.ProdutoID,
		VariacaoID:            item.VariacaoID,
		NumeroSerie:           item.NumeroSerie,
		Lote:                  item.Lote,
		DefeitoID:             item.DefeitoID,
		DepositoOrigemID:      item.DepositoOrigemID,
		StatusItem:            item.StatusItem,
		AssistenciaID:         item.AssistenciaID,
		DepositoAssistenciaID: item.DepositoAssistenciaID,
		RastreioEnvio:         item.RastreioEnvio,
		DataEnvio:             item.DataEnvio,
		RastreioRetorno:       item.RastreioRetorno,
		DataRetorno:           item.DataRetorno,
		DataConclusao:         item.DataConclusao,
		NotaNumero:            item.NotaNumero,
		Observacoes:           item.Observacoes,
		SLA:                   slaResponse(sla),
		CreatedAt:             item.CreatedAt,
		UpdatedAt:             item.UpdatedAt,
	}
	if item.ValorOrcado != nil {
		v := item.ValorOrcado.StringFixed(2)
		resp.ValorOrcado = &v
	}
	if item.PrazoFinalizacao != nil {
		v := item.PrazoFinalizacao.Format(dateLayout)
		resp.PrazoFinalizacao = &v
	}
	return resp
}

func movementResponse(m *domain.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:        m.ID,
		ItemID:    m.ItemID,
		Origem:    dto.LocationResponse{Tipo: m.Origem.Kind, ID: m.Origem.ID},
		Destino:   dto.LocationResponse{Tipo: m.Destino.Kind, ID: m.Destino.ID},
		CreatedAt: m.CreatedAt,
	}
}

func itemDetailResponse(detail *service.ItemDetail) dto.ItemDetailResponse {
	moves := make([]dto.MovementResponse, 0, len(detail.Movements))
	for i := range detail.Movements {
		moves = append(moves, movementResponse(&detail.Movements[i]))
	}
	ops := make([]string, 0, len(detail.AllowedOperations))
	for _, op := range detail.AllowedOperations {
		ops = append(ops, string(op))
	}
	return dto.ItemDetailResponse{
		ItemResponse:        itemResponse(&detail.Item, detail.SLA),
		Movimentacoes:       moves,
		OperacoesPermitidas: ops,
	}
}

func ticketViewResponse(view *domain.TicketView) dto.TicketViewResponse {
	resp := dto.TicketViewResponse{
		TicketResponse: ticketResponse(&view.Ticket),
		Status:         view.Status,
		Itens:          make([]dto.ItemResponse, 0, len(view.Items)),
	}
	for i := range view.Items {
		resp.Itens = append(resp.Itens, itemResponse(&view.Items[i].Item, view.Items[i].SLA))
	}
	if view.MostUrgent != nil {
		urgent := itemResponse(&view.MostUrgent.Item, view.MostUrgent.SLA)
		resp.MaisUrgente = &urgent
	}
	return resp
}

func auditLogResponses(entries []domain.AuditLogEntry) []dto.AuditLogResponse {
	out := make([]dto.AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.AuditLogResponse{
			ID:          e.ID,
			ItemID:      e.ItemID,
			Operacao:    e.Operacao,
			Mensagem:    e.Mensagem,
			StatusDe:    e.StatusDe,
			StatusPara:  e.StatusPara,
			MovimentoID: e.MovimentoID,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

func transitionResponse(result *service.TransitionResult, sla domain.SLA) dto.TransitionResponse {
	resp := dto.TransitionResponse{
		Item:                  itemResponse(result.Item, sla),
		Replay:                result.Replayed,
		ReconciliacaoPendente: result.NeedsReconciliation,
	}
	if result.Movement != nil {
		m := movementResponse(result.Movement)
		resp.Movimento = &m
	}
	return resp
}
