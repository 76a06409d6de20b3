package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/assistencia-service/internal/domain"
	"github.com/spec-kit/assistencia-service/internal/events"
	"github.com/spec-kit/assistencia-service/internal/workflow"
	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

func TestCreateTicketDefaults(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)

	assert.True(t, strings.HasPrefix(ticket.Numero, "AST-"))
	assert.Len(t, ticket.Numero, 12)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Prioridade)
	assert.Equal(t, "cli-42", *ticket.ClienteID)
	assert.Contains(t, f.sink.types(), events.EventTicketCreated)
}

func TestCreateTicketRejectsUnknownPriorityAndAssistance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tickets.CreateTicket(ctx, "op", TicketCreateInput{Prioridade: "urgente"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	missing := "404"
	_, err = f.tickets.CreateTicket(ctx, "op", TicketCreateInput{AssistenciaID: &missing})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestAddItem(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	ctx := context.Background()
	prazo := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

	item, err := f.tickets.AddItem(ctx, "op", ticket.ID, ItemCreateInput{
		ProdutoID:        " prod-9 ",
		DepositoOrigemID: "1",
		PrazoFinalizacao: &prazo,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusOpen, item.StatusItem)
	assert.Equal(t, "prod-9", item.ProdutoID)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *item.PrazoFinalizacao)

	_, err = f.tickets.AddItem(ctx, "op", ticket.ID, ItemCreateInput{ProdutoID: "p", DepositoOrigemID: "nope"})
	assert.Equal(t, "deposito_origem_id", apperrors.ToDomainError(err).Details["campo"])

	_, err = f.tickets.AddItem(ctx, "op", ticket.ID, ItemCreateInput{DepositoOrigemID: "1"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = f.tickets.AddItem(ctx, "op", "ghost", ItemCreateInput{ProdutoID: "p", DepositoOrigemID: "1"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestTicketViewAggregate(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	ctx := context.Background()

	late := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	soon := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	a, err := f.tickets.AddItem(ctx, "op", ticket.ID, ItemCreateInput{ProdutoID: "a", DepositoOrigemID: "1", PrazoFinalizacao: &soon})
	require.NoError(t, err)
	b, err := f.tickets.AddItem(ctx, "op", ticket.ID, ItemCreateInput{ProdutoID: "b", DepositoOrigemID: "1", PrazoFinalizacao: &late})
	require.NoError(t, err)
	c := f.newItem(t, ticket.ID)

	f.mustApply(t, a.ID, &workflow.SendCommand{AssistenciaID: "5", DepositoAssistenciaID: "10"})
	f.mustApply(t, c.ID, &workflow.CancelCommand{})

	view, err := f.tickets.GetTicketView(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 3)
	assert.Equal(t, domain.ItemStatusSentToAssistance, view.Status)

	require.NotNil(t, view.MostUrgent)
	assert.Equal(t, b.ID, view.MostUrgent.Item.ID)
	assert.Equal(t, "3 dias em atraso", view.MostUrgent.SLA.Label)
	assert.Equal(t, domain.SeverityDanger, view.MostUrgent.SLA.Severity)

	assert.Equal(t, "em 2 dias", view.Items[0].SLA.Label)
	assert.Equal(t, domain.SeverityWarning, view.Items[0].SLA.Severity)
	assert.Equal(t, "—", view.Items[2].SLA.Label)
}

func TestAggregateEdges(t *testing.T) {
	ticket := domain.Ticket{ID: "t1"}

	empty := Aggregate(ticket, nil)
	assert.Equal(t, domain.ItemStatusOpen, empty.Status)
	assert.Nil(t, empty.MostUrgent)

	cancelled := Aggregate(ticket, []domain.ItemView{
		{Item: domain.Item{ID: "1", StatusItem: domain.ItemStatusCancelled}},
		{Item: domain.Item{ID: "2", StatusItem: domain.ItemStatusCancelled}},
	})
	assert.Equal(t, domain.ItemStatusCancelled, cancelled.Status)

	mixed := Aggregate(ticket, []domain.ItemView{
		{Item: domain.Item{ID: "1", StatusItem: domain.ItemStatusInRepair}},
		{Item: domain.Item{ID: "2", StatusItem: domain.ItemStatusDelivered}},
		{Item: domain.Item{ID: "3", StatusItem: domain.ItemStatusCancelled}},
	})
	assert.Equal(t, domain.ItemStatusDelivered, mixed.Status)
	assert.Nil(t, mixed.MostUrgent, "items without deadline are never most urgent")
}

func TestSLAOnReadFollowsClockAndStatus(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	ctx := context.Background()

	prazo := fixtureNow.AddDate(0, 0, -3)
	item, err := f.tickets.AddItem(ctx, "op", ticket.ID, ItemCreateInput{ProdutoID: "p", DepositoOrigemID: "1", PrazoFinalizacao: &prazo})
	require.NoError(t, err)
	f.forceState(t, item.ID, domain.ItemStatusInRepair, true)

	got, err := f.tickets.ItemSLA(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "3 dias em atraso", got.Label)
	assert.Equal(t, domain.SeverityDanger, got.Severity)

	f.forceState(t, item.ID, domain.ItemStatusDelivered, true)
	got, err = f.tickets.ItemSLA(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "—", got.Label)
	assert.Equal(t, domain.SeverityNeutral, got.Severity)
}

func TestGetItemDetail(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	item := f.newItem(t, ticket.ID)
	f.mustApply(t, item.ID, &workflow.SendCommand{AssistenciaID: "5", DepositoAssistenciaID: "10"})

	detail, err := f.tickets.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusSentToAssistance, detail.Item.StatusItem)
	assert.Len(t, detail.Movements, 1)
	assert.Equal(t, []workflow.Operation{workflow.OpRegisterBudget, workflow.OpCancel}, detail.AllowedOperations)
	assert.Equal(t, "Prazo N/D", detail.SLA.Label)

	_, err = f.tickets.GetItem(context.Background(), "ghost")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestListAuditLog(t *testing.T) {
	f := newFixture(t)
	ticket := f.newTicket(t)
	item := f.newItem(t, ticket.ID)
	f.mustApply(t, item.ID, &workflow.StartAnalysisCommand{})
	f.mustApply(t, item.ID, &workflow.StartLocalRepairCommand{DepositoEntradaID: "3"})

	_, err := f.apply(t, item.ID, &workflow.DeliverCommand{DepositoSaidaID: "7"}, "")
	require.Error(t, err)

	entries, err := f.tickets.ListAuditLog(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2, "failed attempts leave no trace")
	assert.Equal(t, domain.ItemStatusInAnalysis, entries[0].StatusPara)
	assert.Equal(t, domain.ItemStatusInAnalysis, entries[1].StatusDe)
	assert.Equal(t, domain.ItemStatusInRepair, entries[1].StatusPara)
	assert.NotNil(t, entries[1].MovimentoID)

	_, err = f.tickets.ListAuditLog(context.Background(), "ghost")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
