package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/assistencia-service/internal/clock"
	"github.com/spec-kit/assistencia-service/internal/domain"
	"github.com/spec-kit/assistencia-service/internal/events"
	"github.com/spec-kit/assistencia-service/internal/ledger"
	"github.com/spec-kit/assistencia-service/internal/repository/memory"
	"github.com/spec-kit/assistencia-service/internal/workflow"
)

var fixtureNow = time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)

type fixture struct {
	store      *memory.Store
	clock      *clock.Fixed
	dispatcher events.Dispatcher
	sink       *mockSink
	svc        *AssistanceService
	tickets    *TicketService
}

type fixtureOption func(*AssistanceDependencies)

func withRecorder(r ledger.Recorder) fixtureOption {
	return func(d *AssistanceDependencies) { d.Ledger = r }
}

func withLocker(l *mockLocker) fixtureOption {
	return func(d *AssistanceDependencies) { d.Locker = l }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	clk := clock.NewFixed(fixtureNow)
	store := memory.NewStore(memory.WithClock(clk))
	for _, id := range []string{"1", "3", "7", "10", "dep-origem"} {
		store.AddDeposit(id, "Deposito "+id)
	}
	store.AddAssistance("5", "Autorizada 5")

	dispatcher := events.NewInMemoryDispatcher()
	sink := &mockSink{}
	NewNotificationService(dispatcher, nil, sink).RegisterHandlers()

	deps := AssistanceDependencies{
		Store:      store,
		Clock:      clk,
		Dispatcher: dispatcher,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &fixture{
		store:      store,
		clock:      clk,
		dispatcher: dispatcher,
		sink:       sink,
		svc:        NewAssistanceService(deps),
		tickets: NewTicketService(TicketDependencies{
			Store:      store,
			Clock:      clk,
			Dispatcher: dispatcher,
		}),
	}
}

func (f *fixture) newTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	cliente := "cli-42"
	ticket, err := f.tickets.CreateTicket(context.Background(), "op", TicketCreateInput{
		OrigemTipo: "pedido",
		ClienteID:  &cliente,
	})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) newItem(t *testing.T, ticketID string) *domain.Item {
	t.Helper()
	item, err := f.tickets.AddItem(context.Background(), "op", ticketID, ItemCreateInput{
		ProdutoID:        "prod-1",
		NumeroSerie:      "SN-1",
		DepositoOrigemID: "1",
	})
	require.NoError(t, err)
	return item
}

// forceState writes status directly, bypassing the machine, to set up
// precondition checks. via selects the assistance path.
func (f *fixture) forceState(t *testing.T, itemID string, status domain.ItemStatus, via bool) {
	t.Helper()
	ctx := context.Background()
	item, err := f.store.Items().GetByID(ctx, itemID)
	require.NoError(t, err)
	item.StatusItem = status
	if via {
		assistencia, deposito := "5", "10"
		item.AssistenciaID = &assistencia
		item.DepositoAssistenciaID = &deposito
	} else {
		item.AssistenciaID = nil
		item.DepositoAssistenciaID = nil
	}
	require.NoError(t, f.store.Items().Update(ctx, item))
}

func (f *fixture) apply(t *testing.T, itemID string, cmd workflow.Command, key string) (*TransitionResult, error) {
	t.Helper()
	return f.svc.ApplyTransition(context.Background(), TransitionInput{
		ItemID:         itemID,
		Command:        cmd,
		IdempotencyKey: key,
		Operator:       "op",
	})
}

func (f *fixture) mustApply(t *testing.T, itemID string, cmd workflow.Command) *TransitionResult {
	t.Helper()
	res, err := f.apply(t, itemID, cmd, "")
	require.NoError(t, err)
	return res
}

func (f *fixture) item(t *testing.T, id string) *domain.Item {
	t.Helper()
	item, err := f.store.Items().GetByID(context.Background(), id)
	require.NoError(t, err)
	return item
}

func (f *fixture) movements(t *testing.T, itemID string) []domain.Movement {
	t.Helper()
	out, err := f.store.Movements().ListByItem(context.Background(), itemID)
	require.NoError(t, err)
	return out
}

func (f *fixture) history(t *testing.T, ticketID string) []domain.AuditLogEntry {
	t.Helper()
	out, err := f.store.AuditLog().ListByTicket(context.Background(), ticketID)
	require.NoError(t, err)
	return out
}

// validCommand returns a payload that passes validation for op.
func validCommand(op workflow.Operation) workflow.Command {
	valor := decimal.RequireFromString("150.00")
	switch op {
	case workflow.OpStartAnalysis:
		return &workflow.StartAnalysisCommand{}
	case workflow.OpSend:
		return &workflow.SendCommand{AssistenciaID: "5", DepositoAssistenciaID: "10"}
	case workflow.OpRegisterBudget:
		return &workflow.RegisterBudgetCommand{Valor: &valor}
	case workflow.OpDecideBudget:
		return workflow.Decide(true, "")
	case workflow.OpStartLocalRepair:
		return &workflow.StartLocalRepairCommand{DepositoEntradaID: "3"}
	case workflow.OpCompleteLocalRepair:
		return &workflow.CompleteLocalRepairCommand{}
	case workflow.OpFactoryDispatch:
		return &workflow.FactoryDispatchCommand{}
	case workflow.OpRegisterReturn:
		return &workflow.RegisterReturnCommand{DepositoRetornoID: "3"}
	case workflow.OpDeliver:
		return &workflow.DeliverCommand{DepositoSaidaID: "7"}
	case workflow.OpCancel:
		return &workflow.CancelCommand{}
	}
	return nil
}
