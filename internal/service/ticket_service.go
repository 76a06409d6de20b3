package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/assistencia-service/internal/clock"
	"github.com/spec-kit/assistencia-service/internal/directory"
	"github.com/spec-kit/assistencia-service/internal/domain"
	"github.com/spec-kit/assistencia-service/internal/events"
	"github.com/spec-kit/assistencia-service/internal/repository"
	"github.com/spec-kit/assistencia-service/internal/sla"
	"github.com/spec-kit/assistencia-service/internal/workflow"
	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

// TicketService registers tickets and items and serves the read side.
// Reads take no locks and may trail an in-flight transition.
type TicketService struct {
	store       repository.Store
	directory   directory.Resolver
	machine     *workflow.Machine
	clock       clock.Clock
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	warningDays int
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	Store          repository.Store
	Directory      directory.Resolver
	Machine        *workflow.Machine
	Clock          clock.Clock
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	SLAWarningDays int
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	OrigemTipo       string
	OrigemID         *string
	ClienteID        *string
	AssistenciaID    *string
	Prioridade       domain.TicketPriority
	LocalReparo      string
	CustoResponsavel string
	Observacoes      string
}

// ItemCreateInput describes a new item on a ticket.
type ItemCreateInput struct {
	ProdutoID        string
	VariacaoID       *string
	NumeroSerie      string
	Lote             string
	DefeitoID        *string
	DepositoOrigemID string
	PrazoFinalizacao *time.Time
	NotaNumero       string
	Observacoes      string
}

// ItemDetail is an item with its derived SLA, its movements and the
// operations currently open to it.
type ItemDetail struct {
	Item              domain.Item
	SLA               domain.SLA
	Movements         []domain.Movement
	AllowedOperations []workflow.Operation
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		store:       deps.Store,
		directory:   deps.Directory,
		machine:     deps.Machine,
		clock:       deps.Clock,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		warningDays: deps.SLAWarningDays,
	}
	if svc.directory == nil {
		svc.directory = directory.NewResolver(directory.Dependencies{Repo: deps.Store.Directory(), Logger: deps.Logger})
	}
	if svc.machine == nil {
		svc.machine = workflow.NewMachine()
	}
	if svc.clock == nil {
		svc.clock = clock.System{}
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.warningDays <= 0 {
		svc.warningDays = sla.DefaultWarningDays
	}
	return svc
}

// CreateTicket opens a ticket with a generated numero.
func (s *TicketService) CreateTicket(ctx context.Context, operator string, input TicketCreateInput) (*domain.Ticket, error) {
	if input.Prioridade == "" {
		input.Prioridade = domain.TicketPriorityMedium
	}
	if !input.Prioridade.IsValid() {
		return nil, apperrors.NewValidationError("invalid prioridade", map[string]any{
			"campo": "prioridade",
			"valor": string(input.Prioridade),
		})
	}
	if input.AssistenciaID != nil && strings.TrimSpace(*input.AssistenciaID) != "" {
		if _, err := s.directory.Assistance(ctx, "assistencia_id", *input.AssistenciaID); err != nil {
			return nil, err
		}
	}

	ticket := &domain.Ticket{
		OrigemTipo:       strings.TrimSpace(input.OrigemTipo),
		OrigemID:         trimmedOrNil(input.OrigemID),
		ClienteID:        trimmedOrNil(input.ClienteID),
		AssistenciaID:    trimmedOrNil(input.AssistenciaID),
		Prioridade:       input.Prioridade,
		LocalReparo:      strings.TrimSpace(input.LocalReparo),
		CustoResponsavel: strings.TrimSpace(input.CustoResponsavel),
		Observacoes:      strings.TrimSpace(input.Observacoes),
	}

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		ticket.Numero = generateTicketNumber()
		if err = s.store.Tickets().Create(ctx, ticket); !errors.Is(err, repository.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("ticket created", zap.String("ticket_id", ticket.ID), zap.String("numero", ticket.Numero), zap.String("operator", operator))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{Subject: operator},
		Payload: events.TicketCreatedPayload{
			Numero:     ticket.Numero,
			Prioridade: ticket.Prioridade,
			OrigemTipo: ticket.OrigemTipo,
		},
	})
	return ticket, nil
}

// AddItem registers a new item in ABERTO on an existing ticket.
func (s *TicketService) AddItem(ctx context.Context, operator, ticketID string, input ItemCreateInput) (*domain.Item, error) {
	if strings.TrimSpace(input.ProdutoID) == "" {
		return nil, apperrors.NewValidationError("produto_id is required", map[string]any{"campo": "produto_id"})
	}
	if _, err := s.directory.Deposit(ctx, "deposito_origem_id", input.DepositoOrigemID); err != nil {
		return nil, err
	}
	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return nil, err
	}

	item := &domain.Item{
		TicketID:         ticketID,
		ProdutoID:        strings.TrimSpace(input.ProdutoID),
		VariacaoID:       trimmedOrNil(input.VariacaoID),
		NumeroSerie:      strings.TrimSpace(input.NumeroSerie),
		Lote:             strings.TrimSpace(input.Lote),
		DefeitoID:        trimmedOrNil(input.DefeitoID),
		DepositoOrigemID: strings.TrimSpace(input.DepositoOrigemID),
		StatusItem:       domain.ItemStatusOpen,
		PrazoFinalizacao: dateOnly(input.PrazoFinalizacao),
		NotaNumero:       strings.TrimSpace(input.NotaNumero),
		Observacoes:      strings.TrimSpace(input.Observacoes),
	}
	if err := s.store.Items().Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("item added", zap.String("ticket_id", ticketID), zap.String("item_id", item.ID), zap.String("operator", operator))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventItemAdded,
		TicketID: ticketID,
		Actor:    events.Actor{Subject: operator},
		Payload: events.ItemAddedPayload{
			ItemID:           item.ID,
			ProdutoID:        item.ProdutoID,
			DepositoOrigemID: item.DepositoOrigemID,
		},
	})
	return item, nil
}

// GetTicketView returns the ticket with every item, the aggregate status and
// the most urgent open deadline.
func (s *TicketService) GetTicketView(ctx context.Context, ticketID string) (*domain.TicketView, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Items().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.clock.Now()
	views := make([]domain.ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, domain.ItemView{Item: item, SLA: s.deriveAt(&item, now)})
	}
	return Aggregate(*ticket, views), nil
}

// Aggregate builds a TicketView from already derived item views. The status
// is the most advanced non-cancelled item state; a ticket whose items are all
// cancelled is CANCELADO and one with no items is ABERTO.
func Aggregate(ticket domain.Ticket, views []domain.ItemView) *domain.TicketView {
	view := &domain.TicketView{Ticket: ticket, Items: views, Status: domain.ItemStatusOpen}
	if len(views) == 0 {
		return view
	}

	best := -1
	for i := range views {
		st := views[i].Item.StatusItem
		if st == domain.ItemStatusCancelled {
			continue
		}
		if best < 0 || st.Rank() > views[best].Item.StatusItem.Rank() {
			best = i
		}
	}
	if best < 0 {
		view.Status = domain.ItemStatusCancelled
	} else {
		view.Status = views[best].Item.StatusItem
	}

	for i := range views {
		v := &views[i]
		if v.Item.StatusItem.IsTerminal() || v.SLA.DiffDays == nil {
			continue
		}
		if view.MostUrgent == nil || sla.MoreUrgent(v.SLA, view.MostUrgent.SLA) {
			view.MostUrgent = v
		}
	}
	return view
}

// GetItem returns one item with SLA, movement history and allowed operations.
func (s *TicketService) GetItem(ctx context.Context, itemID string) (*ItemDetail, error) {
	item, err := s.store.Items().GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("item", map[string]any{"item_id": itemID})
		}
		return nil, apperrors.MapError(err)
	}
	movements, err := s.store.Movements().ListByItem(ctx, itemID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ItemDetail{
		Item:              *item,
		SLA:               s.DeriveSLA(item),
		Movements:         movements,
		AllowedOperations: s.machine.AllowedOperations(item),
	}, nil
}

// ItemSLA derives the SLA of one item.
func (s *TicketService) ItemSLA(ctx context.Context, itemID string) (domain.SLA, error) {
	detail, err := s.GetItem(ctx, itemID)
	if err != nil {
		return domain.SLA{}, err
	}
	return detail.SLA, nil
}

// DeriveSLA computes the SLA of item against the service clock.
func (s *TicketService) DeriveSLA(item *domain.Item) domain.SLA {
	return s.deriveAt(item, s.clock.Now())
}

func (s *TicketService) deriveAt(item *domain.Item, now time.Time) domain.SLA {
	return sla.DeriveWithWindow(item.PrazoFinalizacao, item.StatusItem, now, s.warningDays)
}

// ListAuditLog returns the ticket history oldest first.
func (s *TicketService) ListAuditLog(ctx context.Context, ticketID string) ([]domain.AuditLogEntry, error) {
	if _, err := s.getTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.store.AuditLog().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func generateTicketNumber() string {
	return "AST-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// dateOnly keeps the calendar date of t as a UTC midnight.
func dateOnly(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	y, m, d := t.Date()
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}
