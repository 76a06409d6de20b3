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
	"github.com/spec-kit/assistencia-service/internal/itemlock"
	"github.com/spec-kit/assistencia-service/internal/ledger"
	"github.com/spec-kit/assistencia-service/internal/observability"
	"github.com/spec-kit/assistencia-service/internal/repository"
	"github.com/spec-kit/assistencia-service/internal/workflow"
	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

// AssistanceService is the single entry point for item transitions.
type AssistanceService struct {
	store      repository.Store
	machine    *workflow.Machine
	ledger     ledger.Recorder
	directory  directory.Resolver
	locker     itemlock.Locker
	clock      clock.Clock
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AssistanceDependencies bundles collaborators for the assistance service.
type AssistanceDependencies struct {
	Store      repository.Store
	Machine    *workflow.Machine
	Ledger     ledger.Recorder
	Directory  directory.Resolver
	Locker     itemlock.Locker
	Clock      clock.Clock
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// TransitionInput is one applyTransition call.
type TransitionInput struct {
	ItemID  string
	Command workflow.Command
	// IdempotencyKey identifies the attempt. Retrying with the same key never
	// records a second movement or advances the item twice. Generated when empty.
	IdempotencyKey string
	Operator       string
}

// TransitionResult is the committed outcome of a transition.
type TransitionResult struct {
	Item     *domain.Item
	Movement *domain.Movement
	Log      *domain.AuditLogEntry
	// Replayed is set when the key had already been applied and nothing was
	// written by this call.
	Replayed            bool
	NeedsReconciliation bool
}

// NewAssistanceService constructs the service.
func NewAssistanceService(deps AssistanceDependencies) *AssistanceService {
	svc := &AssistanceService{
		store:      deps.Store,
		machine:    deps.Machine,
		ledger:     deps.Ledger,
		directory:  deps.Directory,
		locker:     deps.Locker,
		clock:      deps.Clock,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
	if svc.machine == nil {
		svc.machine = workflow.NewMachine()
	}
	if svc.ledger == nil {
		svc.ledger = ledger.NewService(0, deps.Logger, deps.Metrics)
	}
	if svc.directory == nil {
		svc.directory = directory.NewResolver(directory.Dependencies{Repo: deps.Store.Directory(), Logger: deps.Logger, Metrics: deps.Metrics})
	}
	if svc.locker == nil {
		svc.locker = itemlock.NewLocalLocker()
	}
	if svc.clock == nil {
		svc.clock = clock.System{}
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// ApplyTransition validates and applies one operation to an item. The state
// write, the movement and the audit entry commit together or not at all.
func (s *AssistanceService) ApplyTransition(ctx context.Context, in TransitionInput) (*TransitionResult, error) {
	started := time.Now()
	op := ""
	if in.Command != nil {
		op = string(in.Command.Operation())
	}

	result, err := s.applyTransition(ctx, in)
	if err != nil {
		s.logRejected(op, in, err)
		s.metrics.RecordTransition(op, apperrors.ToDomainError(err).Code, time.Since(started))
		return nil, err
	}

	outcome := "ok"
	if result.Replayed {
		outcome = "replay"
	}
	s.metrics.RecordTransition(op, outcome, time.Since(started))
	if result.Replayed {
		s.logger.Info("transition replayed",
			zap.String("item_id", result.Item.ID),
			zap.String("operacao", op),
			zap.String("idempotency_key", in.IdempotencyKey),
		)
		return result, nil
	}

	s.logger.Info("transition applied",
		zap.String("item_id", result.Item.ID),
		zap.String("ticket_id", result.Item.TicketID),
		zap.String("operacao", op),
		zap.String("status_de", string(result.Log.StatusDe)),
		zap.String("status_para", string(result.Log.StatusPara)),
		zap.String("operator", in.Operator),
	)
	s.publishTransition(ctx, in, result)
	return result, nil
}

func (s *AssistanceService) applyTransition(ctx context.Context, in TransitionInput) (*TransitionResult, error) {
	itemID := strings.TrimSpace(in.ItemID)
	if itemID == "" {
		return nil, apperrors.NewValidationError("item id is required", map[string]any{"campo": "item_id"})
	}
	if in.Command == nil {
		return nil, apperrors.NewValidationError("operation is required", map[string]any{"campo": "operacao"})
	}
	if err := in.Command.Validate(); err != nil {
		return nil, err
	}
	if err := s.resolveReferences(ctx, in.Command); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" {
		key = uuid.NewString()
	}
	op := in.Command.Operation()

	release, err := s.locker.Acquire(ctx, itemID)
	if err != nil {
		if errors.Is(err, itemlock.ErrHeld) {
			return nil, apperrors.NewConflict("item is being changed by another request", map[string]any{"item_id": itemID})
		}
		return nil, apperrors.NewCollaboratorError("item-lock", err)
	}
	defer release()

	var result *TransitionResult
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		item, err := tx.Items().GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		prior, err := tx.AuditLog().FindByIdempotencyKey(ctx, item.ID, key)
		switch {
		case err == nil:
			result, err = s.replay(ctx, tx, item, prior, op)
			return err
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		outcome, err := s.machine.Apply(item, in.Command, s.clock.Now())
		if err != nil {
			return err
		}

		var movement *domain.Movement
		if outcome.Movement != nil {
			movement, err = s.recordMovement(ctx, tx, item, op, key, outcome.Movement)
			if err != nil {
				return err
			}
		}
		if workflow.RequiresMovement(op) && movement == nil {
			return apperrors.NewInternalError(errors.New(string(op) + " completed without a movement"))
		}

		if err := tx.Items().Update(ctx, outcome.Item); err != nil {
			return err
		}

		entry := &domain.AuditLogEntry{
			TicketID:       item.TicketID,
			ItemID:         &outcome.Item.ID,
			Operacao:       string(op),
			Mensagem:       outcome.Message,
			StatusDe:       outcome.From,
			StatusPara:     outcome.To,
			IdempotencyKey: key,
		}
		if movement != nil {
			entry.MovimentoID = &movement.ID
		}
		if err := tx.AuditLog().Append(ctx, entry); err != nil {
			return err
		}

		result = &TransitionResult{
			Item:                outcome.Item,
			Movement:            movement,
			Log:                 entry,
			NeedsReconciliation: outcome.NeedsReconciliation,
		}
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err, itemID)
	}
	return result, nil
}

// replay answers a retried key with what the first attempt committed.
func (s *AssistanceService) replay(ctx context.Context, tx repository.Repositories, item *domain.Item, prior *domain.AuditLogEntry, op workflow.Operation) (*TransitionResult, error) {
	if prior.Operacao != string(op) {
		return nil, apperrors.NewConflict("idempotency key already used for another operation", map[string]any{
			"idempotency_key": prior.IdempotencyKey,
			"operacao":        prior.Operacao,
		})
	}
	result := &TransitionResult{Item: item, Log: prior, Replayed: true}
	if prior.MovimentoID != nil {
		movement, err := tx.Movements().GetByID(ctx, *prior.MovimentoID)
		if err != nil {
			return nil, err
		}
		result.Movement = movement
	}
	return result, nil
}

func (s *AssistanceService) recordMovement(ctx context.Context, tx repository.Repositories, item *domain.Item, op workflow.Operation, key string, intent *workflow.MovementIntent) (*domain.Movement, error) {
	origem, destino := intent.Origem, intent.Destino
	if origem.Kind == domain.LocationCustomer || destino.Kind == domain.LocationCustomer {
		ticket, err := tx.Tickets().GetByID(ctx, item.TicketID)
		if err != nil {
			return nil, err
		}
		if ticket.ClienteID != nil {
			if origem.Kind == domain.LocationCustomer {
				origem.ID = *ticket.ClienteID
			}
			if destino.Kind == domain.LocationCustomer {
				destino.ID = *ticket.ClienteID
			}
		}
	}
	return s.ledger.Record(ctx, tx.Movements(), string(op), domain.Movement{
		ItemID:         item.ID,
		Origem:         origem,
		Destino:        destino,
		IdempotencyKey: key + ":" + string(op),
	})
}

// resolveReferences checks every deposit and assistance the payload names.
func (s *AssistanceService) resolveReferences(ctx context.Context, cmd workflow.Command) error {
	switch c := cmd.(type) {
	case *workflow.SendCommand:
		if _, err := s.directory.Assistance(ctx, "assistencia_id", c.AssistenciaID.String()); err != nil {
			return err
		}
		_, err := s.directory.Deposit(ctx, "deposito_assistencia_id", c.DepositoAssistenciaID.String())
		return err
	case *workflow.StartLocalRepairCommand:
		_, err := s.directory.Deposit(ctx, "deposito_entrada_id", c.DepositoEntradaID.String())
		return err
	case *workflow.RegisterReturnCommand:
		_, err := s.directory.Deposit(ctx, "deposito_retorno_id", c.DepositoRetornoID.String())
		return err
	case *workflow.DeliverCommand:
		_, err := s.directory.Deposit(ctx, "deposito_saida_id", c.DepositoSaidaID.String())
		return err
	}
	return nil
}

func (s *AssistanceService) logRejected(op string, in TransitionInput, err error) {
	de := apperrors.ToDomainError(err)
	fields := []zap.Field{
		zap.String("item_id", in.ItemID),
		zap.String("operacao", op),
		zap.String("code", de.Code),
		zap.Any("details", de.Details),
		zap.String("operator", in.Operator),
	}
	switch de.Code {
	case apperrors.CodeValidation, apperrors.CodeInvalidTransition, apperrors.CodeNotFound:
		s.logger.Info("transition rejected", append(fields, zap.String("reason", de.Message))...)
	case apperrors.CodeConflict, apperrors.CodeCollaborator:
		s.logger.Warn("transition failed", append(fields, zap.Error(err))...)
	default:
		s.logger.Error("transition failed", append(fields, zap.Error(err))...)
	}
}

func (s *AssistanceService) publishTransition(ctx context.Context, in TransitionInput, result *TransitionResult) {
	actor := events.Actor{Subject: in.Operator}
	payload := events.ItemTransitionedPayload{
		ItemID:      result.Item.ID,
		Operacao:    result.Log.Operacao,
		StatusDe:    result.Log.StatusDe,
		StatusPara:  result.Log.StatusPara,
		MovimentoID: result.Log.MovimentoID,
		Mensagem:    result.Log.Mensagem,
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventItemTransitioned,
		TicketID: result.Item.TicketID,
		Actor:    actor,
		Payload:  payload,
	})

	if !result.NeedsReconciliation {
		return
	}
	s.metrics.RecordReconciliationPending()
	s.logger.Warn("cancelled item needs stock reconciliation",
		zap.String("item_id", result.Item.ID),
		zap.String("status_de", string(result.Log.StatusDe)),
		zap.Stringp("deposito_assistencia_id", result.Item.DepositoAssistenciaID),
	)
	localizado := ""
	if result.Item.DepositoAssistenciaID != nil {
		localizado = *result.Item.DepositoAssistenciaID
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventReconciliationDue,
		TicketID: result.Item.TicketID,
		Actor:    actor,
		Payload: events.ReconciliationDuePayload{
			ItemID:     result.Item.ID,
			StatusDe:   result.Log.StatusDe,
			Localizado: localizado,
		},
	})
}

func (s *AssistanceService) publishEvent(ctx context.Context, event events.Event) {
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

// mapStoreError turns repository sentinels into domain errors. Domain errors
// pass through unchanged.
func mapStoreError(err error, itemID string) error {
	var de *apperrors.DomainError
	switch {
	case errors.As(err, &de):
		return de
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("item", map[string]any{"item_id": itemID})
	case errors.Is(err, repository.ErrLocked):
		return apperrors.NewConflict("item is locked by another transaction", map[string]any{"item_id": itemID})
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("transition already recorded", map[string]any{"item_id": itemID})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.NewCollaboratorError("store", err)
	}
	return apperrors.NewInternalError(err)
}
