// Package workflow holds the item state machine: the transition table, the
// precondition checks and the state mutation for each operation. It performs
// no I/O; callers persist the outcome and record the movement it asks for.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/assistencia-service/internal/domain"
	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

type repairPath int

const (
	anyPath repairPath = iota
	localPath
	assistancePath
)

// precondition is one accepted starting point of an operation.
type precondition struct {
	status domain.ItemStatus
	path   repairPath
}

func (p precondition) matches(item *domain.Item) bool {
	if item.StatusItem != p.status {
		return false
	}
	switch p.path {
	case localPath:
		return !item.ViaAssistance()
	case assistancePath:
		return item.ViaAssistance()
	}
	return true
}

func (p precondition) String() string {
	switch p.path {
	case localPath:
		return string(p.status) + " (reparo local)"
	case assistancePath:
		return string(p.status) + " (assistência)"
	}
	return string(p.status)
}

func from(statuses ...domain.ItemStatus) []precondition {
	out := make([]precondition, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, precondition{status: s})
	}
	return out
}

// MovementIntent asks the caller to record a physical transfer. A customer
// endpoint has no ID here; the caller fills it from the ticket.
type MovementIntent struct {
	Origem  domain.Location
	Destino domain.Location
}

// Outcome is the result of a successful transition, not yet persisted.
type Outcome struct {
	Operation Operation
	From      domain.ItemStatus
	To        domain.ItemStatus
	Item      *domain.Item
	Movement  *MovementIntent
	Message   string
	// NeedsReconciliation is set when a cancelled item is away from its
	// origin deposit and stock must be reconciled by hand.
	NeedsReconciliation bool
}

type transition struct {
	from  []precondition
	apply func(item *domain.Item, cmd Command, now time.Time) (*MovementIntent, string)
}

// Machine validates and applies item transitions.
type Machine struct {
	table map[Operation]transition
}

// NewMachine builds the machine with the full transition table.
func NewMachine() *Machine {
	nonTerminal := make([]precondition, 0)
	for _, s := range domain.AllItemStatuses() {
		if !s.IsTerminal() {
			nonTerminal = append(nonTerminal, precondition{status: s})
		}
	}

	return &Machine{table: map[Operation]transition{
		OpStartAnalysis: {
			from:  from(domain.ItemStatusOpen),
			apply: applyStartAnalysis,
		},
		OpSend: {
			from:  from(domain.ItemStatusOpen, domain.ItemStatusInAnalysis),
			apply: applySend,
		},
		OpRegisterBudget: {
			from:  from(domain.ItemStatusSentToAssistance),
			apply: applyRegisterBudget,
		},
		OpDecideBudget: {
			from:  from(domain.ItemStatusInBudget),
			apply: applyBudgetDecision,
		},
		OpStartLocalRepair: {
			from:  from(domain.ItemStatusOpen, domain.ItemStatusInAnalysis),
			apply: applyStartLocalRepair,
		},
		OpCompleteLocalRepair: {
			from:  []precondition{{status: domain.ItemStatusInRepair, path: localPath}},
			apply: applyCompleteLocalRepair,
		},
		OpFactoryDispatch: {
			from:  from(domain.ItemStatusInRepair),
			apply: applyFactoryDispatch,
		},
		OpRegisterReturn: {
			from: []precondition{
				{status: domain.ItemStatusInRepair, path: assistancePath},
				{status: domain.ItemStatusBudgetRejected},
			},
			apply: applyRegisterReturn,
		},
		OpDeliver: {
			from:  from(domain.ItemStatusReturned, domain.ItemStatusLocalRepairDone),
			apply: applyDeliver,
		},
		OpCancel: {
			from:  nonTerminal,
			apply: applyCancel,
		},
	}}
}

// RequiresMovement reports whether op always records a movement.
func RequiresMovement(op Operation) bool {
	switch op {
	case OpSend, OpStartLocalRepair, OpRegisterReturn, OpDeliver:
		return true
	}
	return false
}

// Allowed reports whether op may run on item in its current state.
func (m *Machine) Allowed(item *domain.Item, op Operation) bool {
	t, ok := m.table[op]
	if !ok || item == nil {
		return false
	}
	return m.matches(t, item)
}

// AllowedOperations lists the operations available to item, in table order.
func (m *Machine) AllowedOperations(item *domain.Item) []Operation {
	var out []Operation
	for _, op := range AllOperations() {
		if m.Allowed(item, op) {
			out = append(out, op)
		}
	}
	return out
}

// Apply validates cmd, checks the precondition against item and returns the
// mutated copy. item itself is never modified.
func (m *Machine) Apply(item *domain.Item, cmd Command, now time.Time) (*Outcome, error) {
	if cmd == nil {
		return nil, apperrors.NewValidationError("command is required", nil)
	}
	op := cmd.Operation()
	t, ok := m.table[op]
	if !ok {
		return nil, apperrors.NewValidationError("unknown operation", map[string]any{"operacao": string(op)})
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperrors.NewNotFound("item", nil)
	}
	if !item.StatusItem.IsValid() {
		return nil, apperrors.NewInternalError(fmt.Errorf("item %s has unknown status %q", item.ID, item.StatusItem))
	}
	if !m.matches(t, item) {
		return nil, apperrors.NewInvalidTransition(string(op), describe(t.from), observed(item))
	}

	next := item.Clone()
	prev := item.StatusItem
	intent, message := t.apply(next, cmd, now)
	next.UpdatedAt = now

	out := &Outcome{
		Operation: op,
		From:      prev,
		To:        next.StatusItem,
		Item:      next,
		Movement:  intent,
		Message:   message,
	}
	if op == OpCancel {
		out.NeedsReconciliation = awayFromOrigin(prev)
	}
	return out, nil
}

func (m *Machine) matches(t transition, item *domain.Item) bool {
	for _, p := range t.from {
		if p.matches(item) {
			return true
		}
	}
	return false
}

func describe(pre []precondition) []string {
	out := make([]string, 0, len(pre))
	for _, p := range pre {
		out = append(out, p.String())
	}
	return out
}

func observed(item *domain.Item) string {
	if item.StatusItem == domain.ItemStatusInRepair {
		if item.ViaAssistance() {
			return precondition{status: item.StatusItem, path: assistancePath}.String()
		}
		return precondition{status: item.StatusItem, path: localPath}.String()
	}
	return string(item.StatusItem)
}

// awayFromOrigin reports whether an item in status s has left its origin
// deposit through a recorded movement.
func awayFromOrigin(s domain.ItemStatus) bool {
	return s != domain.ItemStatusOpen && s != domain.ItemStatusInAnalysis
}

func applyStartAnalysis(item *domain.Item, cmd Command, _ time.Time) (*MovementIntent, string) {
	c := cmd.(*StartAnalysisCommand)
	item.StatusItem = domain.ItemStatusInAnalysis
	return nil, withNote("Item em análise", c.Observacao)
}

func applySend(item *domain.Item, cmd Command, now time.Time) (*MovementIntent, string) {
	c := cmd.(*SendCommand)
	assistencia := c.AssistenciaID.String()
	deposito := c.DepositoAssistenciaID.String()

	intent := &MovementIntent{
		Origem:  domain.Location{Kind: domain.LocationDeposit, ID: item.DepositoOrigemID},
		Destino: domain.Location{Kind: domain.LocationDeposit, ID: deposito},
	}

	item.StatusItem = domain.ItemStatusSentToAssistance
	item.AssistenciaID = &assistencia
	item.DepositoAssistenciaID = &deposito
	if c.Rastreio != nil {
		item.RastreioEnvio = trimmed(c.Rastreio)
	}
	item.DataEnvio = dateOr(c.Data, now)

	return intent, fmt.Sprintf("Item enviado para assistência %s", assistencia)
}

func applyRegisterBudget(item *domain.Item, cmd Command, _ time.Time) (*MovementIntent, string) {
	c := cmd.(*RegisterBudgetCommand)
	valor := c.Valor.Round(2)
	item.ValorOrcado = &valor
	item.StatusItem = domain.ItemStatusInBudget
	return nil, fmt.Sprintf("Orçamento registrado: R$ %s", valor.StringFixed(2))
}

func applyStartLocalRepair(item *domain.Item, cmd Command, _ time.Time) (*MovementIntent, string) {
	c := cmd.(*StartLocalRepairCommand)
	origem := domain.Location{Kind: domain.LocationDeposit, ID: item.DepositoOrigemID}
	if item.DepositoOrigemID == "" {
		origem = domain.Location{Kind: domain.LocationCustomer}
	}
	intent := &MovementIntent{
		Origem:  origem,
		Destino: domain.Location{Kind: domain.LocationDeposit, ID: c.DepositoEntradaID.String()},
	}
	item.StatusItem = domain.ItemStatusInRepair
	return intent, "Reparo local iniciado"
}

func applyCompleteLocalRepair(item *domain.Item, cmd Command, now time.Time) (*MovementIntent, string) {
	c := cmd.(*CompleteLocalRepairCommand)
	item.StatusItem = domain.ItemStatusLocalRepairDone
	item.DataConclusao = dateOr(c.Data, now)
	return nil, withNote("Reparo local concluído", c.Observacao)
}

func applyFactoryDispatch(item *domain.Item, cmd Command, now time.Time) (*MovementIntent, string) {
	c := cmd.(*FactoryDispatchCommand)
	if c.Rastreio != nil {
		item.RastreioRetorno = trimmed(c.Rastreio)
	}
	msg := "Saída da fábrica registrada em " + dateOr(c.Data, now).Format(DateLayout)
	if item.RastreioRetorno != nil && *item.RastreioRetorno != "" {
		msg += " (rastreio " + *item.RastreioRetorno + ")"
	}
	return nil, msg
}

func applyRegisterReturn(item *domain.Item, cmd Command, now time.Time) (*MovementIntent, string) {
	c := cmd.(*RegisterReturnCommand)
	intent := &MovementIntent{
		Origem:  domain.Location{Kind: domain.LocationDeposit, ID: derefString(item.DepositoAssistenciaID)},
		Destino: domain.Location{Kind: domain.LocationDeposit, ID: c.DepositoRetornoID.String()},
	}
	msg := "Item retornado da assistência"
	if item.StatusItem == domain.ItemStatusBudgetRejected {
		msg = "Item retornado da assistência sem reparo"
	}
	if c.Rastreio != nil {
		item.RastreioRetorno = trimmed(c.Rastreio)
	}
	item.DataRetorno = dateOr(c.Data, now)
	item.StatusItem = domain.ItemStatusReturned
	return intent, msg
}

func applyDeliver(item *domain.Item, cmd Command, now time.Time) (*MovementIntent, string) {
	c := cmd.(*DeliverCommand)
	intent := &MovementIntent{
		Origem:  domain.Location{Kind: domain.LocationDeposit, ID: c.DepositoSaidaID.String()},
		Destino: domain.Location{Kind: domain.LocationCustomer},
	}
	if item.DataConclusao == nil {
		item.DataConclusao = dateOr(c.Data, now)
	}
	item.StatusItem = domain.ItemStatusDelivered
	return intent, withNote("Item entregue ao cliente", c.Observacao)
}

func applyCancel(item *domain.Item, cmd Command, _ time.Time) (*MovementIntent, string) {
	c := cmd.(*CancelCommand)
	msg := "Item cancelado"
	if awayFromOrigin(item.StatusItem) {
		msg += " (reconciliação manual de estoque pendente)"
	}
	item.StatusItem = domain.ItemStatusCancelled
	return nil, withNote(msg, c.Observacao)
}

func withNote(msg string, note *string) string {
	if note == nil || strings.TrimSpace(*note) == "" {
		return msg
	}
	return msg + ". Obs: " + strings.TrimSpace(*note)
}

func dateOr(d *Date, now time.Time) *time.Time {
	if d != nil && !d.Time().IsZero() {
		v := d.Time()
		return &v
	}
	v := now
	return &v
}

func trimmed(s *string) *string {
	v := strings.TrimSpace(*s)
	return &v
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
