package events

import (
	"time"

	"github.com/spec-kit/assistencia-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventItemAdded         EventType = "item_added"
	EventItemTransitioned  EventType = "item_transitioned"
	EventReconciliationDue EventType = "stock_reconciliation_due"
)

// Actor identifies the operator behind an event. Subject is empty when
// authentication is disabled.
type Actor struct {
	Subject string `json:"subject,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Numero     string                `json:"numero"`
	Prioridade domain.TicketPriority `json:"prioridade"`
	OrigemTipo string                `json:"origem_tipo"`
}

// ItemAddedPayload payload.
type ItemAddedPayload struct {
	ItemID           string `json:"item_id"`
	ProdutoID        string `json:"produto_id"`
	DepositoOrigemID string `json:"deposito_origem_id"`
}

// ItemTransitionedPayload payload.
type ItemTransitionedPayload struct {
	ItemID      string            `json:"item_id"`
	Operacao    string            `json:"operacao"`
	StatusDe    domain.ItemStatus `json:"status_de"`
	StatusPara  domain.ItemStatus `json:"status_para"`
	MovimentoID *string           `json:"movimento_id,omitempty"`
	Mensagem    string            `json:"mensagem"`
}

// ReconciliationDuePayload flags a cancelled item whose stock position must
// be fixed by hand.
type ReconciliationDuePayload struct {
	ItemID     string            `json:"item_id"`
	StatusDe   domain.ItemStatus `json:"status_de"`
	Localizado string            `json:"localizado,omitempty"`
}
