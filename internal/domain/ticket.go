package domain

import "time"

// TicketPriority enumerates SLA urgency for a repair ticket.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "baixa"
	TicketPriorityMedium   TicketPriority = "media"
	TicketPriorityHigh     TicketPriority = "alta"
	TicketPriorityCritical TicketPriority = "critica"
)

// IsValid reports whether p is one of the known priorities.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Ticket (chamado) groups one or more items under repair. It has no status of
// its own; see TicketView for the aggregate.
type Ticket struct {
	ID               string
	Numero           string
	OrigemTipo       string
	OrigemID         *string
	ClienteID        *string
	AssistenciaID    *string
	Prioridade       TicketPriority
	LocalReparo      string
	CustoResponsavel string
	Observacoes      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
