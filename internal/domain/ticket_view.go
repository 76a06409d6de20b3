package domain

// Severity classifies an SLA label.
type Severity string

const (
	SeverityNeutral Severity = "neutral"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// SLA is the derived remaining-time view of an item deadline. It is computed
// on every read and never stored.
type SLA struct {
	Label    string
	Severity Severity
	// DiffDays is nil when there is no deadline or the item is terminal.
	DiffDays *int
}

// ItemView pairs an item with its derived SLA.
type ItemView struct {
	Item Item
	SLA  SLA
}

// TicketView is the read-only aggregate of a ticket and its items.
type TicketView struct {
	Ticket Ticket
	Items  []ItemView
	// Status is the most advanced state among the ticket items.
	Status ItemStatus
	// MostUrgent is the tightest SLA among non-terminal items, nil when none.
	MostUrgent *ItemView
}
