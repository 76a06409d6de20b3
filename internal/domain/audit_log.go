package domain

import "time"

// AuditLogEntry is an append-only record of one successful item transition.
type AuditLogEntry struct {
	ID             string
	TicketID       string
	ItemID         *string
	Operacao       string
	Mensagem       string
	StatusDe       ItemStatus
	StatusPara     ItemStatus
	MovimentoID    *string
	IdempotencyKey string
	CreatedAt      time.Time
}
