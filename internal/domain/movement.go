package domain

import "time"

// LocationKind distinguishes the endpoints of a movement.
type LocationKind string

const (
	LocationDeposit    LocationKind = "deposito"
	LocationCustomer   LocationKind = "cliente"
	LocationAssistance LocationKind = "assistencia"
)

// Location is one endpoint of a movement. ID is empty for the customer when
// the ticket carries no cliente_id.
type Location struct {
	Kind LocationKind
	ID   string
}

func (l Location) String() string {
	if l.ID == "" {
		return string(l.Kind)
	}
	return string(l.Kind) + ":" + l.ID
}

// Movement is an immutable record of an item changing location. Movements
// are only ever appended.
type Movement struct {
	ID             string
	ItemID         string
	Origem         Location
	Destino        Location
	IdempotencyKey string
	CreatedAt      time.Time
}
