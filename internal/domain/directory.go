package domain

// Deposit (depósito) is a physical or logical inventory location.
type Deposit struct {
	ID   string
	Nome string
}

// Assistance (assistência) is an external authorized repair provider.
type Assistance struct {
	ID   string
	Nome string
}
