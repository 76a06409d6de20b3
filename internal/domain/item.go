package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus is the state of a single item under repair.
type ItemStatus string

const (
	ItemStatusOpen             ItemStatus = "ABERTO"
	ItemStatusInAnalysis       ItemStatus = "EM_ANALISE"
	ItemStatusSentToAssistance ItemStatus = "ENVIADO_ASSISTENCIA"
	ItemStatusInBudget         ItemStatus = "EM_ORCAMENTO"
	ItemStatusBudgetRejected   ItemStatus = "ORCAMENTO_RECUSADO"
	ItemStatusInRepair         ItemStatus = "EM_REPARO"
	ItemStatusReturned         ItemStatus = "RETORNADO"
	ItemStatusLocalRepairDone  ItemStatus = "CONCLUIDO_LOCAL"
	ItemStatusDelivered        ItemStatus = "ENTREGUE"
	ItemStatusCancelled        ItemStatus = "CANCELADO"
)

// AllItemStatuses lists every valid item state.
func AllItemStatuses() []ItemStatus {
	return []ItemStatus{
		ItemStatusOpen,
		ItemStatusInAnalysis,
		ItemStatusSentToAssistance,
		ItemStatusInBudget,
		ItemStatusBudgetRejected,
		ItemStatusInRepair,
		ItemStatusReturned,
		ItemStatusLocalRepairDone,
		ItemStatusDelivered,
		ItemStatusCancelled,
	}
}

// IsValid reports whether s belongs to the fixed state set.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range AllItemStatuses() {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is an immutable sink.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusDelivered || s == ItemStatusCancelled
}

// Rank orders states by how far along the repair flow they are. Cancelled
// items rank below everything so they never dominate an aggregate.
func (s ItemStatus) Rank() int {
	switch s {
	case ItemStatusOpen:
		return 0
	case ItemStatusInAnalysis:
		return 1
	case ItemStatusSentToAssistance:
		return 2
	case ItemStatusInBudget, ItemStatusBudgetRejected:
		return 3
	case ItemStatusInRepair:
		return 4
	case ItemStatusReturned, ItemStatusLocalRepairDone:
		return 5
	case ItemStatusDelivered:
		return 6
	default:
		return -1
	}
}

// Item is one serialized unit under repair with its own lifecycle.
type Item struct {
	ID                    string
	TicketID              string
	ProdutoID             string
	VariacaoID            *string
	NumeroSerie           string
	Lote                  string
	DefeitoID             *string
	DepositoOrigemID      string
	StatusItem            ItemStatus
	ValorOrcado           *decimal.Decimal
	AssistenciaID         *string
	DepositoAssistenciaID *string
	RastreioEnvio         *string
	DataEnvio             *time.Time
	RastreioRetorno       *string
	DataRetorno           *time.Time
	DataConclusao         *time.Time
	PrazoFinalizacao      *time.Time
	NotaNumero            string
	Observacoes           string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ViaAssistance reports whether the item went through an external repairer.
// The local repair path never sets a deposit at an assistance.
func (i *Item) ViaAssistance() bool {
	return i.DepositoAssistenciaID != nil && *i.DepositoAssistenciaID != ""
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	cp.VariacaoID = cloneString(i.VariacaoID)
	cp.DefeitoID = cloneString(i.DefeitoID)
	cp.AssistenciaID = cloneString(i.AssistenciaID)
	cp.DepositoAssistenciaID = cloneString(i.DepositoAssistenciaID)
	cp.RastreioEnvio = cloneString(i.RastreioEnvio)
	cp.RastreioRetorno = cloneString(i.RastreioRetorno)
	cp.DataEnvio = cloneTime(i.DataEnvio)
	cp.DataRetorno = cloneTime(i.DataRetorno)
	cp.DataConclusao = cloneTime(i.DataConclusao)
	cp.PrazoFinalizacao = cloneTime(i.PrazoFinalizacao)
	if i.ValorOrcado != nil {
		v := *i.ValorOrcado
		cp.ValorOrcado = &v
	}
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
