package dto

import (
	"time"

	"github.com/spec-kit/assistencia-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	OrigemTipo       string                `json:"origem_tipo"`
	OrigemID         *string               `json:"origem_id"`
	ClienteID        *string               `json:"cliente_id"`
	AssistenciaID    *string               `json:"assistencia_id"`
	Prioridade       domain.TicketPriority `json:"prioridade"`
	LocalReparo      string                `json:"local_reparo"`
	CustoResponsavel string                `json:"custo_responsavel"`
	Observacoes      string                `json:"observacoes"`
}

// CreateItemRequest payload. PrazoFinalizacao is a date (YYYY-MM-DD).
type CreateItemRequest struct {
	ProdutoID        string  `json:"produto_id"`
	VariacaoID       *string `json:"variacao_id"`
	NumeroSerie      string  `json:"numero_serie"`
	Lote             string  `json:"lote"`
	DefeitoID        *string `json:"defeito_id"`
	DepositoOrigemID string  `json:"deposito_origem_id"`
	PrazoFinalizacao *string `json:"prazo_finalizacao"`
	NotaNumero       string  `json:"nota_numero"`
	Observacoes      string  `json:"observacoes"`
}

// TicketResponse response.
type TicketResponse struct {
	ID               string                `json:"id"`
	Numero           string                `json:"numero"`
	OrigemTipo       string                `json:"origem_tipo"`
	OrigemID         *string               `json:"origem_id"`
	ClienteID        *string               `json:"cliente_id"`
	AssistenciaID    *string               `json:"assistencia_id"`
	Prioridade       domain.TicketPriority `json:"prioridade"`
	LocalReparo      string                `json:"local_reparo"`
	CustoResponsavel string                `json:"custo_responsavel"`
	Observacoes      string                `json:"observacoes"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// SLAResponse is the derived deadline label.
type SLAResponse struct {
	Label    string          `json:"label"`
	Severity domain.Severity `json:"severity"`
	DiffDays *int            `json:"diff_days"`
}

// ItemResponse response. ValorOrcado is a fixed two-decimal string.
type ItemResponse struct {
	ID                    string            `json:"id"`
	TicketID              string            `json:"chamado_id"`
	ProdutoID             string            `json:"produto_id"`
	VariacaoID            *string           `json:"variacao_id"`
	NumeroSerie           string            `json:"numero_serie"`
	Lote                  string            `json:"lote"`
	DefeitoID             *string           `json:"defeito_id"`
	DepositoOrigemID      string            `json:"deposito_origem_id"`
	StatusItem            domain.ItemStatus `json:"status_item"`
	ValorOrcado           *string           `json:"valor_orcado"`
	AssistenciaID         *string           `json:"assistencia_id"`
	DepositoAssistenciaID *string           `json:"deposito_assistencia_id"`
	RastreioEnvio         *string           `json:"rastreio_envio"`
	DataEnvio             *time.Time        `json:"data_envio"`
	RastreioRetorno       *string           `json:"rastreio_retorno"`
	DataRetorno           *time.Time        `json:"data_retorno"`
	DataConclusao         *time.Time        `json:"data_conclusao"`
	PrazoFinalizacao      *string           `json:"prazo_finalizacao"`
	NotaNumero            string            `json:"nota_numero"`
	Observacoes           string            `json:"observacoes"`
	SLA                   SLAResponse       `json:"sla"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// LocationResponse is one movement endpoint.
type LocationResponse struct {
	Tipo domain.LocationKind `json:"tipo"`
	ID   string              `json:"id"`
}

// MovementResponse response.
type MovementResponse struct {
	ID        string           `json:"id"`
	ItemID    string           `json:"item_id"`
	Origem    LocationResponse `json:"origem"`
	Destino   LocationResponse `json:"destino"`
	CreatedAt time.Time        `json:"created_at"`
}

// ItemDetailResponse is an item with its movements and open operations.
type ItemDetailResponse struct {
	ItemResponse

	Movimentacoes       []MovementResponse `json:"movimentacoes"`
	OperacoesPermitidas []string           `json:"operacoes_permitidas"`
}

// TicketViewResponse is the ticket aggregate.
type TicketViewResponse struct {
	TicketResponse

	Status      domain.ItemStatus `json:"status"`
	Itens       []ItemResponse    `json:"itens"`
	MaisUrgente *ItemResponse     `json:"mais_urgente"`
}

// AuditLogResponse is one history entry.
type AuditLogResponse struct {
	ID          string            `json:"id"`
	ItemID      *string           `json:"item_id"`
	Operacao    string            `json:"operacao"`
	Mensagem    string            `json:"mensagem"`
	StatusDe    domain.ItemStatus `json:"status_de"`
	StatusPara  domain.ItemStatus `json:"status_para"`
	MovimentoID *string           `json:"movimento_id"`
	CreatedAt   time.Time         `json:"created_at"`
}

// TransitionResponse is the result of one applied operation.
type TransitionResponse struct {
	Item                  ItemResponse      `json:"item"`
	Movimento             *MovementResponse `json:"movimento"`
	Replay                bool              `json:"replay"`
	ReconciliacaoPendente bool              `json:"reconciliacao_pendente"`
}
