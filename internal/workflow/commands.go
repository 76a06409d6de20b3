package workflow

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

// Operation names one transition of the item state machine.
type Operation string

const (
	OpStartAnalysis       Operation = "iniciarAnalise"
	OpSend                Operation = "enviar"
	OpRegisterBudget      Operation = "registrarOrcamento"
	OpDecideBudget        Operation = "decidirOrcamento"
	OpStartLocalRepair    Operation = "iniciarReparoLocal"
	OpCompleteLocalRepair Operation = "concluirReparoLocal"
	OpFactoryDispatch     Operation = "registrarSaidaFabrica"
	OpRegisterReturn      Operation = "registrarRetorno"
	OpDeliver             Operation = "entregar"
	OpCancel              Operation = "cancelar"
)

// AllOperations lists every operation in table order.
func AllOperations() []Operation {
	return []Operation{
		OpStartAnalysis,
		OpSend,
		OpRegisterBudget,
		OpDecideBudget,
		OpStartLocalRepair,
		OpCompleteLocalRepair,
		OpFactoryDispatch,
		OpRegisterReturn,
		OpDeliver,
		OpCancel,
	}
}

// Command is the typed payload of one operation.
type Command interface {
	Operation() Operation
	Validate() error
}

// NewCommand returns an empty payload for op, ready to be decoded into.
func NewCommand(op Operation) (Command, error) {
	switch op {
	case OpStartAnalysis:
		return &StartAnalysisCommand{}, nil
	case OpSend:
		return &SendCommand{}, nil
	case OpRegisterBudget:
		return &RegisterBudgetCommand{}, nil
	case OpDecideBudget:
		return &DecideBudgetCommand{}, nil
	case OpStartLocalRepair:
		return &StartLocalRepairCommand{}, nil
	case OpCompleteLocalRepair:
		return &CompleteLocalRepairCommand{}, nil
	case OpFactoryDispatch:
		return &FactoryDispatchCommand{}, nil
	case OpRegisterReturn:
		return &RegisterReturnCommand{}, nil
	case OpDeliver:
		return &DeliverCommand{}, nil
	case OpCancel:
		return &CancelCommand{}, nil
	}
	return nil, apperrors.NewValidationError("unknown operation", map[string]any{"operacao": string(op)})
}

// StartAnalysisCommand moves a freshly opened item into inspection.
type StartAnalysisCommand struct {
	Observacao *string `json:"observacao,omitempty"`
}

func (c *StartAnalysisCommand) Operation() Operation { return OpStartAnalysis }
func (c *StartAnalysisCommand) Validate() error      { return nil }

// SendCommand ships the item to an external repairer.
type SendCommand struct {
	AssistenciaID         Ref     `json:"assistencia_id"`
	DepositoAssistenciaID Ref     `json:"deposito_assistencia_id"`
	Rastreio              *string `json:"rastreio,omitempty"`
	Data                  *Date   `json:"data,omitempty"`
}

func (c *SendCommand) Operation() Operation { return OpSend }

func (c *SendCommand) Validate() error {
	if blank(c.AssistenciaID) {
		return apperrors.NewMissingField(string(OpSend), "assistencia_id")
	}
	if blank(c.DepositoAssistenciaID) {
		return apperrors.NewMissingField(string(OpSend), "deposito_assistencia_id")
	}
	return nil
}

// RegisterBudgetCommand records the repairer's quote.
type RegisterBudgetCommand struct {
	Valor *decimal.Decimal `json:"valor"`
}

func (c *RegisterBudgetCommand) Operation() Operation { return OpRegisterBudget }

func (c *RegisterBudgetCommand) Validate() error {
	if c.Valor == nil {
		return apperrors.NewMissingField(string(OpRegisterBudget), "valor")
	}
	if c.Valor.IsNegative() {
		return apperrors.NewValidationError("registrarOrcamento: valor must not be negative", map[string]any{
			"operacao": string(OpRegisterBudget),
			"campo":    "valor",
		})
	}
	return nil
}

// StartLocalRepairCommand starts an in-house repair.
type StartLocalRepairCommand struct {
	DepositoEntradaID Ref `json:"deposito_entrada_id"`
}

func (c *StartLocalRepairCommand) Operation() Operation { return OpStartLocalRepair }

func (c *StartLocalRepairCommand) Validate() error {
	if blank(c.DepositoEntradaID) {
		return apperrors.NewMissingField(string(OpStartLocalRepair), "deposito_entrada_id")
	}
	return nil
}

// CompleteLocalRepairCommand finishes an in-house repair.
type CompleteLocalRepairCommand struct {
	Data       *Date   `json:"data,omitempty"`
	Observacao *string `json:"observacao,omitempty"`
}

func (c *CompleteLocalRepairCommand) Operation() Operation { return OpCompleteLocalRepair }
func (c *CompleteLocalRepairCommand) Validate() error      { return nil }

// FactoryDispatchCommand records that the repairer shipped the item back.
type FactoryDispatchCommand struct {
	Rastreio *string `json:"rastreio,omitempty"`
	Data     *Date   `json:"data,omitempty"`
}

func (c *FactoryDispatchCommand) Operation() Operation { return OpFactoryDispatch }
func (c *FactoryDispatchCommand) Validate() error      { return nil }

// RegisterReturnCommand receives the item back from the repairer.
type RegisterReturnCommand struct {
	DepositoRetornoID Ref     `json:"deposito_retorno_id"`
	Rastreio          *string `json:"rastreio,omitempty"`
	Data              *Date   `json:"data,omitempty"`
}

func (c *RegisterReturnCommand) Operation() Operation { return OpRegisterReturn }

func (c *RegisterReturnCommand) Validate() error {
	if blank(c.DepositoRetornoID) {
		return apperrors.NewMissingField(string(OpRegisterReturn), "deposito_retorno_id")
	}
	return nil
}

// DeliverCommand hands the item back to the customer.
type DeliverCommand struct {
	DepositoSaidaID Ref     `json:"deposito_saida_id"`
	Data            *Date   `json:"data,omitempty"`
	Observacao      *string `json:"observacao,omitempty"`
}

func (c *DeliverCommand) Operation() Operation { return OpDeliver }

func (c *DeliverCommand) Validate() error {
	if blank(c.DepositoSaidaID) {
		return apperrors.NewMissingField(string(OpDeliver), "deposito_saida_id")
	}
	return nil
}

// CancelCommand abandons the item.
type CancelCommand struct {
	Observacao *string `json:"observacao,omitempty"`
}

func (c *CancelCommand) Operation() Operation { return OpCancel }
func (c *CancelCommand) Validate() error      { return nil }

func blank(r Ref) bool {
	return r.String() == ""
}
