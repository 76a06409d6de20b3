package workflow

import (
	"strings"
	"time"

	"github.com/spec-kit/assistencia-service/internal/domain"
	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

// DecideBudgetCommand is the approval gate decision on a quote. The only way
// into EM_REPARO on the assistance path goes through an approved decision.
type DecideBudgetCommand struct {
	Aprovado   *bool   `json:"aprovado"`
	Observacao *string `json:"observacao,omitempty"`
}

func (c *DecideBudgetCommand) Operation() Operation { return OpDecideBudget }

func (c *DecideBudgetCommand) Validate() error {
	if c.Aprovado == nil {
		return apperrors.NewMissingField(string(OpDecideBudget), "aprovado")
	}
	return nil
}

// Decide builds a decision command.
func Decide(aprovado bool, observacao string) *DecideBudgetCommand {
	cmd := &DecideBudgetCommand{Aprovado: &aprovado}
	if strings.TrimSpace(observacao) != "" {
		cmd.Observacao = &observacao
	}
	return cmd
}

// DecideBudget runs the approval gate on item. A rejected quote parks the
// item in ORCAMENTO_RECUSADO, from where it can only come back unrepaired or
// be cancelled.
func (m *Machine) DecideBudget(item *domain.Item, aprovado bool, observacao string, now time.Time) (*Outcome, error) {
	return m.Apply(item, Decide(aprovado, observacao), now)
}

func applyBudgetDecision(item *domain.Item, cmd Command, _ time.Time) (*MovementIntent, string) {
	c := cmd.(*DecideBudgetCommand)
	if *c.Aprovado {
		item.StatusItem = domain.ItemStatusInRepair
		return nil, withNote("Orçamento aprovado", c.Observacao)
	}
	item.StatusItem = domain.ItemStatusBudgetRejected
	return nil, withNote("Orçamento recusado", c.Observacao)
}
