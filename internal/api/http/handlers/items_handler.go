package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/assistencia-service/internal/auth"
	"github.com/spec-kit/assistencia-service/internal/service"
	"github.com/spec-kit/assistencia-service/internal/workflow"
	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

// IdempotencyHeader carries the client's attempt key for transitions.
const IdempotencyHeader = "Idempotency-Key"

// ItemsHandler serves item reads and transitions.
type ItemsHandler struct {
	tickets    *service.TicketService
	assistance *service.AssistanceService
}

// NewItemsHandler constructs handler.
func NewItemsHandler(tickets *service.TicketService, assistance *service.AssistanceService) *ItemsHandler {
	return &ItemsHandler{tickets: tickets, assistance: assistance}
}

// GetItem GET /itens/:id.
func (h *ItemsHandler) GetItem(c *fiber.Ctx) error {
	detail, err := h.tickets.GetItem(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": itemDetailResponse(detail)})
}

// GetSLA GET /itens/:id/sla.
func (h *ItemsHandler) GetSLA(c *fiber.Ctx) error {
	sla, err := h.tickets.ItemSLA(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slaResponse(sla)})
}

// ApplyTransition POST /itens/:id/transicoes/:operacao.
func (h *ItemsHandler) ApplyTransition(c *fiber.Ctx) error {
	cmd, err := workflow.NewCommand(workflow.Operation(c.Params("operacao")))
	if err != nil {
		return err
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(cmd); err != nil {
			return payloadError(cmd.Operation(), err)
		}
	}

	result, err := h.assistance.ApplyTransition(c.UserContext(), service.TransitionInput{
		ItemID:         c.Params("id"),
		Command:        cmd,
		IdempotencyKey: c.Get(IdempotencyHeader),
		Operator:       auth.OperatorFromContext(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": transitionResponse(result, h.tickets.DeriveSLA(result.Item))})
}

func payloadError(op workflow.Operation, err error) error {
	details := map[string]any{"operacao": string(op)}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		details["campo"] = typeErr.Field
		return apperrors.NewValidationError(string(op)+": invalid "+typeErr.Field, details)
	}
	return apperrors.NewValidationError("invalid payload", details)
}
