package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/assistencia-service/internal/api/dto"
	"github.com/spec-kit/assistencia-service/internal/auth"
	"github.com/spec-kit/assistencia-service/internal/service"
	apperrors "github.com/spec-kit/assistencia-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /chamados.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		OrigemTipo:       req.OrigemTipo,
		OrigemID:         req.OrigemID,
		ClienteID:        req.ClienteID,
		AssistenciaID:    req.AssistenciaID,
		Prioridade:       req.Prioridade,
		LocalReparo:      req.LocalReparo,
		CustoResponsavel: req.CustoResponsavel,
		Observacoes:      req.Observacoes,
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), auth.OperatorFromContext(c), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// GetTicket GET /chamados/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	view, err := h.service.GetTicketView(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketViewResponse(view)})
}

// AddItem POST /chamados/:id/itens.
func (h *TicketsHandler) AddItem(c *fiber.Ctx) error {
	var req dto.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.ItemCreateInput{
		ProdutoID:        req.ProdutoID,
		VariacaoID:       req.VariacaoID,
		NumeroSerie:      req.NumeroSerie,
		Lote:             req.Lote,
		DefeitoID:        req.DefeitoID,
		DepositoOrigemID: req.DepositoOrigemID,
		NotaNumero:       req.NotaNumero,
		Observacoes:      req.Observacoes,
	}
	if req.PrazoFinalizacao != nil && strings.TrimSpace(*req.PrazoFinalizacao) != "" {
		prazo, err := time.Parse(dateLayout, strings.TrimSpace(*req.PrazoFinalizacao))
		if err != nil {
			return apperrors.NewValidationError("prazo_finalizacao must be YYYY-MM-DD", map[string]any{"campo": "prazo_finalizacao"})
		}
		input.PrazoFinalizacao = &prazo
	}

	item, err := h.service.AddItem(c.UserContext(), auth.OperatorFromContext(c), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": itemResponse(item, h.service.DeriveSLA(item))})
}

// ListHistory GET /chamados/:id/historico.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	entries, err := h.service.ListAuditLog(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": auditLogResponses(entries)})
}
