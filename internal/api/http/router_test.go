package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/assistencia-service/internal/api/http/handlers"
	"github.com/spec-kit/assistencia-service/internal/auth"
	"github.com/spec-kit/assistencia-service/internal/clock"
	"github.com/spec-kit/assistencia-service/internal/events"
	"github.com/spec-kit/assistencia-service/internal/observability"
	"github.com/spec-kit/assistencia-service/internal/repository/memory"
	"github.com/spec-kit/assistencia-service/internal/service"
)

const testSecret = "test-secret"

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Retryable bool           `json:"retryable"`
		Details   map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, authRequired bool) *testServer {
	t.Helper()
	clk := clock.NewFixed(time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC))
	store := memory.NewStore(memory.WithClock(clk))
	for _, id := range []string{"1", "3", "7", "10"} {
		store.AddDeposit(id, "Deposito "+id)
	}
	store.AddAssistance("5", "Autorizada 5")

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	tickets := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Clock:      clk,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	assistance := service.NewAssistanceService(service.AssistanceDependencies{
		Store:      store,
		Clock:      clk,
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
	})
	tokens := auth.NewTokenManager(testSecret, "")

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("assistencia-service", "test", nil, nil),
		Tickets:        handlers.NewTicketsHandler(tickets),
		Items:          handlers.NewItemsHandler(tickets, assistance),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, authRequired),
		Metrics:        metrics,
	})
	return &testServer{app: app, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func (s *testServer) openItem(t *testing.T) (ticketID, itemID string) {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/chamados", map[string]any{
		"origem_tipo": "pedido",
		"cliente_id":  "cli-1",
		"prioridade":  "alta",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	ticket := decode[map[string]any](t, env.Data)
	ticketID = ticket["id"].(string)
	assert.Regexp(t, `^AST-[0-9A-F]{8}$`, ticket["numero"])

	status, env = s.do(t, http.MethodPost, "/api/v1/chamados/"+ticketID+"/itens", map[string]any{
		"produto_id":         "prod-1",
		"numero_serie":       "SN-1",
		"deposito_origem_id": "1",
		"prazo_finalizacao":  "2024-03-07",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	item := decode[map[string]any](t, env.Data)
	assert.Equal(t, "ABERTO", item["status_item"])
	assert.Equal(t, "2024-03-07", item["prazo_finalizacao"])
	return ticketID, item["id"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, false)

	status, _ := s.do(t, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	var ready map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"postgres": "disabled", "redis": "disabled"}, ready["dependencies"])

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestFullAssistanceFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	ticketID, itemID := s.openItem(t)
	base := "/api/v1/itens/" + itemID + "/transicoes/"

	steps := []struct {
		op     string
		body   any
		status string
		moved  bool
	}{
		{"enviar", map[string]any{"assistencia_id": "5", "deposito_assistencia_id": "3", "rastreio": "BR1"}, "ENVIADO_ASSISTENCIA", true},
		{"registrarOrcamento", map[string]any{"valor": "150.5"}, "EM_ORCAMENTO", false},
		{"decidirOrcamento", map[string]any{"aprovado": true}, "EM_REPARO", false},
		{"registrarSaidaFabrica", nil, "EM_REPARO", false},
		{"registrarRetorno", map[string]any{"deposito_retorno_id": "7"}, "RETORNADO", true},
		{"entregar", map[string]any{"deposito_saida_id": "7"}, "ENTREGUE", true},
	}
	for _, step := range steps {
		status, env := s.do(t, http.MethodPost, base+step.op, step.body, nil)
		require.Equal(t, http.StatusOK, status, step.op)
		result := decode[map[string]any](t, env.Data)
		item := result["item"].(map[string]any)
		assert.Equal(t, step.status, item["status_item"], step.op)
		if step.moved {
			assert.NotNil(t, result["movimento"], step.op)
		} else {
			assert.Nil(t, result["movimento"], step.op)
		}
	}

	status, env := s.do(t, http.MethodGet, "/api/v1/itens/"+itemID, nil, nil)
	require.Equal(t, http.StatusOK, status)
	detail := decode[map[string]any](t, env.Data)
	assert.Equal(t, "150.50", detail["valor_orcado"])
	assert.Len(t, detail["movimentacoes"], 3)
	assert.Empty(t, detail["operacoes_permitidas"])
	assert.Equal(t, "—", detail["sla"].(map[string]any)["label"])

	status, env = s.do(t, http.MethodGet, "/api/v1/chamados/"+ticketID+"/historico", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, env.Data), len(steps))

	status, env = s.do(t, http.MethodGet, "/api/v1/chamados/"+ticketID, nil, nil)
	require.Equal(t, http.StatusOK, status)
	view := decode[map[string]any](t, env.Data)
	assert.Equal(t, "ENTREGUE", view["status"])
	assert.Nil(t, view["mais_urgente"])
}

func TestTransitionErrorsOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	_, itemID := s.openItem(t)
	base := "/api/v1/itens/" + itemID + "/transicoes/"

	status, env := s.do(t, http.MethodPost, base+"entregar", map[string]any{"deposito_saida_id": "7"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)
	assert.False(t, env.Error.Retryable)

	status, env = s.do(t, http.MethodPost, base+"enviar", map[string]any{"assistencia_id": "5"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, env = s.do(t, http.MethodPost, base+"teleportar", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, env = s.do(t, http.MethodPost, "/api/v1/itens/missing/transicoes/cancelar", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestTransitionReplayWithIdempotencyKey(t *testing.T) {
	s := newTestServer(t, false)
	_, itemID := s.openItem(t)
	path := "/api/v1/itens/" + itemID + "/transicoes/enviar"
	body := map[string]any{"assistencia_id": "5", "deposito_assistencia_id": "3"}
	headers := map[string]string{handlers.IdempotencyHeader: "attempt-1"}

	status, first := s.do(t, http.MethodPost, path, body, headers)
	require.Equal(t, http.StatusOK, status)
	status, second := s.do(t, http.MethodPost, path, body, headers)
	require.Equal(t, http.StatusOK, status)

	a := decode[map[string]any](t, first.Data)
	b := decode[map[string]any](t, second.Data)
	assert.Equal(t, false, a["replay"])
	assert.Equal(t, true, b["replay"])
	assert.Equal(t, a["movimento"].(map[string]any)["id"], b["movimento"].(map[string]any)["id"])
}

func TestItemSLAOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	_, itemID := s.openItem(t)

	status, env := s.do(t, http.MethodGet, "/api/v1/itens/"+itemID+"/sla", nil, nil)
	require.Equal(t, http.StatusOK, status)
	sla := decode[map[string]any](t, env.Data)
	assert.Equal(t, "3 dias em atraso", sla["label"])
	assert.Equal(t, "danger", sla["severity"])
	assert.EqualValues(t, -3, sla["diff_days"])
}

func TestAddItemRejectsBadDate(t *testing.T) {
	s := newTestServer(t, false)
	ticketID, _ := s.openItem(t)

	status, env := s.do(t, http.MethodPost, "/api/v1/chamados/"+ticketID+"/itens", map[string]any{
		"produto_id":         "prod-2",
		"deposito_origem_id": "1",
		"prazo_finalizacao":  "10/03/2024",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "prazo_finalizacao", env.Error.Details["campo"])
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, true)

	status, env := s.do(t, http.MethodGet, "/api/v1/chamados/any", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	token, _, err := s.tokens.GenerateToken("op-1", "Operador", time.Hour)
	require.NoError(t, err)
	status, _ = s.do(t, http.MethodPost, "/api/v1/chamados", map[string]any{"origem_tipo": "pedido"},
		map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusCreated, status)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, false)

	status, env := s.do(t, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestTransitionAcceptsCalendarDatesAndNumericIDs(t *testing.T) {
	s := newTestServer(t, false)
	_, itemID := s.openItem(t)

	status, env := s.do(t, http.MethodPost, "/api/v1/itens/"+itemID+"/transicoes/enviar", map[string]any{
		"assistencia_id":          5,
		"deposito_assistencia_id": 3,
		"data":                    "2024-03-09",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	result := decode[map[string]any](t, env.Data)
	item := result["item"].(map[string]any)
	assert.Equal(t, "5", item["assistencia_id"])
	assert.Equal(t, "3", item["deposito_assistencia_id"])
	assert.Equal(t, "2024-03-09T00:00:00Z", item["data_envio"])
}

func TestTransitionBadDateNamesField(t *testing.T) {
	s := newTestServer(t, false)
	_, itemID := s.openItem(t)

	status, env := s.do(t, http.MethodPost, "/api/v1/itens/"+itemID+"/transicoes/enviar", map[string]any{
		"assistencia_id":          "5",
		"deposito_assistencia_id": "3",
		"data":                    "09/03/2024",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Equal(t, "data", env.Error.Details["campo"])
	assert.Equal(t, "enviar", env.Error.Details["operacao"])
}
