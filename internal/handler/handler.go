// Package handler содержит HTTP-обработчики API сервиса JuEntregas.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/juentregas/internal/apperr"
	"github.com/mmeshcher/juentregas/internal/middleware"
	"github.com/mmeshcher/juentregas/internal/model"
	"github.com/mmeshcher/juentregas/internal/quote"
	"github.com/mmeshcher/juentregas/internal/service"
)

// Service определяет контракт бизнес-логики админки, используемой HTTP-обработчиками.
type Service interface {
	ListClients(ctx context.Context) ([]model.Client, error)
	AddClient(ctx context.Context, in service.ClientInput) (*model.Client, error)
	UpdateClient(ctx context.Context, id string, in service.ClientInput) (*model.Client, error)
	DeleteClient(ctx context.Context, id string) error
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	AddOrder(ctx context.Context, in service.OrderInput) (*model.Order, error)
	UpdateOrder(ctx context.Context, id string, in service.OrderInput) (*model.Order, error)
	AppendEvent(ctx context.Context, orderID, description string) (*model.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	Dashboard(ctx context.Context) (*model.Dashboard, error)
}

// Tracker ищет заказ по номеру для публичной страницы отслеживания.
type Tracker interface {
	Resolve(ctx context.Context, input string) (*model.TrackingView, error)
}

// Quoter формирует заявку на расчёт стоимости.
type Quoter interface {
	Build(r quote.Request) (*quote.Quote, error)
}

// RateLimitOptions задаёт ограничение запросов к отслеживанию.
type RateLimitOptions struct {
	Limiter middleware.Limiter
	Limit   int64
	Window  time.Duration
}

// Handler реализует HTTP-обработчики API сервиса JuEntregas.
type Handler struct {
	service   Service
	tracker   Tracker
	quoter    Quoter
	logger    *zap.Logger
	rateLimit RateLimitOptions
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, t Tracker, q Quoter, logger *zap.Logger, rl RateLimitOptions) *Handler {
	return &Handler{
		service:   s,
		tracker:   t,
		quoter:    q,
		logger:    logger,
		rateLimit: rl,
	}
}

// statusClientClosedRequest отвечает на запрос, клиент которого уже отключился.
const statusClientClosedRequest = 499

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

type eventRequest struct {
	Description string `json:"description"`
}

// Track возвращает представление заказа по номеру из пути или параметра orderNumber.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "orderNumber")
	if number == "" {
		number = r.URL.Query().Get("orderNumber")
	}

	view, err := h.tracker.Resolve(r.Context(), number)
	if err != nil {
		h.writeError(w, "track order", err, zap.String("orderNumber", number))
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// RequestQuote формирует сообщение заявки и ссылку WhatsApp.
func (h *Handler) RequestQuote(w http.ResponseWriter, r *http.Request) {
	var req quote.Request
	if !h.decode(w, r, &req) {
		return
	}

	q, err := h.quoter.Build(req)
	if err != nil {
		h.writeError(w, "build quote", err)
		return
	}
	h.writeJSON(w, http.StatusOK, q)
}

// ListClients возвращает всех клиентов.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.writeError(w, "list clients", err)
		return
	}
	if clients == nil {
		clients = []model.Client{}
	}
	h.writeJSON(w, http.StatusOK, clients)
}

// CreateClient регистрирует клиента.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var in service.ClientInput
	if !h.decode(w, r, &in) {
		return
	}

	c, err := h.service.AddClient(r.Context(), in)
	if err != nil {
		h.writeError(w, "add client", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

// UpdateClient заменяет данные клиента.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in service.ClientInput
	if !h.decode(w, r, &in) {
		return
	}

	c, err := h.service.UpdateClient(r.Context(), id, in)
	if err != nil {
		h.writeError(w, "update client", err, zap.String("clientID", id))
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

// DeleteClient удаляет клиента.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteClient(r.Context(), id); err != nil {
		h.writeError(w, "delete client", err, zap.String("clientID", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOrders возвращает все заказы.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.writeError(w, "list orders", err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	h.writeJSON(w, http.StatusOK, orders)
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, "get order", err, zap.String("orderID", id))
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

// CreateOrder создаёт заказ.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in service.OrderInput
	if !h.decode(w, r, &in) {
		return
	}

	o, err := h.service.AddOrder(r.Context(), in)
	if err != nil {
		h.writeError(w, "add order", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, o)
}

// UpdateOrder заменяет изменяемые атрибуты заказа.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var in service.OrderInput
	if !h.decode(w, r, &in) {
		return
	}

	o, err := h.service.UpdateOrder(r.Context(), id, in)
	if err != nil {
		h.writeError(w, "update order", err, zap.String("orderID", id))
		return
	}
	h.writeJSON(w, http.StatusOK, o)
}

// AppendEvent добавляет событие в историю заказа.
func (h *Handler) AppendEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req eventRequest
	if !h.decode(w, r, &req) {
		return
	}

	o, err := h.service.AppendEvent(r.Context(), id, req.Description)
	if err != nil {
		h.writeError(w, "append event", err, zap.String("orderID", id))
		return
	}
	h.writeJSON(w, http.StatusCreated, o)
}

// DeleteOrder удаляет заказ.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		h.writeError(w, "delete order", err, zap.String("orderID", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Dashboard возвращает сводку для панели администратора.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.writeError(w, "dashboard", err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "invalid_body",
			Message: "Corpo da requisição inválido.",
		})
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error, fields ...zap.Field) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
	}

	resp := errorResponse{
		Error:   apperr.Code(err),
		Message: apperr.Message(err),
	}
	var e *apperr.Error
	if errors.As(err, &e) {
		resp.Field = e.Field
	}
	if status == http.StatusInternalServerError && resp.Message == "" {
		resp.Message = http.StatusText(http.StatusInternalServerError)
	}
	h.writeJSON(w, status, resp)
}

// statusFor переводит вид ошибки в HTTP-статус.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrReferenceNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}
