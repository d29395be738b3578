package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/andicblue/ventas/internal/inventory"
	"github.com/andicblue/ventas/internal/platform/httpx"
)

// Handler manages order endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.submit)
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Post("/{id}/payments", h.recordPayment)
	r.Post("/{id}/delivered", h.markDelivered)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	order, err := h.service.Submit(r.Context(), req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.respondOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter Filter
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = Status(s)
	}
	if wk := r.URL.Query().Get("week"); wk != "" {
		week, err := strconv.Atoi(wk)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "week must be an integer")
			return
		}
		filter.DeliveryWeek = week
	}
	orders, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list orders failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	order, err := h.service.RecordPayment(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.respondOrderError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) markDelivered(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.MarkDelivered(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// respondOrderError intercepts the pipeline's richer rejections before
// the shared mapping. Short stock lines travel in the problem body so the
// caller sees every product that blocked the order.
func (h *Handler) respondOrderError(w http.ResponseWriter, err error) {
	var (
		short    *inventory.InsufficientStockError
		mismatch *PaymentMismatchError
	)
	switch {
	case errors.As(err, &short):
		httpx.ProblemWithExtra(w, http.StatusConflict, "Insufficient Stock", short.Error(), short.Lines)
	case errors.As(err, &mismatch):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Payment Mismatch", mismatch.Error())
	case errors.Is(err, ErrConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrUnknownPaymentMethod):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("order operation failed", "error", err)
		httpx.RespondError(w, err)
	}
}
