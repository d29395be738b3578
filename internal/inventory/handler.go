package inventory

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andicblue/ventas/internal/platform/httpx"
	"github.com/andicblue/ventas/internal/shared"
)

// Handler manages inventory endpoints.
type Handler struct {
	logger *slog.Logger
	ledger *Ledger
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, ledger *Ledger) *Handler {
	return &Handler{logger: logger, ledger: ledger}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/{productID}/restock", h.restock)
	r.Post("/{productID}/adjust", h.adjust)
}

type restockRequest struct {
	Quantity int64 `json:"quantity" validate:"gt=0"`
}

// Delta may be negative; a zero delta is rejected by the ledger.
type adjustRequest struct {
	Delta int64 `json:"delta"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	lines, err := h.ledger.Lines(r.Context())
	if err != nil {
		h.logger.Error("list inventory failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lines)
}

func (h *Handler) restock(w http.ResponseWriter, r *http.Request) {
	var req restockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	productID := chi.URLParam(r, "productID")
	if err := h.ledger.Restock(r.Context(), productID, req.Quantity); err != nil {
		h.logger.Error("restock failed", "error", err, "product_id", productID)
		respondStockError(w, err)
		return
	}
	current, err := h.ledger.Current(r.Context(), productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, Line{ProductID: productID, Quantity: current})
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	productID := chi.URLParam(r, "productID")
	if err := h.ledger.Adjust(r.Context(), productID, req.Delta); err != nil {
		respondStockError(w, err)
		return
	}
	current, err := h.ledger.Current(r.Context(), productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, Line{ProductID: productID, Quantity: current})
}

// respondStockError intercepts the domain's richer errors before falling
// back to the shared mapping.
func respondStockError(w http.ResponseWriter, err error) {
	var short *InsufficientStockError
	switch {
	case errors.As(err, &short):
		httpx.ProblemWithExtra(w, http.StatusConflict, "Insufficient Stock", short.Error(), short.Lines)
	case errors.Is(err, ErrInvalidQuantity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		httpx.RespondError(w, err)
	}
}
