package cashflow

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/andicblue/ventas/internal/platform/httpx"
	"github.com/andicblue/ventas/internal/shared"
)

// Handler manages cash flow endpoints.
type Handler struct {
	logger *slog.Logger
	ledger *Ledger
	group  singleflight.Group
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, ledger *Ledger) *Handler {
	return &Handler{logger: logger, ledger: ledger}
}

// MountRoutes registers cash flow routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/balance", h.balance)
	r.Get("/series", h.series)
	r.Get("/entries", h.entries)
	r.Post("/expenses", h.expense)
	r.Post("/withdrawals", h.withdrawal)
}

type expenseRequest struct {
	Date    string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Concept string `json:"concept" validate:"required,max=300"`
	Amount  int64  `json:"amount" validate:"gt=0"`
}

type withdrawalRequest struct {
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Method string `json:"method" validate:"required,oneof=nequi daviplata transfer"`
	Amount int64  `json:"amount" validate:"gt=0"`
}

// balance collapses concurrent identical reads; every entry is rescanned
// per computation, so a dashboard refresh storm should pay for one scan.
func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseDate(w, r.URL.Query().Get("as_of"))
	if !ok {
		return
	}
	key := "balance:" + asOf.Format("2006-01-02")
	v, err, _ := h.group.Do(key, func() (any, error) {
		return h.ledger.Balance(r.Context(), asOf)
	})
	if err != nil {
		h.logger.Error("balance failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v.(Balance))
}

func (h *Handler) series(w http.ResponseWriter, r *http.Request) {
	granularity := Granularity(r.URL.Query().Get("granularity"))
	if granularity == "" {
		granularity = Weekly
	}
	seq, err := h.ledger.Series(r.Context(), granularity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, Materialize(seq))
}

func (h *Handler) entries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.Entries(r.Context())
	if err != nil {
		h.logger.Error("list entries failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) expense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, ok := parseDate(w, req.Date)
	if !ok {
		return
	}
	entry, err := h.ledger.Expense(r.Context(), date, req.Concept, req.Amount)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) withdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := shared.ValidateStruct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, ok := parseDate(w, req.Date)
	if !ok {
		return
	}
	entry, err := h.ledger.Withdrawal(r.Context(), date, req.Method, req.Amount)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

// parseDate accepts an optional YYYY-MM-DD value, writing the problem
// response itself on a bad one.
func parseDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}
