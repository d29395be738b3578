package httpx

import (
	"errors"
	"net/http"

	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/andicblue/ventas/internal/shared"
)

// RespondError maps cross-cutting error kinds to HTTP responses. Domain
// handlers intercept their own richer errors first (short stock lines,
// payment mismatches) and fall back here.
func RespondError(w http.ResponseWriter, err error) {
	var (
		ve *shared.ValidationError
		io *rowstore.IOError
	)
	switch {
	case errors.As(err, &ve):
		Problem(w, http.StatusBadRequest, "Validation Failed", ve.Error())
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, rowstore.ErrRowNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	case errors.Is(err, rowstore.ErrVersionConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.As(err, &io):
		Problem(w, http.StatusServiceUnavailable, "Store Unavailable", io.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
