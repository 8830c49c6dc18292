package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/loyalty-ledger/internal/http/respond"
	"github.com/hongminglow/loyalty-ledger/internal/models"
	"github.com/hongminglow/loyalty-ledger/internal/models/dto"
	"github.com/hongminglow/loyalty-ledger/internal/payload"
	"github.com/hongminglow/loyalty-ledger/internal/validate"
)

// Ledger is the subset of the ledger store the HTTP layer calls.
type Ledger interface {
	Apply(ctx context.Context, req models.TransactionRequest) (models.CustomerRecord, error)
	Lookup(mobile string) (models.CustomerRecord, error)
	List() []models.CustomerRecord
	Remove(ctx context.Context, id string) error
}

// TransactionObserver records ledger outcomes.
type TransactionObserver interface {
	ObserveTransaction(mode, outcome string, points int64)
	SetCustomers(n int)
}

// CustomerHandler exposes transactions and customer reads.
type CustomerHandler struct {
	ledger Ledger
	obs    TransactionObserver
	log    *slog.Logger
}

// NewCustomerHandler constructs the handler. obs may be nil.
func NewCustomerHandler(ledger Ledger, obs TransactionObserver, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{ledger: ledger, obs: obs, log: logger.With("handler", "customers")}
}

// Register attaches staff routes. admin wraps routes limited to administrators.
func (h *CustomerHandler) Register(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Post("/transactions", h.handleTransaction)
	r.Get("/customers", h.handleList)
	r.Get("/customers/{mobile}", h.handleLookup)
	r.Get("/customers/{mobile}/payload", h.handlePayload)
	r.With(admin).Delete("/customers/id/{id}", h.handleRemove)
}

func (h *CustomerHandler) handleTransaction(w http.ResponseWriter, r *http.Request) {
	var body dto.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	mode := models.Mode(body.Mode)
	req, err := validate.Transaction(validate.Input{
		Name:   body.Name,
		Mobile: body.Mobile,
		Mode:   mode,
		Amount: body.Amount,
	})
	if err != nil {
		h.observe(mode, err, 0)
		h.writeError(w, r, err)
		return
	}

	rec, err := h.ledger.Apply(r.Context(), req)
	var moved int64
	if rec.LastTransaction != nil {
		moved = abs(rec.LastTransaction.PointsDelta)
	}
	h.observe(mode, err, moved)
	if h.obs != nil {
		h.obs.SetCustomers(len(h.ledger.List()))
	}

	if errors.Is(err, models.ErrPersistenceUnavailable) && rec.ID != "" {
		h.log.ErrorContext(r.Context(), "transaction committed but not saved", slog.Any("error", err))
		respond.JSON(w, http.StatusServiceUnavailable, "transaction applied but could not be saved",
			dto.TransactionResponse{Customer: rec, Payload: payload.Encode(rec)})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "transaction applied", dto.TransactionResponse{Customer: rec, Payload: payload.Encode(rec)})
}

func (h *CustomerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", h.ledger.List())
}

func (h *CustomerHandler) handleLookup(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.Lookup(chi.URLParam(r, "mobile"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", rec)
}

func (h *CustomerHandler) handlePayload(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.Lookup(chi.URLParam(r, "mobile"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.Text(w, http.StatusOK, payload.Encode(rec))
}

func (h *CustomerHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	err := h.ledger.Remove(r.Context(), chi.URLParam(r, "id"))
	if h.obs != nil {
		h.obs.SetCustomers(len(h.ledger.List()))
	}
	if err != nil && !errors.Is(err, models.ErrPersistenceUnavailable) {
		h.writeError(w, r, err)
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "customer removed but not saved", slog.Any("error", err))
		respond.Error(w, http.StatusServiceUnavailable, "customer removed but could not be saved")
		return
	}
	respond.JSON(w, http.StatusOK, "customer removed", nil)
}

func (h *CustomerHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(w, http.StatusBadRequest, verr.Field+": "+verr.Reason)
	case errors.Is(err, models.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "customer not found")
	case errors.Is(err, models.ErrInsufficientBalance):
		respond.Error(w, http.StatusConflict, "insufficient points")
	case errors.Is(err, models.ErrPersistenceUnavailable):
		respond.Error(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		h.log.ErrorContext(r.Context(), "ledger operation failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *CustomerHandler) observe(mode models.Mode, err error, moved int64) {
	if h.obs == nil {
		return
	}
	label := string(mode)
	if mode != models.ModeAdd && mode != models.ModeRedeem {
		label = "unknown"
	}
	h.obs.ObserveTransaction(label, outcome(err), moved)
}

func outcome(err error) string {
	switch {
	case err == nil, errors.Is(err, models.ErrPersistenceUnavailable):
		return "ok"
	case errors.Is(err, models.ErrValidation):
		return "invalid"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInsufficientBalance):
		return "insufficient_balance"
	default:
		return "error"
	}
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
