package basket

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"scango/internal/api"
)

type Handlers struct {
	Baskets Service
}

type createRequest struct {
	Items []Item `json:"items"`
}

type createResponse struct {
	OK        bool      `json:"ok"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type getResponse struct {
	OK        bool      `json:"ok"`
	Code      string    `json:"code"`
	Items     []Item    `json:"items"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json body")
		return
	}

	b, err := h.Baskets.Create(r.Context(), req.Items)
	if err != nil {
		var verr ValidationError
		if errors.As(err, &verr) {
			api.WriteError(w, http.StatusBadRequest, verr.Code, verr.Message)
			return
		}
		zap.L().Error("park basket", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	zap.L().Info("basket parked", zap.String("code", b.Code), zap.Int("lines", len(b.Items)))
	api.WriteJSON(w, http.StatusOK, createResponse{OK: true, Code: b.Code, ExpiresAt: b.ExpiresAt})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Baskets.Get(r.Context(), chi.URLParam(r, "code"))
	if errors.Is(err, ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "basket not found or expired")
		return
	}
	if err != nil {
		zap.L().Error("load basket", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusOK, getResponse{OK: true, Code: b.Code, Items: b.Items, ExpiresAt: b.ExpiresAt})
}
