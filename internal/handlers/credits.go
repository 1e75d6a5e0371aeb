package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"imagegen/internal/services"
	"imagegen/internal/validator"
	"imagegen/internal/websocket"
)

func (h *Handler) GetCredits(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := query.Get("userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "userId parameter is required")
		return
	}
	if err := validator.ValidateUserID(userID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := h.credits.GetBalance(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	transactions, err := h.credits.History(r.Context(), userID, parseInt(query.Get("limit"), 50))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	items := make([]map[string]any, 0, len(transactions))
	for _, txn := range transactions {
		requestID := ""
		if txn.GenerationRequestID != nil {
			requestID = *txn.GenerationRequestID
		}
		items = append(items, map[string]any{
			"id":                  txn.ID,
			"type":                txn.Type,
			"credits":             txn.Credits,
			"generationRequestId": requestID,
			"timestamp":           txn.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"currentCredits": balance,
		"transactions":   items,
	})
}

type createUserRequest struct {
	UserID  string  `json:"userId"`
	Email   *string `json:"email"`
	Credits int64   `json:"credits"`
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validator.ValidateUserID(req.UserID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.credits.CreateAccount(r.Context(), req.UserID, req.Email, req.Credits)
	if err != nil {
		if err == services.ErrAccountExists {
			respondError(w, http.StatusConflict, "User already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (h *Handler) WSCredits(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "userId parameter is required")
		return
	}
	if err := validator.ValidateUserID(userID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	websocket.ServeWS(w, r, h.hub, userID)
}
