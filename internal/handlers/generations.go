package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"imagegen/internal/models"
	"imagegen/internal/services"
	"imagegen/internal/validator"
)

func (h *Handler) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	var params models.GenerationParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	result, err := h.generations.Create(r.Context(), params)
	if err != nil {
		h.respondGenerationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"generationRequestId": result.RequestID,
		"deductedCredits":     result.DeductedCredits,
		"imageUrl":            result.ImageURL,
	})
}

func (h *Handler) respondGenerationError(w http.ResponseWriter, err error) {
	if errors.Is(err, validator.ErrValidation) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var insufficientErr *services.InsufficientCreditsError
	if errors.As(err, &insufficientErr) {
		respondJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":     "Insufficient credits",
			"required":  insufficientErr.Required,
			"available": insufficientErr.Available,
		})
		return
	}
	var failedErr *services.GenerationFailedError
	if errors.As(err, &failedErr) {
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"error":           "Image generation failed",
			"details":         failedErr.Reason,
			"creditsRefunded": failedErr.CreditsRefunded,
		})
		return
	}
	h.log.Errorf("generation request failed: %v", err)
	respondError(w, http.StatusInternalServerError, "Internal server error")
}

func (h *Handler) GetGeneration(w http.ResponseWriter, r *http.Request) {
	request, err := h.generations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == services.ErrRequestNotFound {
			respondError(w, http.StatusNotFound, "Generation request not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, request)
}
