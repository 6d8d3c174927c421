package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // empty means use err.Error()
}

var errorMappings = []errorMapping{
	{domain.ErrInvalidWeights, http.StatusBadRequest, "invalid_weights", ""},
	{domain.ErrInvalidLimit, http.StatusBadRequest, "invalid_limit", ""},
	{domain.ErrInvalidAgeRange, http.StatusBadRequest, "invalid_age_range", ""},
	{domain.ErrInvalidDistance, http.StatusBadRequest, "invalid_distance", ""},
	{domain.ErrInvalidAnswers, http.StatusBadRequest, "invalid_answers", ""},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "unauthorized"},
	{domain.ErrConsentRequired, http.StatusForbidden, "consent_required", "user has not granted this client access to matching"},
	{domain.ErrUserNotFound, http.StatusNotFound, "not_found", "user not found"},
	{domain.ErrProfileNotFound, http.StatusNotFound, "not_found", "user not found"},
	{domain.ErrAnswersNotFound, http.StatusNotFound, "not_found", "no assessment on file for this user"},
	{domain.ErrProfileIncomplete, http.StatusUnprocessableEntity, "profile_incomplete", "complete your assessment first"},
	{domain.ErrLocationRequired, http.StatusUnprocessableEntity, "location_required", "set your location to filter by distance"},
	{domain.ErrEmbeddingProvider, http.StatusServiceUnavailable, "embedding_unavailable", "profile service is temporarily unavailable, please retry"},
}

// respondError maps a use case error onto its HTTP status and aborts.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			c.AbortWithStatusJSON(m.status, ErrorResponse{Error: msg, Code: m.code})
			return
		}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  "internal",
	})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "bad_request"})
}
