package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-matching/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

// resolveUser picks the user a request acts on. OAuth callers always act as
// themselves; API key callers must name the user.
func resolveUser(c *gin.Context, requested string) (string, *domain.Client, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized)
		return "", nil, false
	}

	switch caller.Mode {
	case middleware.AuthModeOAuth:
		if requested != "" && requested != caller.UserID {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error: "cannot act on behalf of another user",
				Code:  "forbidden",
			})
			return "", nil, false
		}
		return caller.UserID, caller.Client, true
	default:
		if requested == "" {
			badRequest(c, "user_id is required")
			return "", nil, false
		}
		return requested, caller.Client, true
	}
}

// resolveConsentedUser is resolveUser for operations on a user's profile.
// API key callers only reach users who granted their client matching access.
func resolveConsentedUser(c *gin.Context, consents repository.ConsentRepository, requested string) (string, bool) {
	userID, client, ok := resolveUser(c, requested)
	if !ok {
		return "", false
	}
	if caller, _ := middleware.CallerFrom(c); caller.Mode != middleware.AuthModeAPIKey {
		return userID, true
	}

	granted, err := consents.HasGrant(c.Request.Context(), client.ID, userID, domain.ScopeMatching)
	if err != nil {
		respondError(c, fmt.Errorf("failed to check consent: %w", err))
		return "", false
	}
	if !granted {
		respondError(c, domain.ErrConsentRequired)
		return "", false
	}
	return userID, true
}
