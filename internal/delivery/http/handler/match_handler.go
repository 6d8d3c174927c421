package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/usecase/matching"
)

type MatchHandler struct {
	matchUseCase *matching.MatchUseCase
}

func NewMatchHandler(matchUseCase *matching.MatchUseCase) *MatchHandler {
	return &MatchHandler{
		matchUseCase: matchUseCase,
	}
}

// MatchQueryParams are the query string filters of GET /matches
type MatchQueryParams struct {
	UserID        string   `form:"user_id" binding:"omitempty,uuid"`
	Limit         int      `form:"limit"`
	Gender        []string `form:"gender" binding:"omitempty,dive,gender"`
	MinAge        *int     `form:"min_age"`
	MaxAge        *int     `form:"max_age"`
	MaxDistanceKm *float64 `form:"max_distance_km"`
}

// MatchQueryRequest is the body of POST /matches/query
type MatchQueryRequest struct {
	UserID        string             `json:"user_id" binding:"omitempty,uuid"`
	Limit         int                `json:"limit"`
	Genders       []string           `json:"genders" binding:"omitempty,dive,gender"`
	MinAge        *int               `json:"min_age"`
	MaxAge        *int               `json:"max_age"`
	MaxDistanceKm *float64           `json:"max_distance_km"`
	Weights       map[string]float64 `json:"weights"`
}

// MatchesResponse wraps ranked results
type MatchesResponse struct {
	Matches []domain.MatchResult `json:"matches"`
	Count   int                  `json:"count"`
}

// GetMatches handles GET /matches
// @Summary Find matches
// @Description Rank the caller's candidate pool with default weights
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Success 200 {object} MatchesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /matches [get]
func (h *MatchHandler) GetMatches(c *gin.Context) {
	var params MatchQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	h.run(c, MatchQueryRequest{
		UserID:        params.UserID,
		Limit:         params.Limit,
		Genders:       params.Gender,
		MinAge:        params.MinAge,
		MaxAge:        params.MaxAge,
		MaxDistanceKm: params.MaxDistanceKm,
	})
}

// QueryMatches handles POST /matches/query
// @Summary Find matches with custom weights
// @Tags matches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body MatchQueryRequest true "Match query"
// @Success 200 {object} MatchesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /matches/query [post]
func (h *MatchHandler) QueryMatches(c *gin.Context) {
	var req MatchQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	h.run(c, req)
}

func (h *MatchHandler) run(c *gin.Context, req MatchQueryRequest) {
	userID, client, ok := resolveUser(c, req.UserID)
	if !ok {
		return
	}

	limit := req.Limit
	if limit == 0 && client.DefaultMatchLimit > 0 {
		limit = min(client.DefaultMatchLimit, h.matchUseCase.MaxLimit())
	}
	genders := make([]domain.Gender, len(req.Genders))
	for i, g := range req.Genders {
		genders[i] = domain.Gender(g)
	}

	results, err := h.matchUseCase.FindMatches(c.Request.Context(), matching.Query{
		SeedUserID:    userID,
		ClientID:      client.ID,
		Limit:         limit,
		Genders:       genders,
		MinAge:        req.MinAge,
		MaxAge:        req.MaxAge,
		MaxDistanceKm: req.MaxDistanceKm,
		Weights:       req.Weights,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MatchesResponse{Matches: results, Count: len(results)})
}
