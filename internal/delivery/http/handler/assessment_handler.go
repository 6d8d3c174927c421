package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/mpit2026-matching/internal/repository"
	"github.com/gdugdh24/mpit2026-matching/internal/usecase/assessment"
)

type AssessmentHandler struct {
	assessmentUseCase *assessment.AssessmentUseCase
	consents          repository.ConsentRepository
}

func NewAssessmentHandler(assessmentUseCase *assessment.AssessmentUseCase, consents repository.ConsentRepository) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentUseCase: assessmentUseCase,
		consents:          consents,
	}
}

// QuestionResponse is one questionnaire item as shown to clients
type QuestionResponse struct {
	ID      string   `json:"id"`
	Axis    string   `json:"axis"`
	Kind    string   `json:"kind"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options,omitempty"`
}

// QuestionsResponse is the questionnaire catalogue
type QuestionsResponse struct {
	Version   float64            `json:"version"`
	Questions []QuestionResponse `json:"questions"`
}

// GetQuestions handles GET /assessment/questions
// @Summary Get assessment questions
// @Tags assessment
// @Produce json
// @Success 200 {object} QuestionsResponse
// @Router /assessment/questions [get]
func (h *AssessmentHandler) GetQuestions(c *gin.Context) {
	q := h.assessmentUseCase.Questionnaire()
	resp := QuestionsResponse{Version: q.Version, Questions: make([]QuestionResponse, 0, len(q.Questions))}
	for _, item := range q.Questions {
		resp.Questions = append(resp.Questions, QuestionResponse{
			ID:      string(item.ID),
			Axis:    item.Axis.String(),
			Kind:    string(item.Kind),
			Prompt:  item.Prompt,
			Options: item.Options,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// SubmitAssessment handles POST /assessment
// @Summary Submit assessment answers
// @Description Builds and embeds the user's profile from questionnaire answers
// @Tags assessment
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body assessment.SubmitRequest true "Answers"
// @Success 200 {object} assessment.SubmitResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /assessment [post]
func (h *AssessmentHandler) SubmitAssessment(c *gin.Context) {
	var req assessment.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	userID, ok := resolveConsentedUser(c, h.consents, req.UserID)
	if !ok {
		return
	}

	result, err := h.assessmentUseCase.Submit(c.Request.Context(), userID, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RegenerateRequest names the user whose profile is rebuilt
type RegenerateRequest struct {
	UserID string `json:"user_id" binding:"omitempty,uuid"`
}

// RegenerateProfile handles POST /assessment/regenerate
// @Summary Rebuild profile from stored answers
// @Tags assessment
// @Security BearerAuth
// @Produce json
// @Success 200 {object} assessment.SubmitResult
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /assessment/regenerate [post]
func (h *AssessmentHandler) RegenerateProfile(c *gin.Context) {
	var req RegenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	userID, ok := resolveConsentedUser(c, h.consents, req.UserID)
	if !ok {
		return
	}

	result, err := h.assessmentUseCase.Regenerate(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetProfileStatus handles GET /profile/status
// @Summary Get profile completeness
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.ProfileStatus
// @Router /profile/status [get]
func (h *AssessmentHandler) GetProfileStatus(c *gin.Context) {
	userID, ok := resolveConsentedUser(c, h.consents, c.Query("user_id"))
	if !ok {
		return
	}

	status, err := h.assessmentUseCase.Status(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
