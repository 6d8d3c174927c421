package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/delivery/http/handler"
	"github.com/gdugdh24/mpit2026-matching/internal/delivery/http/middleware"
)

type Router struct {
	matchHandler      *handler.MatchHandler
	assessmentHandler *handler.AssessmentHandler
	authMiddleware    *middleware.AuthMiddleware
	gatherer          prometheus.Gatherer
	logger            *zap.Logger
}

func NewRouter(
	matchHandler *handler.MatchHandler,
	assessmentHandler *handler.AssessmentHandler,
	authMiddleware *middleware.AuthMiddleware,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		matchHandler:      matchHandler,
		assessmentHandler: assessmentHandler,
		authMiddleware:    authMiddleware,
		gatherer:          gatherer,
		logger:            logger,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(r.logger), gin.Recovery())

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	if r.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/assessment/questions", r.assessmentHandler.GetQuestions)

		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			assessment := protected.Group("/assessment")
			{
				assessment.POST("", r.assessmentHandler.SubmitAssessment)
				assessment.POST("/regenerate", r.assessmentHandler.RegenerateProfile)
			}

			protected.GET("/profile/status", r.assessmentHandler.GetProfileStatus)

			matches := protected.Group("/matches")
			{
				matches.GET("", r.matchHandler.GetMatches)
				matches.POST("/query", r.matchHandler.QueryMatches)
			}
		}
	}

	return router
}
