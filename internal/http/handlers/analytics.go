package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursify-backend/internal/http/response"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"github.com/yungbote/coursify-backend/internal/services"
)

type AnalyticsHandler struct {
	log              *logger.Logger
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(log *logger.Logger, analyticsService services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		log:              log.With("handler", "AnalyticsHandler"),
		analyticsService: analyticsService,
	}
}

// GET /api/analytics/:courseId
func (h *AnalyticsHandler) GetCourseAnalytics(c *gin.Context) {
	courseID, ok := pathID(c, "courseId", "Course")
	if !ok {
		return
	}
	out, err := h.analyticsService.GetCourseAnalytics(c.Request.Context(), courseID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}
