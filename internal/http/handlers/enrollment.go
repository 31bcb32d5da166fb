package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursify-backend/internal/http/response"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"github.com/yungbote/coursify-backend/internal/services"
)

type EnrollmentHandler struct {
	log               *logger.Logger
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(log *logger.Logger, enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		log:               log.With("handler", "EnrollmentHandler"),
		enrollmentService: enrollmentService,
	}
}

// GET /api/enrollments?userId=
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	in := services.ListEnrollmentsInput{UserID: c.Query("userId")}
	enrollments, err := h.enrollmentService.List(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollments": enrollments})
}

// POST /api/enrollments
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var in services.EnrollInput
	if !bindJSON(c, &in) {
		return
	}
	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"enrollment": enrollment})
}

// POST /api/enrollments/:id/progress
func (h *EnrollmentHandler) RecordProgress(c *gin.Context) {
	id, ok := pathID(c, "id", "Enrollment")
	if !ok {
		return
	}
	var in services.RecordProgressInput
	if !bindJSON(c, &in) {
		return
	}
	enrollment, err := h.enrollmentService.RecordLessonComplete(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollment": enrollment})
}
