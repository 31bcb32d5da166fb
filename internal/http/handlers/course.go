package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursify-backend/internal/http/response"
	"github.com/yungbote/coursify-backend/internal/platform/apierr"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"github.com/yungbote/coursify-backend/internal/services"
)

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
	generator     services.CourseGenerationService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService, generator services.CourseGenerationService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		courseService: courseService,
		generator:     generator,
	}
}

// GET /api/courses?published=&category=&userId=
func (h *CourseHandler) ListCourses(c *gin.Context) {
	in := services.ListCoursesInput{Category: c.Query("category")}
	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			response.RespondAPIError(c, apierr.Validation("invalid query", apierr.FieldError{Field: "userId", Message: "must be a valid UUID"}))
			return
		}
		in.UserID = &userID
	}
	switch strings.ToLower(strings.TrimSpace(c.Query("published"))) {
	case "true":
		published := true
		in.Published = &published
	case "false":
		published := false
		in.Published = &published
	}

	courses, err := h.courseService.List(c.Request.Context(), in)
	if err != nil {
		h.log.Error("ListCourses failed", "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var in services.CreateCourseInput
	if !bindJSON(c, &in) {
		return
	}
	course, err := h.courseService.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"course": course})
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, ok := pathID(c, "id", "Course")
	if !ok {
		return
	}
	course, err := h.courseService.GetDetail(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// PATCH /api/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id, ok := pathID(c, "id", "Course")
	if !ok {
		return
	}
	var in services.UpdateCourseInput
	if !bindJSON(c, &in) {
		return
	}
	course, err := h.courseService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// DELETE /api/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id, ok := pathID(c, "id", "Course")
	if !ok {
		return
	}
	if err := h.courseService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, messageBody("Course deleted successfully"))
}

// POST /api/courses/:id/publish
func (h *CourseHandler) PublishCourse(c *gin.Context) {
	id, ok := pathID(c, "id", "Course")
	if !ok {
		return
	}
	course, err := h.courseService.Publish(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// DELETE /api/courses/:id/publish
func (h *CourseHandler) UnpublishCourse(c *gin.Context) {
	id, ok := pathID(c, "id", "Course")
	if !ok {
		return
	}
	course, err := h.courseService.Unpublish(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// POST /api/courses/generate
func (h *CourseHandler) GenerateCourse(c *gin.Context) {
	var in services.GenerateCourseInput
	if !bindJSON(c, &in) {
		return
	}
	out, err := h.generator.GenerateAndPersist(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	h.log.Info("Course generated", "course_id", out.Course.ID, "source", out.Source)
	response.RespondCreated(c, out)
}

// GET /api/courses/:id/modules
func (h *CourseHandler) ListCourseModules(c *gin.Context) {
	id, ok := pathID(c, "id", "Course")
	if !ok {
		return
	}
	modules, err := h.courseService.ListModules(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"modules": modules})
}
