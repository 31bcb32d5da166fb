package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursify-backend/internal/http/response"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"github.com/yungbote/coursify-backend/internal/services"
)

type LessonHandler struct {
	log           *logger.Logger
	lessonService services.LessonService
	media         services.MediaGenerationService
}

func NewLessonHandler(log *logger.Logger, lessonService services.LessonService, media services.MediaGenerationService) *LessonHandler {
	return &LessonHandler{
		log:           log.With("handler", "LessonHandler"),
		lessonService: lessonService,
		media:         media,
	}
}

// POST /api/lessons
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	var in services.CreateLessonInput
	if !bindJSON(c, &in) {
		return
	}
	lesson, err := h.lessonService.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"lesson": lesson})
}

// GET /api/lessons/:id
func (h *LessonHandler) GetLesson(c *gin.Context) {
	id, ok := pathID(c, "id", "Lesson")
	if !ok {
		return
	}
	lesson, err := h.lessonService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

// PATCH /api/lessons/:id
func (h *LessonHandler) UpdateLesson(c *gin.Context) {
	id, ok := pathID(c, "id", "Lesson")
	if !ok {
		return
	}
	var in services.UpdateLessonInput
	if !bindJSON(c, &in) {
		return
	}
	lesson, err := h.lessonService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

// DELETE /api/lessons/:id
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	id, ok := pathID(c, "id", "Lesson")
	if !ok {
		return
	}
	if err := h.lessonService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, messageBody("Lesson deleted successfully"))
}

// POST /api/lessons/:id/generate-quiz
func (h *LessonHandler) GenerateQuiz(c *gin.Context) {
	id, ok := pathID(c, "id", "Lesson")
	if !ok {
		return
	}
	out, err := h.lessonService.GenerateQuiz(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, out)
}

// POST /api/lessons/:id/generate-video
func (h *LessonHandler) GenerateVideo(c *gin.Context) {
	id, ok := pathID(c, "id", "Lesson")
	if !ok {
		return
	}
	out, err := h.media.GenerateLessonVideo(c.Request.Context(), id)
	if err != nil {
		h.log.Warn("Video generation failed", "lesson_id", id, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}
