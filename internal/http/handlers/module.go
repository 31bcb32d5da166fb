package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursify-backend/internal/http/response"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"github.com/yungbote/coursify-backend/internal/services"
)

type ModuleHandler struct {
	log           *logger.Logger
	moduleService services.ModuleService
}

func NewModuleHandler(log *logger.Logger, moduleService services.ModuleService) *ModuleHandler {
	return &ModuleHandler{
		log:           log.With("handler", "ModuleHandler"),
		moduleService: moduleService,
	}
}

// POST /api/modules
func (h *ModuleHandler) CreateModule(c *gin.Context) {
	var in services.CreateModuleInput
	if !bindJSON(c, &in) {
		return
	}
	module, err := h.moduleService.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"module": module})
}

// PATCH /api/modules/:id
func (h *ModuleHandler) UpdateModule(c *gin.Context) {
	id, ok := pathID(c, "id", "Module")
	if !ok {
		return
	}
	var in services.UpdateModuleInput
	if !bindJSON(c, &in) {
		return
	}
	module, err := h.moduleService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"module": module})
}

// DELETE /api/modules/:id
func (h *ModuleHandler) DeleteModule(c *gin.Context) {
	id, ok := pathID(c, "id", "Module")
	if !ok {
		return
	}
	if err := h.moduleService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, messageBody("Module deleted successfully"))
}
