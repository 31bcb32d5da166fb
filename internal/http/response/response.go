package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursify-backend/internal/platform/apierr"
)

// ErrorBody is the failure shape of every endpoint.
type ErrorBody struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields []apierr.FieldError `json:"fields,omitempty"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
