package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursify-backend/internal/platform/apierr"
)

const internalErrorMessage = "internal server error"

// RespondAPIError writes err as its carried status and code. Errors that are
// not an *apierr.Error become an opaque 500; the detail is left to the logs.
func RespondAPIError(c *gin.Context, err error) {
	ae, ok := apierr.As(err)
	if !ok || ae.Status == 0 {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorBody{
			Error: internalErrorMessage,
			Code:  apierr.CodeInternal,
		})
		return
	}
	if ae.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(ae.Status, ErrorBody{
		Error:  ae.Error(),
		Code:   ae.Code,
		Fields: ae.Fields,
	})
}
