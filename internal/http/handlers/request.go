package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursify-backend/internal/http/response"
	"github.com/yungbote/coursify-backend/internal/platform/apierr"
	"github.com/yungbote/coursify-backend/internal/platform/patch"
)

const maxBodyBytes = 1 << 20

// bindJSON decodes the request body into dst. An empty body leaves dst
// untouched so the service reports the missing fields. On failure the 400
// is already written and false is returned.
func bindJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil {
		return true
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		response.RespondAPIError(c, decodeError(err))
		return false
	}
	return true
}

func decodeError(err error) *apierr.Error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	var numErr *patch.NumberError
	var sizeErr *http.MaxBytesError
	switch {
	case errors.As(err, &sizeErr):
		return apierr.Validation(fmt.Sprintf("request body exceeds %d bytes", sizeErr.Limit))
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return apierr.Validation("invalid request body")
		}
		return apierr.Validation("invalid request body", apierr.FieldError{
			Field:   field,
			Message: fmt.Sprintf("must be a %s", jsonKind(typeErr.Type.Kind().String())),
		})
	case errors.As(err, &numErr):
		return apierr.Validation(numErr.Error())
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return apierr.Validation("malformed JSON body")
	default:
		return apierr.Validation("invalid request body")
	}
}

func jsonKind(goKind string) string {
	switch goKind {
	case "string":
		return "string"
	case "bool":
		return "boolean"
	case "slice", "array":
		return "array"
	case "struct", "map", "ptr":
		return "object"
	default:
		return "number"
	}
}

// pathID parses the named route parameter. A value that is not a UUID cannot
// name a stored row, so it answers 404 for what.
func pathID(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.RespondAPIError(c, apierr.NotFound(what))
		return uuid.Nil, false
	}
	return id, true
}

func messageBody(msg string) gin.H {
	return gin.H{"message": msg}
}
