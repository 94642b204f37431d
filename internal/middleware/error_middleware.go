package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/techroom/internal/app/models/dto"
	"github.com/yigit/techroom/internal/pkg/apperrors"
	"github.com/yigit/techroom/internal/pkg/logger"
)

const internalErrorMessage = "Internal server error"

// HandleAPIError writes the response for err and aborts the request.
// Store failures and unknown errors are logged in full and answered with a
// generic 500 so internal details never reach the client.
func HandleAPIError(c *gin.Context, err error) {
	var custom *apperrors.CustomError
	hasCustom := errors.As(err, &custom)

	switch {
	case errors.Is(err, apperrors.ErrStoreFailure):
		logger.Error().Err(err).
			Str("requestID", RequestIDFrom(c)).
			Str("path", c.Request.URL.Path).
			Msg("Record store failure")
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(internalErrorMessage))

	case errors.Is(err, apperrors.ErrValidationFailed):
		resp := dto.NewErrorResponse("Validation failed")
		if hasCustom {
			resp.Message = custom.Message
			for _, v := range custom.Violations {
				resp.WithError(dto.ErrorCodeValidationFailed, v.Field, v.Message)
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, resp)

	case errors.Is(err, apperrors.ErrBadRequest):
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(messageOr(custom, "Bad request")))

	case errors.Is(err, apperrors.ErrResourceNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponse(messageOr(custom, "Resource not found")))

	case errors.Is(err, apperrors.ErrConflict):
		resp := dto.NewErrorResponse(messageOr(custom, "Resource already exists"))
		if hasCustom && custom.Field != "" {
			resp.WithError(dto.ErrorCodeResourceAlreadyExists, custom.Field, custom.Message)
		}
		c.AbortWithStatusJSON(http.StatusConflict, resp)

	default:
		logger.Error().Err(err).
			Str("requestID", RequestIDFrom(c)).
			Str("path", c.Request.URL.Path).
			Msg("Unhandled API error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(internalErrorMessage))
	}
}

func messageOr(custom *apperrors.CustomError, fallback string) string {
	if custom != nil && custom.Message != "" {
		return custom.Message
	}
	return fallback
}
