package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yigit/techroom/internal/middleware"
	"github.com/yigit/techroom/internal/pkg/apperrors"
)

// parseIDParam reads a positive int64 path parameter. On failure it writes
// a 400 response naming the resource and returns false.
func parseIDParam(ctx *gin.Context, name, resource string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Invalid "+resource+" ID format"))
		return 0, false
	}
	return id, true
}
