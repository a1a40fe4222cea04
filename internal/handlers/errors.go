package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/middleware"
	"imaginx-backend/internal/models"
)

// respondError renders err as an ErrorResponse. Messages of 5xx errors stay
// in the log.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	log := zerolog.Ctx(c.Request.Context())

	resp := models.ErrorResponse{Error: string(apperr.KindOf(err))}
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusGatewayTimeout {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		resp.Message = "internal server error"
	} else {
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("request rejected")
		resp.Message = err.Error()
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, message string, err error) {
	resp := models.ErrorResponse{Error: string(apperr.Validation), Message: message}
	if err != nil {
		resp.Message = message + ": " + err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

// currentUser resolves the caller or writes the 401 response.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, err := middleware.UserID(c)
	if err != nil {
		respondError(c, err)
		return uuid.Nil, false
	}
	return userID, true
}
