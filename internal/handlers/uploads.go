package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"imaginx-backend/internal/models"
)

type UploadSigner interface {
	CreateSignedUploadURL(ctx context.Context, userID uuid.UUID, fileName string) (*models.SignUploadResponse, error)
}

type UploadHandler struct {
	uploads UploadSigner
}

func NewUploadHandler(uploads UploadSigner) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Sign godoc
// @Summary     Create a signed upload URL
// @Description Issues a one-time URL the client uploads its training archive to.
// @Description The returned fileKey is passed to POST /train.
// @Tags        uploads
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.SignUploadRequest true "File to upload"
// @Success     200 {object} models.SignUploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/uploads/sign [post]
func (h *UploadHandler) Sign(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.SignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	resp, err := h.uploads.CreateSignedUploadURL(c.Request.Context(), userID, req.FileName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
