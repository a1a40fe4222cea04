package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"imaginx-backend/internal/genstate"
	"imaginx-backend/internal/models"
)

type ImageLibrary interface {
	StoreImages(ctx context.Context, userID uuid.UUID, req models.GenerationRequest, urls []string) ([]models.ArtifactOutcome, error)
	ListImages(ctx context.Context, userID uuid.UUID) ([]models.ImageResponse, error)
	DeleteImage(ctx context.Context, userID uuid.UUID, id int64) error
}

type ImageHandler struct {
	sessions *genstate.Registry
	images   ImageLibrary
}

func NewImageHandler(sessions *genstate.Registry, images ImageLibrary) *ImageHandler {
	return &ImageHandler{sessions: sessions, images: images}
}

// Generate godoc
// @Summary     Generate images
// @Description Runs a generation for the caller's session and returns the session snapshot.
// @Description Generated images are saved to the gallery in the background; poll
// @Description GET /images/generation for the persistence outcome.
// @Tags        images
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.GenerationRequest true "Generation parameters"
// @Success     200 {object} genstate.Snapshot
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse "a generation is already running"
// @Failure     502 {object} models.ErrorResponse
// @Failure     504 {object} models.ErrorResponse
// @Router      /api/v1/images/generate [post]
func (h *ImageHandler) Generate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	snapshot, err := h.sessions.Submit(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Generation godoc
// @Summary     Current generation state
// @Tags        images
// @Produce     json
// @Security    Bearer
// @Success     200 {object} genstate.Snapshot
// @Failure     401 {object} models.ErrorResponse
// @Router      /api/v1/images/generation [get]
func (h *ImageHandler) Generation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	session, found := h.sessions.Lookup(userID)
	if !found {
		c.JSON(http.StatusOK, genstate.Snapshot{State: genstate.StateIdle, Artifacts: []models.Artifact{}})
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// Store godoc
// @Summary     Save generated images
// @Description Downloads each URL into the gallery. Every image succeeds or fails on its own.
// @Tags        images
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.StoreImagesRequest true "Images and the request that produced them"
// @Success     200 {object} models.StoreImagesResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /api/v1/images/store [post]
func (h *ImageHandler) Store(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.StoreImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err)
		return
	}

	outcomes, err := h.images.StoreImages(c.Request.Context(), userID, req.GenerationRequest, req.URLs)
	if err != nil {
		respondError(c, err)
		return
	}

	success := true
	for _, o := range outcomes {
		success = success && o.Success
	}
	c.JSON(http.StatusOK, models.StoreImagesResponse{Success: success, Results: outcomes})
}

// List godoc
// @Summary     List saved images
// @Tags        images
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ImageListResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /api/v1/images [get]
func (h *ImageHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	images, err := h.images.ListImages(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ImageListResponse{Images: images})
}

// Delete godoc
// @Summary     Delete a saved image
// @Tags        images
// @Produce     json
// @Security    Bearer
// @Param       id path int true "Image id"
// @Success     200 {object} map[string]string "status"
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/v1/images/{id} [delete]
func (h *ImageHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid image id", nil)
		return
	}

	if err := h.images.DeleteImage(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
