package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"imaginx-backend/internal/models"
)

type TrainingSubmitter interface {
	SubmitTraining(ctx context.Context, userID uuid.UUID, req models.TrainingRequest) (*models.TrainingJob, error)
	ListModels(ctx context.Context, userID uuid.UUID) ([]models.TrainingJob, error)
	DeleteModel(ctx context.Context, userID uuid.UUID, id int64) error
}

type TrainingHandler struct {
	trainings TrainingSubmitter
}

func NewTrainingHandler(trainings TrainingSubmitter) *TrainingHandler {
	return &TrainingHandler{trainings: trainings}
}

// Train godoc
// @Summary     Start a model training
// @Description Registers a private model and starts a LoRA training on the uploaded archive.
// @Description The user is emailed when the training finishes.
// @Tags        models
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Security    Bearer
// @Param       fileKey   formData string true "Key returned by /uploads/sign"
// @Param       modelName formData string true "Display name of the model"
// @Param       gender    formData string true "man or woman"
// @Success     201 {object} models.TrainingResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/train [post]
func (h *TrainingHandler) Train(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.TrainingRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid form", err)
		return
	}

	if _, err := h.trainings.SubmitTraining(c.Request.Context(), userID, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.TrainingResponse{Success: true})
}

// ListModels godoc
// @Summary     List trained models
// @Tags        models
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ModelListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/v1/models [get]
func (h *TrainingHandler) ListModels(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	jobs, err := h.trainings.ListModels(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.ModelListResponse{Models: make([]models.ModelResponse, 0, len(jobs))}
	for _, job := range jobs {
		resp.Models = append(resp.Models, models.NewModelResponse(job))
	}
	resp.Count = len(resp.Models)
	c.JSON(http.StatusOK, resp)
}

// DeleteModel godoc
// @Summary     Delete a model
// @Description Deletes the provider model, its training data and the record.
// @Tags        models
// @Produce     json
// @Security    Bearer
// @Param       id path int true "Model record id"
// @Success     200 {object} map[string]string "status"
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/v1/models/{id} [delete]
func (h *TrainingHandler) DeleteModel(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid model id", nil)
		return
	}

	if err := h.trainings.DeleteModel(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
