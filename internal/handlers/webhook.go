package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/models"
	"imaginx-backend/internal/replicate"
	"imaginx-backend/internal/services"
)

// maxWebhookBody bounds the payload read before the signature is checked.
const maxWebhookBody = 1 << 20

type SignatureVerifier interface {
	VerifyRequest(ctx context.Context, header http.Header, body []byte) error
}

type TrainingReconciler interface {
	HandleTrainingCallback(ctx context.Context, cc services.CallbackContext, payload *replicate.Training) (*services.ReconcileResult, error)
}

type WebhookHandler struct {
	verifier   SignatureVerifier
	reconciler TrainingReconciler
}

func NewWebhookHandler(verifier SignatureVerifier, reconciler TrainingReconciler) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, reconciler: reconciler}
}

// HandleTraining godoc
// @Summary     Training status webhook
// @Description Receives signed training status reports from Replicate. Repeated
// @Description deliveries of the same report are acknowledged without side effects.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       webhook-id        header string true "Message id"
// @Param       webhook-timestamp header string true "Unix seconds"
// @Param       webhook-signature header string true "Space separated v1,<base64> signatures"
// @Param       userId    query string true "Owner of the training"
// @Param       modelName query string true "Model display name"
// @Param       fileName  query string false "Training data path"
// @Success     200 {object} map[string]string "status"
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /api/webhooks/training [post]
func (h *WebhookHandler) HandleTraining(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read request body",
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	if err := h.verifier.VerifyRequest(ctx, c.Request.Header, body); err != nil {
		if apperr.IsKind(err, apperr.InvalidSignature) {
			respondError(c, err)
			return
		}
		respondError(c, apperr.Wrap(apperr.Internal, "failed to verify webhook", err))
		return
	}

	var payload replicate.Training
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse event",
			Message: err.Error(),
		})
		return
	}

	result, err := h.reconciler.HandleTrainingCallback(ctx, services.CallbackContext{
		UserID:    c.Query("userId"),
		ModelName: c.Query("modelName"),
		FileName:  c.Query("fileName"),
	}, &payload)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.UnknownUser:
			respondError(c, err)
		case apperr.Validation:
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: string(apperr.Validation), Message: err.Error()})
		default:
			// Any 5xx makes the provider redeliver; the transition is idempotent.
			respondError(c, apperr.Wrap(apperr.Internal, "failed to process training webhook", err))
		}
		return
	}

	zerolog.Ctx(ctx).Info().
		Str("training_id", payload.ID).
		Str("outcome", string(result.Outcome)).
		Msg("training webhook processed")
	c.JSON(http.StatusOK, gin.H{"status": string(result.Outcome)})
}
