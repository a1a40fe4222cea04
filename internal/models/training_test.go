package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"imaginx-backend/internal/models"
)

func TestTrainingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to models.TrainingStatus
		want     bool
	}{
		{models.TrainingSubmitted, models.TrainingStarting, true},
		{models.TrainingStarting, models.TrainingProcessing, true},
		{models.TrainingStarting, models.TrainingSucceeded, true},
		{models.TrainingProcessing, models.TrainingFailed, true},
		{models.TrainingProcessing, models.TrainingStarting, false},
		{models.TrainingProcessing, models.TrainingProcessing, false},
		{models.TrainingStarting, models.TrainingSubmitted, false},
		{models.TrainingSucceeded, models.TrainingFailed, false},
		{models.TrainingCanceled, models.TrainingProcessing, false},
		{models.TrainingStarting, "queued", false},
		{"queued", models.TrainingProcessing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransitionSources(t *testing.T) {
	assert.Equal(t, []models.TrainingStatus{models.TrainingSubmitted, models.TrainingStarting, models.TrainingProcessing},
		models.TransitionSources(models.TrainingSucceeded))
	assert.Equal(t, []models.TrainingStatus{models.TrainingSubmitted, models.TrainingStarting},
		models.TransitionSources(models.TrainingProcessing))
	assert.Empty(t, models.TransitionSources(models.TrainingSubmitted))
	assert.Empty(t, models.TransitionSources("queued"))
}
