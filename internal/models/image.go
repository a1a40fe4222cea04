package models

import (
	"time"

	"github.com/google/uuid"
)

type GeneratedImage struct {
	ID                int64
	UserID            uuid.UUID
	Model             string
	Prompt            string
	Guidance          float64
	NumInferenceSteps int
	AspectRatio       string
	OutputFormat      string
	ImageName         string
	Width             int
	Height            int
	CreatedAt         time.Time
}
