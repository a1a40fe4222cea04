package models

import "time"

type SignUploadResponse struct {
	SignedURL string `json:"signedUrl"`
	FileKey   string `json:"fileKey"`
}

type TrainingResponse struct {
	Success bool `json:"success"`
}

type ModelResponse struct {
	ID             int64     `json:"id"`
	ModelID        string    `json:"model_id"`
	ModelName      string    `json:"model_name"`
	Gender         string    `json:"gender"`
	TrainingStatus string    `json:"training_status"`
	TriggerWord    string    `json:"trigger_word"`
	TrainingSteps  int       `json:"training_steps"`
	TrainingID     string    `json:"training_id"`
	Version        string    `json:"version,omitempty"`
	TrainingTime   *float64  `json:"training_time,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type ModelListResponse struct {
	Models []ModelResponse `json:"models"`
	Count  int             `json:"count"`
}

func NewModelResponse(job TrainingJob) ModelResponse {
	resp := ModelResponse{
		ID:             job.ID,
		ModelID:        job.ModelID,
		ModelName:      job.ModelName,
		Gender:         job.Gender,
		TrainingStatus: string(job.TrainingStatus),
		TriggerWord:    job.TriggerWord,
		TrainingSteps:  job.TrainingSteps,
		TrainingID:     job.TrainingID,
		CreatedAt:      job.CreatedAt,
	}
	if job.Version.Valid {
		resp.Version = job.Version.String
	}
	if job.TrainingTime.Valid {
		t := job.TrainingTime.Float64
		resp.TrainingTime = &t
	}
	return resp
}

type ImageResponse struct {
	ID                int64     `json:"id"`
	URL               string    `json:"url,omitempty"`
	Model             string    `json:"model"`
	Prompt            string    `json:"prompt"`
	Guidance          float64   `json:"guidance"`
	NumInferenceSteps int       `json:"num_inference_steps"`
	AspectRatio       string    `json:"aspect_ratio"`
	OutputFormat      string    `json:"output_format"`
	ImageName         string    `json:"image_name"`
	Width             int       `json:"width"`
	Height            int       `json:"height"`
	CreatedAt         time.Time `json:"created_at"`
}

type ImageListResponse struct {
	Images []ImageResponse `json:"images"`
}

// Artifact is one generated image URL with the request that produced it.
type Artifact struct {
	URL string `json:"url"`
	GenerationRequest
}

// ArtifactOutcome reports persistence of a single artifact.
type ArtifactOutcome struct {
	URL      string `json:"url"`
	FileName string `json:"fileName,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	ImageID  int64  `json:"imageId,omitempty"`
}

type StoreImagesResponse struct {
	Success bool              `json:"success"`
	Results []ArtifactOutcome `json:"results"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type AuthResponse struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

func NewImageResponse(img GeneratedImage) ImageResponse {
	return ImageResponse{
		ID:                img.ID,
		Model:             img.Model,
		Prompt:            img.Prompt,
		Guidance:          img.Guidance,
		NumInferenceSteps: img.NumInferenceSteps,
		AspectRatio:       img.AspectRatio,
		OutputFormat:      img.OutputFormat,
		ImageName:         img.ImageName,
		Width:             img.Width,
		Height:            img.Height,
		CreatedAt:         img.CreatedAt,
	}
}
