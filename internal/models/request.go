package models

type SignUploadRequest struct {
	FileName string `json:"fileName" binding:"required"`
}

// TrainingRequest is the form-encoded body of POST /train.
type TrainingRequest struct {
	FileKey   string `form:"fileKey"`
	ModelName string `form:"modelName"`
	Gender    string `form:"gender"`
}

// GenerationRequest carries the generation form values. It is never persisted.
type GenerationRequest struct {
	Model             string  `json:"model"`
	Prompt            string  `json:"prompt"`
	Guidance          float64 `json:"guidance"`
	NumOutputs        int     `json:"num_outputs"`
	AspectRatio       string  `json:"aspect_ratio"`
	OutputFormat      string  `json:"output_format"`
	OutputQuality     int     `json:"output_quality"`
	NumInferenceSteps int     `json:"num_inference_steps"`
}

type StoreImagesRequest struct {
	GenerationRequest
	URLs []string `json:"urls" binding:"required,min=1,max=4,dive,url"`
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required,min=3"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
