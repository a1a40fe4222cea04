package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/imagemeta"
	"imaginx-backend/internal/metrics"
	"imaginx-backend/internal/models"
)

// Family selects how a generation request is validated and shaped for the provider.
type Family string

const (
	FamilyDev     Family = "dev"
	FamilyFast    Family = "fast"
	FamilyTrained Family = "trained"
)

const (
	FluxDevModel     = "black-forest-labs/flux-dev"
	FluxSchnellModel = "black-forest-labs/flux-schnell"

	// Expiry of gallery read URLs, in seconds.
	ImageURLExpiry = 3600

	MaxOutputs = 4
)

// DefaultDeliveryHosts are the hosts the provider serves outputs from.
var DefaultDeliveryHosts = []string{"replicate.delivery"}

var (
	AspectRatios  = []string{"1:1", "3:2", "2:3", "4:3", "3:4", "4:5", "5:4", "9:16", "16:9", "9:21", "21:9"}
	OutputFormats = []string{"jpg", "png", "webp"}
)

// familySpec is the strategy for one model family.
type familySpec struct {
	family       Family
	maxSteps     int
	usesGuidance bool
	minGuidance  float64
	maxGuidance  float64
	buildInput   func(req models.GenerationRequest) map[string]interface{}
}

func baseInput(req models.GenerationRequest) map[string]interface{} {
	return map[string]interface{}{
		"prompt":              req.Prompt,
		"go_fast":             true,
		"megapixels":          "1",
		"num_outputs":         req.NumOutputs,
		"aspect_ratio":        req.AspectRatio,
		"output_format":       req.OutputFormat,
		"output_quality":      req.OutputQuality,
		"num_inference_steps": req.NumInferenceSteps,
	}
}

var families = map[Family]familySpec{
	FamilyDev: {
		family:       FamilyDev,
		maxSteps:     50,
		usesGuidance: true,
		minGuidance:  0,
		maxGuidance:  10,
		buildInput: func(req models.GenerationRequest) map[string]interface{} {
			in := baseInput(req)
			in["guidance"] = req.Guidance
			in["prompt_strength"] = 0.8
			return in
		},
	},
	FamilyFast: {
		family:   FamilyFast,
		maxSteps: 4,
		buildInput: func(req models.GenerationRequest) map[string]interface{} {
			return baseInput(req)
		},
	},
	FamilyTrained: {
		family:       FamilyTrained,
		maxSteps:     50,
		usesGuidance: true,
		minGuidance:  1,
		maxGuidance:  20,
		buildInput: func(req models.GenerationRequest) map[string]interface{} {
			in := baseInput(req)
			in["model"] = "dev"
			in["guidance_scale"] = req.Guidance
			in["prompt_strength"] = 0.8
			return in
		},
	},
}

var officialModels = map[string]Family{
	FluxDevModel:     FamilyDev,
	FluxSchnellModel: FamilyFast,
}

// GenerationResult is what the provider produced for one request.
type GenerationResult struct {
	Model     string            `json:"model"`
	Family    Family            `json:"family"`
	Artifacts []models.Artifact `json:"artifacts"`
}

type GenerationService struct {
	provider    Provider
	storage     ObjectStore
	images      ImageStore
	trainings   TrainingStore
	policy      ProviderPolicy
	owner       string
	bucket      string
	concurrency int
	hosts       []string
	logger      zerolog.Logger
}

func NewGenerationService(provider Provider, storage ObjectStore, images ImageStore, trainings TrainingStore, policy ProviderPolicy, owner, bucket string, concurrency int, logger zerolog.Logger) *GenerationService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &GenerationService{
		provider:    provider,
		storage:     storage,
		images:      images,
		trainings:   trainings,
		policy:      policy,
		owner:       owner,
		bucket:      bucket,
		concurrency: concurrency,
		hosts:       DefaultDeliveryHosts,
		logger:      logger.With().Str("component", "generation").Logger(),
	}
}

// WithDeliveryHosts replaces the hosts artifacts may be downloaded from.
// A host also admits its subdomains.
func (s *GenerationService) WithDeliveryHosts(hosts ...string) *GenerationService {
	s.hosts = hosts
	return s
}

func (s *GenerationService) checkArtifactURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.User != nil || u.Port() != "" {
		return apperr.Errorf(apperr.Validation, "image url %q is not a provider delivery url", raw)
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range s.hosts {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return apperr.Errorf(apperr.Validation, "image url %q is not a provider delivery url", raw)
}

// resolveModel maps a requested model id to the provider target and family.
// Trained models must belong to the caller and have a trained version.
func (s *GenerationService) resolveModel(ctx context.Context, userID uuid.UUID, model string) (string, familySpec, error) {
	if family, ok := officialModels[model]; ok {
		return model, families[family], nil
	}

	owner, rest, ok := strings.Cut(model, "/")
	if !ok || owner != s.owner || rest == "" {
		return "", familySpec{}, apperr.Errorf(apperr.InvalidModel, "model %q is not supported", model)
	}
	modelID, _, _ := strings.Cut(rest, ":")

	job, err := s.trainings.GetJobByModelID(ctx, userID, modelID)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return "", familySpec{}, apperr.Errorf(apperr.InvalidModel, "model %q is not supported", model)
		}
		return "", familySpec{}, apperr.Wrap(apperr.Persistence, "failed to load model", err)
	}
	if job.TrainingStatus != models.TrainingSucceeded || !job.Version.Valid || job.Version.String == "" {
		return "", familySpec{}, apperr.Errorf(apperr.InvalidModel, "model %q has not finished training", job.ModelName)
	}

	return fmt.Sprintf("%s/%s:%s", s.owner, job.ModelID, job.Version.String), families[FamilyTrained], nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func validateGeneration(req models.GenerationRequest, fam familySpec) error {
	switch {
	case strings.TrimSpace(req.Prompt) == "":
		return apperr.E(apperr.Validation, "prompt is required")
	case req.NumOutputs < 1 || req.NumOutputs > MaxOutputs:
		return apperr.Errorf(apperr.Validation, "num_outputs must be between 1 and %d", MaxOutputs)
	case !contains(AspectRatios, req.AspectRatio):
		return apperr.Errorf(apperr.Validation, "aspect_ratio %q is not supported", req.AspectRatio)
	case !contains(OutputFormats, req.OutputFormat):
		return apperr.Errorf(apperr.Validation, "output_format %q is not supported", req.OutputFormat)
	case req.OutputQuality < 1 || req.OutputQuality > 100:
		return apperr.E(apperr.Validation, "output_quality must be between 1 and 100")
	case req.NumInferenceSteps < 1 || req.NumInferenceSteps > fam.maxSteps:
		return apperr.Errorf(apperr.Validation, "num_inference_steps must be between 1 and %d", fam.maxSteps)
	case fam.usesGuidance && (req.Guidance < fam.minGuidance || req.Guidance > fam.maxGuidance):
		return apperr.Errorf(apperr.Validation, "guidance must be between %g and %g", fam.minGuidance, fam.maxGuidance)
	}
	return nil
}

// Generate validates req, runs it on the provider and returns the artifact
// URLs with the request attached. Nothing is persisted.
func (s *GenerationService) Generate(ctx context.Context, userID uuid.UUID, req models.GenerationRequest) (result *GenerationResult, err error) {
	family := Family("unknown")
	defer func() {
		metrics.Generations.WithLabelValues(string(family), metrics.Result(err)).Inc()
	}()

	if userID == uuid.Nil {
		return nil, apperr.E(apperr.Unauthenticated, "user not authenticated")
	}

	target, fam, err := s.resolveModel(ctx, userID, req.Model)
	if err != nil {
		return nil, err
	}
	family = fam.family
	if err := validateGeneration(req, fam); err != nil {
		return nil, err
	}

	var urls []string
	err = s.policy.callOnce(ctx, "predict", func(ctx context.Context) error {
		prediction, err := s.provider.Run(ctx, target, fam.buildInput(req))
		if err != nil {
			return err
		}
		urls, err = prediction.OutputURLs()
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Str("model", target).Msg("generation failed")
		return nil, providerError(apperr.Provider, "image generation failed", err)
	}
	if len(urls) == 0 {
		return nil, apperr.E(apperr.Provider, "provider returned no images")
	}

	artifacts := make([]models.Artifact, len(urls))
	for i, u := range urls {
		artifacts[i] = models.Artifact{URL: u, GenerationRequest: req}
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("model", target).
		Int("outputs", len(artifacts)).
		Msg("images generated")

	return &GenerationResult{Model: req.Model, Family: fam.family, Artifacts: artifacts}, nil
}

// StoreImages persists every artifact independently with bounded
// concurrency. Outcomes keep the order of urls; a failed artifact never
// fails the batch.
func (s *GenerationService) StoreImages(ctx context.Context, userID uuid.UUID, req models.GenerationRequest, urls []string) ([]models.ArtifactOutcome, error) {
	if userID == uuid.Nil {
		return nil, apperr.E(apperr.Unauthenticated, "user not authenticated")
	}
	if len(urls) == 0 {
		return nil, apperr.E(apperr.Validation, "no images to store")
	}
	if len(urls) > MaxOutputs {
		return nil, apperr.Errorf(apperr.Validation, "at most %d images can be stored at once", MaxOutputs)
	}
	for _, u := range urls {
		if err := s.checkArtifactURL(u); err != nil {
			return nil, err
		}
	}
	_, fam, err := s.resolveModel(ctx, userID, req.Model)
	if err != nil {
		return nil, err
	}
	if err := validateGeneration(req, fam); err != nil {
		return nil, err
	}

	outcomes := make([]models.ArtifactOutcome, len(urls))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			outcomes[i] = s.persistArtifact(ctx, userID, req, u)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, nil
}

func (s *GenerationService) persistArtifact(ctx context.Context, userID uuid.UUID, req models.GenerationRequest, artifactURL string) (outcome models.ArtifactOutcome) {
	outcome.URL = artifactURL
	log := s.logger.With().Str("user_id", userID.String()).Str("url", artifactURL).Logger()
	defer func() {
		result := "ok"
		if !outcome.Success {
			result = "error"
		}
		metrics.ArtifactsPersisted.WithLabelValues(result).Inc()
	}()

	fail := func(msg string, err error) models.ArtifactOutcome {
		perr := apperr.Wrap(apperr.Persistence, msg, err)
		log.Error().Err(err).Msg(msg)
		outcome.Error = perr.Error()
		return outcome
	}

	var data []byte
	err := s.policy.call(ctx, "download", func(ctx context.Context) error {
		var err error
		data, err = s.provider.DownloadFile(ctx, artifactURL)
		return err
	})
	if err != nil {
		return fail("failed to download image", err)
	}

	meta, err := imagemeta.Sniff(data)
	if err != nil {
		return fail("failed to read image", err)
	}

	fileName := fmt.Sprintf("image_%s.%s", uuid.New(), meta.Type)
	path := fmt.Sprintf("%s/%s", userID, fileName)
	outcome.FileName = fileName

	if err := s.storage.Upload(s.bucket, path, data, meta.MIMEType); err != nil {
		return fail("failed to upload image", err)
	}

	img := &models.GeneratedImage{
		UserID:            userID,
		Model:             req.Model,
		Prompt:            req.Prompt,
		Guidance:          req.Guidance,
		NumInferenceSteps: req.NumInferenceSteps,
		AspectRatio:       req.AspectRatio,
		OutputFormat:      req.OutputFormat,
		ImageName:         fileName,
		Width:             meta.Width,
		Height:            meta.Height,
	}
	if err := s.images.CreateGeneratedImage(ctx, img); err != nil {
		if rmErr := s.storage.Remove(s.bucket, path); rmErr != nil {
			log.Warn().Err(rmErr).Str("path", path).Msg("failed to remove orphaned image")
		}
		return fail("failed to record image", err)
	}

	outcome.Success = true
	outcome.ImageID = img.ID
	return outcome
}

func (s *GenerationService) ListImages(ctx context.Context, userID uuid.UUID) ([]models.ImageResponse, error) {
	if userID == uuid.Nil {
		return nil, apperr.E(apperr.Unauthenticated, "user not authenticated")
	}

	images, err := s.images.ListImages(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "failed to list images", err)
	}

	out := make([]models.ImageResponse, 0, len(images))
	for _, img := range images {
		resp := models.NewImageResponse(img)
		signed, err := s.storage.CreateSignedURL(s.bucket, fmt.Sprintf("%s/%s", userID, img.ImageName), ImageURLExpiry)
		if err != nil {
			s.logger.Warn().Err(err).Int64("image_id", img.ID).Msg("failed to sign image url")
		} else {
			resp.URL = signed
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *GenerationService) DeleteImage(ctx context.Context, userID uuid.UUID, id int64) error {
	if userID == uuid.Nil {
		return apperr.E(apperr.Unauthenticated, "user not authenticated")
	}

	img, err := s.images.GetImage(ctx, id, userID)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return err
		}
		return apperr.Wrap(apperr.Persistence, "failed to load image", err)
	}

	if err := s.images.DeleteImage(ctx, id, userID); err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return err
		}
		return apperr.Wrap(apperr.Persistence, "failed to delete image", err)
	}

	if err := s.storage.Remove(s.bucket, fmt.Sprintf("%s/%s", userID, img.ImageName)); err != nil {
		s.logger.Warn().Err(err).Int64("image_id", id).Msg("failed to remove image file")
	}
	return nil
}
