package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"imaginx-backend/internal/apperr"
	"imaginx-backend/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// DB exposes the handle for the migrator.
func (d *DatabaseClient) DB() *sql.DB {
	return d.db
}

// NewDatabaseClientFromDB wraps an already opened handle.
func NewDatabaseClientFromDB(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

const trainingJobColumns = `id, user_id, model_id, model_name, gender, training_status, trigger_word,
	training_steps, training_id, version, training_time, training_data_path, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrainingJob(row rowScanner) (*models.TrainingJob, error) {
	var job models.TrainingJob
	err := row.Scan(
		&job.ID, &job.UserID, &job.ModelID, &job.ModelName, &job.Gender, &job.TrainingStatus,
		&job.TriggerWord, &job.TrainingSteps, &job.TrainingID, &job.Version, &job.TrainingTime,
		&job.TrainingDataPath, &job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func terminalStatuses() pq.StringArray {
	return statusArray(models.TerminalStatuses)
}

func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, what+" not found", err)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

func (d *DatabaseClient) CreateTrainingJob(ctx context.Context, job *models.TrainingJob) error {
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO models (user_id, model_id, model_name, gender, training_status, trigger_word,
			training_steps, training_id, training_data_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, job.UserID, job.ModelID, job.ModelName, job.Gender, job.TrainingStatus, job.TriggerWord,
		job.TrainingSteps, job.TrainingID, job.TrainingDataPath,
	).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create training job: %w", err)
	}
	return nil
}

func (d *DatabaseClient) ListTrainingJobs(ctx context.Context, userID uuid.UUID) ([]models.TrainingJob, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+trainingJobColumns+`
		FROM models
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list training jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]models.TrainingJob, 0)
	for rows.Next() {
		job, err := scanTrainingJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (d *DatabaseClient) GetTrainingJob(ctx context.Context, id int64, userID uuid.UUID) (*models.TrainingJob, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+trainingJobColumns+`
		FROM models
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	job, err := scanTrainingJob(row)
	if err != nil {
		return nil, notFound("training job", err)
	}
	return job, nil
}

// GetJobByTrainingID looks a job up by the provider's training run id.
func (d *DatabaseClient) GetJobByTrainingID(ctx context.Context, trainingID string) (*models.TrainingJob, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+trainingJobColumns+`
		FROM models
		WHERE training_id = $1
	`, trainingID)
	job, err := scanTrainingJob(row)
	if err != nil {
		return nil, notFound("training job", err)
	}
	return job, nil
}

// GetJobByModelName returns the newest job of a user with that model name.
func (d *DatabaseClient) GetJobByModelName(ctx context.Context, userID uuid.UUID, modelName string) (*models.TrainingJob, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+trainingJobColumns+`
		FROM models
		WHERE user_id = $1 AND model_name = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, modelName)
	job, err := scanTrainingJob(row)
	if err != nil {
		return nil, notFound("training job", err)
	}
	return job, nil
}

// GetJobByModelID returns a user's job for a provider model id.
func (d *DatabaseClient) GetJobByModelID(ctx context.Context, userID uuid.UUID, modelID string) (*models.TrainingJob, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+trainingJobColumns+`
		FROM models
		WHERE user_id = $1 AND model_id = $2
	`, userID, modelID)
	job, err := scanTrainingJob(row)
	if err != nil {
		return nil, notFound("training job", err)
	}
	return job, nil
}

// ListPendingJobs returns every job that has not reached a terminal status.
func (d *DatabaseClient) ListPendingJobs(ctx context.Context) ([]models.TrainingJob, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+trainingJobColumns+`
		FROM models
		WHERE training_status <> ALL($1) AND training_id <> ''
		ORDER BY created_at
	`, terminalStatuses())
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]models.TrainingJob, 0)
	for rows.Next() {
		job, err := scanTrainingJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func statusArray(statuses []models.TrainingStatus) pq.StringArray {
	out := make(pq.StringArray, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// TransitionTrainingJob applies outcome only while the job's current status
// may move to outcome.Status: terminal jobs never change and progress never
// goes backwards. It reports whether this call performed the transition.
func (d *DatabaseClient) TransitionTrainingJob(ctx context.Context, id int64, outcome models.TrainingOutcome) (bool, error) {
	sources := models.TransitionSources(outcome.Status)
	if len(sources) == 0 {
		return false, nil
	}

	var trainingTime sql.NullFloat64
	if outcome.TrainingTime != nil {
		trainingTime = sql.NullFloat64{Float64: *outcome.TrainingTime, Valid: true}
	}

	res, err := d.db.ExecContext(ctx, `
		UPDATE models
		SET training_status = $2,
			version = COALESCE(NULLIF($3, ''), version),
			training_time = COALESCE($4, training_time)
		WHERE id = $1 AND training_status = ANY($5)
	`, id, string(outcome.Status), outcome.Version, trainingTime, statusArray(sources))
	if err != nil {
		return false, fmt.Errorf("failed to update training job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

func (d *DatabaseClient) DeleteTrainingJob(ctx context.Context, id int64, userID uuid.UUID) error {
	res, err := d.db.ExecContext(ctx, `
		DELETE FROM models
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete training job: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.E(apperr.NotFound, "training job not found")
	}
	return nil
}

const imageColumns = `id, user_id, model, prompt, guidance, num_inference_steps, aspect_ratio,
	output_format, image_name, width, height, created_at`

func scanImage(row rowScanner) (*models.GeneratedImage, error) {
	var img models.GeneratedImage
	err := row.Scan(
		&img.ID, &img.UserID, &img.Model, &img.Prompt, &img.Guidance, &img.NumInferenceSteps,
		&img.AspectRatio, &img.OutputFormat, &img.ImageName, &img.Width, &img.Height, &img.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (d *DatabaseClient) CreateGeneratedImage(ctx context.Context, img *models.GeneratedImage) error {
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO generated_images (user_id, model, prompt, guidance, num_inference_steps,
			aspect_ratio, output_format, image_name, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, img.UserID, img.Model, img.Prompt, img.Guidance, img.NumInferenceSteps,
		img.AspectRatio, img.OutputFormat, img.ImageName, img.Width, img.Height,
	).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create generated image: %w", err)
	}
	return nil
}

func (d *DatabaseClient) ListImages(ctx context.Context, userID uuid.UUID) ([]models.GeneratedImage, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+imageColumns+`
		FROM generated_images
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	images := make([]models.GeneratedImage, 0)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

func (d *DatabaseClient) GetImage(ctx context.Context, id int64, userID uuid.UUID) (*models.GeneratedImage, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+imageColumns+`
		FROM generated_images
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	img, err := scanImage(row)
	if err != nil {
		return nil, notFound("image", err)
	}
	return img, nil
}

func (d *DatabaseClient) DeleteImage(ctx context.Context, id int64, userID uuid.UUID) error {
	res, err := d.db.ExecContext(ctx, `
		DELETE FROM generated_images
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.E(apperr.NotFound, "image not found")
	}
	return nil
}

func (d *DatabaseClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
