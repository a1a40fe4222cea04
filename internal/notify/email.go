package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"imaginx-backend/internal/models"
)

// TrainingNotification announces a terminal training status to its owner.
type TrainingNotification struct {
	To         models.UserContact
	ModelName  string
	TrainingID string
	Status     models.TrainingStatus
}

func (n TrainingNotification) Subject() string {
	switch n.Status {
	case models.TrainingSucceeded:
		return "Model training completed"
	case models.TrainingCanceled:
		return "Model training canceled"
	default:
		return "Model training failed"
	}
}

func (n TrainingNotification) Message() string {
	switch n.Status {
	case models.TrainingSucceeded:
		return fmt.Sprintf("Your model %s has been trained successfully and is ready to generate images.", n.ModelName)
	case models.TrainingCanceled:
		return fmt.Sprintf("Training of your model %s was canceled.", n.ModelName)
	default:
		return fmt.Sprintf("Training of your model %s failed. Please check your training data and try again.", n.ModelName)
	}
}

// IdempotencyKey is stable per training run and status so a retried send
// never produces a second email.
func (n TrainingNotification) IdempotencyKey() string {
	return fmt.Sprintf("training-%s-%s", n.TrainingID, n.Status)
}

var trainingTemplate = template.Must(template.New("training").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; color: #333">
  <div style="border-bottom: 1px solid #eaeaea; padding-bottom: 20px; margin-bottom: 20px">
    <h1 style="color: #4a6baf; margin-bottom: 5px">ImaginX AI</h1>
    <p style="color: #666; margin: 0">AI Model Training Notification</p>
  </div>
  <h2 style="color: #4a6baf">Hello {{.UserName}},</h2>
  <div style="background-color: #f9f9f9; padding: 15px; border-radius: 5px; margin: 20px 0">
    <p style="margin: 0">{{.Message}}</p>
  </div>
  <p style="margin-bottom: 20px">Thank you for using our services. If you have any questions, please don't hesitate to contact us.</p>
  <div style="border-top: 1px solid #eaeaea; padding-top: 20px; margin-top: 20px; color: #666">
    <p style="margin: 5px 0">Best regards,</p>
    <p style="margin: 5px 0; font-weight: bold">The ImaginX AI Team</p>
  </div>
</div>`))

func RenderTraining(n TrainingNotification) (string, error) {
	var buf bytes.Buffer
	err := trainingTemplate.Execute(&buf, struct {
		UserName string
		Message  string
	}{n.To.DisplayName(), n.Message()})
	if err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

type EmailNotifier struct {
	emails resend.EmailsSvc
	from   string
	logger zerolog.Logger
}

func NewEmailNotifier(apiKey, from string, logger zerolog.Logger) *EmailNotifier {
	return NewEmailNotifierWithService(resend.NewClient(apiKey).Emails, from, logger)
}

func NewEmailNotifierWithService(emails resend.EmailsSvc, from string, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		emails: emails,
		from:   from,
		logger: logger.With().Str("component", "email").Logger(),
	}
}

func (e *EmailNotifier) NotifyTraining(ctx context.Context, n TrainingNotification) error {
	if n.To.Email == "" {
		return fmt.Errorf("user %s has no email address", n.To.ID)
	}

	html, err := RenderTraining(n)
	if err != nil {
		return err
	}

	resp, err := e.emails.SendWithOptions(ctx, &resend.SendEmailRequest{
		From:    e.from,
		To:      []string{n.To.Email},
		Subject: n.Subject(),
		Html:    html,
		Text:    fmt.Sprintf("Hello %s,\n\n%s\n\nThe ImaginX AI Team", n.To.DisplayName(), n.Message()),
		Tags: []resend.Tag{
			{Name: "category", Value: "training"},
			{Name: "status", Value: string(n.Status)},
		},
	}, &resend.SendEmailOptions{IdempotencyKey: n.IdempotencyKey()})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	e.logger.Info().
		Str("email_id", resp.Id).
		Str("training_id", n.TrainingID).
		Str("status", string(n.Status)).
		Msg("training notification sent")
	return nil
}

// LogNotifier only logs; it is used when no email provider is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "email").Logger()}
}

func (l *LogNotifier) NotifyTraining(ctx context.Context, n TrainingNotification) error {
	l.logger.Warn().
		Str("user_id", n.To.ID.String()).
		Str("training_id", n.TrainingID).
		Str("status", string(n.Status)).
		Msg("email disabled, notification not sent")
	return nil
}
