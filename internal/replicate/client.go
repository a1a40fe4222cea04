package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL      string
	apiToken     string
	httpClient   *http.Client
	backoffs     []time.Duration
	pollInterval time.Duration
	maxDownload  int64
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoff overrides the delays between retry attempts.
func WithBackoff(backoffs ...time.Duration) Option {
	return func(c *Client) { c.backoffs = backoffs }
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithMaxDownload overrides MaxDownloadSize.
func WithMaxDownload(n int64) Option {
	return func(c *Client) { c.maxDownload = n }
}

func NewClient(baseURL, apiToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		backoffs:     []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		pollInterval: 2 * time.Second,
		maxDownload:  MaxDownloadSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Title      string `json:"title"`
	Detail     string `json:"detail"`
	Body       string `json:"-"`
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Title
	}
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		return fmt.Sprintf("replicate: status %d", e.StatusCode)
	}
	return fmt.Sprintf("replicate: status %d: %s", e.StatusCode, msg)
}

// IsTransient reports whether retrying the same call may succeed.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

type CreateModelRequest struct {
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Visibility  string `json:"visibility"`
	Hardware    string `json:"hardware"`
	Description string `json:"description,omitempty"`
}

type Model struct {
	Owner      string `json:"owner"`
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
	URL        string `json:"url"`
}

type TrainingInput struct {
	Steps       int    `json:"steps"`
	Resolution  string `json:"resolution"`
	InputImages string `json:"input_images"`
	TriggerWord string `json:"trigger_word"`
}

type CreateTrainingRequest struct {
	Destination         string        `json:"destination"`
	Input               TrainingInput `json:"input"`
	Webhook             string        `json:"webhook,omitempty"`
	WebhookEventsFilter []string      `json:"webhook_events_filter,omitempty"`
}

type Metrics struct {
	PredictTime *float64 `json:"predict_time,omitempty"`
	TotalTime   *float64 `json:"total_time,omitempty"`
}

// Training is the training object returned by the API and posted to webhooks.
type Training struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Version string `json:"version"`
	Status  string `json:"status"`
	Output  *struct {
		Version string `json:"version"`
		Weights string `json:"weights"`
	} `json:"output,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	Metrics   *Metrics    `json:"metrics,omitempty"`
	Metric    *Metrics    `json:"metric,omitempty"`
	CreatedAt string      `json:"created_at"`
}

// TotalTime prefers total_time and falls back to predict_time.
func (t *Training) TotalTime() *float64 {
	for _, m := range []*Metrics{t.Metrics, t.Metric} {
		if m == nil {
			continue
		}
		if m.TotalTime != nil {
			return m.TotalTime
		}
		if m.PredictTime != nil {
			return m.PredictTime
		}
	}
	return nil
}

// OutputVersion returns the version part of "owner/name:version".
func (t *Training) OutputVersion() string {
	if t.Output == nil || t.Output.Version == "" {
		return ""
	}
	if _, v, ok := strings.Cut(t.Output.Version, ":"); ok {
		return v
	}
	return t.Output.Version
}

type TrainingPage struct {
	Next    string     `json:"next"`
	Results []Training `json:"results"`
}

type Prediction struct {
	ID     string          `json:"id"`
	Model  string          `json:"model"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  interface{}     `json:"error,omitempty"`
}

func (p *Prediction) Done() bool {
	switch p.Status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

// OutputURLs accepts both a list of URLs and a single URL.
func (p *Prediction) OutputURLs() ([]string, error) {
	if len(p.Output) == 0 || string(p.Output) == "null" {
		return nil, nil
	}
	var urls []string
	if err := json.Unmarshal(p.Output, &urls); err == nil {
		return urls, nil
	}
	var single string
	if err := json.Unmarshal(p.Output, &single); err != nil {
		return nil, fmt.Errorf("failed to decode prediction output: %w", err)
	}
	return []string{single}, nil
}

func errorText(v interface{}) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	default:
		b, _ := json.Marshal(e)
		return string(b)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	endpoint := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		endpoint = c.baseURL + path
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return nil
}

func (c *Client) CreateModel(ctx context.Context, req CreateModelRequest) (*Model, error) {
	var model Model
	if err := c.do(ctx, http.MethodPost, "/models", req, &model, nil); err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	return &model, nil
}

func (c *Client) DeleteModel(ctx context.Context, owner, name string) error {
	path := fmt.Sprintf("/models/%s/%s", url.PathEscape(owner), url.PathEscape(name))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	return nil
}

func (c *Client) DeleteModelVersion(ctx context.Context, owner, name, version string) error {
	path := fmt.Sprintf("/models/%s/%s/versions/%s", url.PathEscape(owner), url.PathEscape(name), url.PathEscape(version))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete model version: %w", err)
	}
	return nil
}

func (c *Client) CreateTraining(ctx context.Context, owner, model, version string, req CreateTrainingRequest) (*Training, error) {
	path := fmt.Sprintf("/models/%s/%s/versions/%s/trainings", url.PathEscape(owner), url.PathEscape(model), url.PathEscape(version))
	var training Training
	if err := c.do(ctx, http.MethodPost, path, req, &training, nil); err != nil {
		return nil, fmt.Errorf("failed to create training: %w", err)
	}
	return &training, nil
}

func (c *Client) GetTraining(ctx context.Context, id string) (*Training, error) {
	var training Training
	if err := c.do(ctx, http.MethodGet, "/trainings/"+url.PathEscape(id), nil, &training, nil); err != nil {
		return nil, fmt.Errorf("failed to get training: %w", err)
	}
	return &training, nil
}

// ListTrainings returns one page; pass the previous page's Next as cursor, "" for the first.
func (c *Client) ListTrainings(ctx context.Context, cursor string) (*TrainingPage, error) {
	path := "/trainings"
	if cursor != "" {
		path = cursor
	}
	var page TrainingPage
	if err := c.do(ctx, http.MethodGet, path, nil, &page, nil); err != nil {
		return nil, fmt.Errorf("failed to list trainings: %w", err)
	}
	return &page, nil
}

// CreatePrediction starts a prediction. model is either "owner/name" for an
// official model or "owner/name:version" for a specific version.
func (c *Client) CreatePrediction(ctx context.Context, model string, input interface{}) (*Prediction, error) {
	headers := map[string]string{"Prefer": "wait"}
	var (
		path string
		body interface{}
	)
	if _, version, ok := strings.Cut(model, ":"); ok {
		path = "/predictions"
		body = map[string]interface{}{"version": version, "input": input}
	} else {
		owner, name, _ := strings.Cut(model, "/")
		path = fmt.Sprintf("/models/%s/%s/predictions", url.PathEscape(owner), url.PathEscape(name))
		body = map[string]interface{}{"input": input}
	}

	var prediction Prediction
	if err := c.do(ctx, http.MethodPost, path, body, &prediction, headers); err != nil {
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}
	return &prediction, nil
}

func (c *Client) GetPrediction(ctx context.Context, id string) (*Prediction, error) {
	var prediction Prediction
	if err := c.do(ctx, http.MethodGet, "/predictions/"+url.PathEscape(id), nil, &prediction, nil); err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return &prediction, nil
}

// Run creates a prediction and polls until it finishes or ctx is done.
func (c *Client) Run(ctx context.Context, model string, input interface{}) (*Prediction, error) {
	prediction, err := c.CreatePrediction(ctx, model, input)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for !prediction.Done() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("prediction %s did not finish: %w", prediction.ID, ctx.Err())
		case <-ticker.C:
		}
		next, err := c.GetPrediction(ctx, prediction.ID)
		if err != nil {
			if IsTransient(err) {
				continue
			}
			return nil, err
		}
		prediction = next
	}

	if prediction.Status != "succeeded" {
		msg := errorText(prediction.Error)
		if msg == "" {
			msg = "prediction " + prediction.Status
		}
		return prediction, fmt.Errorf("prediction %s: %s", prediction.ID, msg)
	}
	return prediction, nil
}

func (c *Client) GetWebhookSecret(ctx context.Context) (string, error) {
	var result struct {
		Key string `json:"key"`
	}
	if err := c.do(ctx, http.MethodGet, "/webhooks/default/secret", nil, &result, nil); err != nil {
		return "", fmt.Errorf("failed to get webhook secret: %w", err)
	}
	if result.Key == "" {
		return "", fmt.Errorf("webhook secret is empty in response")
	}
	return result.Key, nil
}

// MaxDownloadSize bounds a single downloaded artifact.
const MaxDownloadSize = 32 << 20

// ErrDownloadTooLarge is returned when an artifact exceeds MaxDownloadSize.
var ErrDownloadTooLarge = errors.New("replicate: download exceeds size limit")

// DownloadFile fetches a delivery URL. No credentials are sent and the body
// of a failed response is discarded.
func (c *Client) DownloadFile(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxDownload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > c.maxDownload {
		return nil, ErrDownloadTooLarge
	}
	return data, nil
}

// RetryWithBackoff runs fn with the client's backoff schedule.
func (c *Client) RetryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	return Retry(ctx, maxRetries, c.backoffs, fn)
}

// Retry runs fn up to maxRetries times, sleeping between attempts, and stops
// early on success, on a non-transient error, or when ctx is done.
func Retry(ctx context.Context, maxRetries int, backoffs []time.Duration, fn func() error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsTransient(err) {
			return err
		}
		if i == maxRetries-1 {
			break
		}

		var delay time.Duration
		if len(backoffs) > 0 {
			delay = backoffs[len(backoffs)-1]
			if i < len(backoffs) {
				delay = backoffs[i]
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
