package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imaginx-backend/internal/models"
	"imaginx-backend/internal/replicate"
	"imaginx-backend/internal/services"
)

const trainer = "ostris/flux-dev-lora-trainer"

func newSync(f *reconcilerFixture, provider *fakeProvider) *services.TrainingSync {
	return services.NewTrainingSync(provider, f.store, f.r, testPolicy(), trainer, time.Minute, discard)
}

func TestSyncOnce_TransitionsTerminalTrainings(t *testing.T) {
	f := newReconcilerFixture(t)
	provider := &fakeProvider{listPages: []replicate.TrainingPage{
		{Next: "page-1", Results: []replicate.Training{
			{ID: "tr_other", Model: trainer, Status: "processing"},
		}},
		{Results: []replicate.Training{*decodeTraining(t, succeededPayload)}},
	}}

	report, err := newSync(f, provider).SyncOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pending)
	assert.Equal(t, 1, report.Transitioned)
	assert.Equal(t, 1, report.Orphans)

	job := f.store.get(f.job.ID)
	assert.Equal(t, models.TrainingSucceeded, job.TrainingStatus)
	assert.Equal(t, "abc123", job.Version.String)
	assert.Equal(t, 1, f.notifier.count())
	assert.Len(t, f.storage.removed, 1)
}

func TestSyncOnce_FetchesTrainingsMissingFromList(t *testing.T) {
	f := newReconcilerFixture(t)
	provider := &fakeProvider{getTrainings: map[string]*replicate.Training{
		"tr_1": decodeTraining(t, `{"id":"tr_1","model":"ostris/flux-dev-lora-trainer","status":"failed"}`),
	}}

	report, err := newSync(f, provider).SyncOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Transitioned)
	assert.Zero(t, report.Orphans)
	assert.Equal(t, models.TrainingFailed, f.store.get(f.job.ID).TrainingStatus)
}

func TestSyncOnce_LeavesRunningJobsAlone(t *testing.T) {
	f := newReconcilerFixture(t)
	provider := &fakeProvider{listPages: []replicate.TrainingPage{
		{Results: []replicate.Training{{ID: "tr_1", Model: trainer, Status: "processing"}}},
	}}

	report, err := newSync(f, provider).SyncOnce(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Transitioned)
	assert.Equal(t, models.TrainingStarting, f.store.get(f.job.ID).TrainingStatus)
	assert.Zero(t, f.notifier.count())
}

func TestSyncOnce_AfterWebhookIsDuplicate(t *testing.T) {
	f := newReconcilerFixture(t)
	_, err := f.r.HandleTrainingCallback(context.Background(), callbackFor(f), decodeTraining(t, succeededPayload))
	require.NoError(t, err)

	provider := &fakeProvider{listPages: []replicate.TrainingPage{
		{Results: []replicate.Training{*decodeTraining(t, succeededPayload)}},
	}}
	report, err := newSync(f, provider).SyncOnce(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Pending)
	assert.Zero(t, report.Transitioned)
	assert.Zero(t, report.Orphans)
	assert.Equal(t, 1, f.notifier.count())
}

func TestSyncOnce_IgnoresOtherModelsWhenCountingOrphans(t *testing.T) {
	f := newReconcilerFixture(t)
	provider := &fakeProvider{listPages: []replicate.TrainingPage{
		{Results: []replicate.Training{
			{ID: "tr_x", Model: "someone/else", Status: "succeeded"},
			{ID: "tr_y", Model: trainer, Status: "succeeded"},
		}},
	}}

	report, err := newSync(f, provider).SyncOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Orphans)
}
