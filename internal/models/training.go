package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// TrainingStatus mirrors the provider's training status strings.
type TrainingStatus string

const (
	TrainingStarting   TrainingStatus = "starting"
	TrainingProcessing TrainingStatus = "processing"
	TrainingSubmitted  TrainingStatus = "submitted"
	TrainingSucceeded  TrainingStatus = "succeeded"
	TrainingFailed     TrainingStatus = "failed"
	TrainingCanceled   TrainingStatus = "canceled"
)

// TerminalStatuses never transition again.
var TerminalStatuses = []TrainingStatus{TrainingSucceeded, TrainingFailed, TrainingCanceled}

func (s TrainingStatus) IsTerminal() bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// progressRank orders the non-terminal statuses.
var progressRank = map[TrainingStatus]int{
	TrainingSubmitted:  0,
	TrainingStarting:   1,
	TrainingProcessing: 2,
}

// IsKnown reports whether s is one of the statuses a job can hold.
func (s TrainingStatus) IsKnown() bool {
	_, ok := progressRank[s]
	return ok || s.IsTerminal()
}

// CanTransitionTo reports whether a job in status s may move to next.
// Terminal statuses never move, and progress never goes backwards.
func (s TrainingStatus) CanTransitionTo(next TrainingStatus) bool {
	if s.IsTerminal() || !next.IsKnown() {
		return false
	}
	if next.IsTerminal() {
		return true
	}
	from, ok := progressRank[s]
	if !ok {
		return false
	}
	return progressRank[next] > from
}

// TransitionSources lists the statuses from which next may be entered.
func TransitionSources(next TrainingStatus) []TrainingStatus {
	out := make([]TrainingStatus, 0, len(progressRank))
	for _, s := range []TrainingStatus{TrainingSubmitted, TrainingStarting, TrainingProcessing} {
		if s.CanTransitionTo(next) {
			out = append(out, s)
		}
	}
	return out
}

type TrainingJob struct {
	ID               int64
	UserID           uuid.UUID
	ModelID          string
	ModelName        string
	Gender           string
	TrainingStatus   TrainingStatus
	TriggerWord      string
	TrainingSteps    int
	TrainingID       string
	Version          sql.NullString
	TrainingTime     sql.NullFloat64
	TrainingDataPath string
	CreatedAt        time.Time
}

// TrainingOutcome is what a terminal (or progress) report changes on a job.
type TrainingOutcome struct {
	Status       TrainingStatus
	Version      string
	TrainingTime *float64
}
