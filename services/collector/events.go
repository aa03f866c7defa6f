package collector

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Stage names the phases of a collection run. Transitions only ever
// move forward; a run terminates in exactly one of the terminal stages.
type Stage string

const (
	StageStarting            Stage = "starting"
	StageFetchingActivities  Stage = "fetching-activities"
	StageActivitiesCollected Stage = "activities-collected"
	StageLoadingDetails      Stage = "loading-details"
	StageLoadingRoster       Stage = "loading-roster"
	StageFinalizing          Stage = "finalizing"

	StageComplete        Stage = "complete"
	StageNoNewActivities Stage = "no-new-activities"
	StageError           Stage = "error"
)

func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageNoNewActivities || s == StageError
}

const (
	ErrorKindAuth    = "auth"
	ErrorKindGeneric = "generic"
)

type ProgressEvent struct {
	RunID     string    `json:"runId"`
	Stage     Stage     `json:"stage"`
	Total     int       `json:"total,omitempty"`
	Completed int       `json:"completed"`
	Message   string    `json:"message,omitempty"`
	Time      time.Time `json:"time"`
}

type Summary struct {
	ActivityCount int       `json:"activityCount"`
	LastUpdated   time.Time `json:"lastUpdated"`
	NewActivities int       `json:"newActivities"`
}

type ResultEvent struct {
	RunID     string    `json:"runId"`
	Stage     Stage     `json:"stage"`
	ErrorKind string    `json:"errorKind,omitempty"`
	Error     string    `json:"error,omitempty"`
	Summary   Summary   `json:"summary"`
	Time      time.Time `json:"time"`
}

func ProgressSubject(runID string) string {
	return fmt.Sprintf("collector.run.%s.progress", runID)
}

func ResultSubject(runID string) string {
	return fmt.Sprintf("collector.run.%s.result", runID)
}

// RunSubjects matches both event streams of a run, for subscribers.
func RunSubjects(runID string) string {
	return fmt.Sprintf("collector.run.%s.*", runID)
}

// publisher fans run events out over NATS. Publish failures are logged
// and swallowed: losing a progress event must not fail the run itself.
type publisher struct {
	nc    *nats.Conn
	runID string
	now   func() time.Time
}

func (p publisher) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("failed to marshal run event", "run_id", p.runID, "err", err)
		return
	}
	err = p.nc.Publish(subject, data)
	if err != nil {
		slog.Warn("failed to publish run event", "run_id", p.runID, "subject", subject, "err", err)
	}
}

func (p publisher) progress(stage Stage, total, completed int, message string) {
	p.publish(ProgressSubject(p.runID), ProgressEvent{
		RunID:     p.runID,
		Stage:     stage,
		Total:     total,
		Completed: completed,
		Message:   message,
		Time:      p.now(),
	})
}

func (p publisher) result(ev ResultEvent) {
	ev.RunID = p.runID
	ev.Time = p.now()
	p.publish(ResultSubject(p.runID), ev)
}
