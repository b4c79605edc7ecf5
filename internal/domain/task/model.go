package task

import (
	"strings"
	"time"
)

type Status string

const (
	StatusInitializing       Status = "initializing"
	StatusDiscoveringFixture Status = "discovering_fixture"
	StatusScrapingTeams      Status = "scraping_teams"
	StatusScrapingPlayers    Status = "scraping_players"
	StatusBuildingFile       Status = "building_file"
	StatusCompleted          Status = "completed"
	StatusError              Status = "error"
)

const (
	FormatXLSX = "xlsx"

	DefaultMessage = "Starting report generation..."
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Task tracks one asynchronous report job. ResultFilePath is set only once
// the task is completed.
type Task struct {
	ID             string
	Status         Status
	Progress       int
	Message        string
	Format         string
	MatchURL       string
	MatchID        string
	ResultFilePath string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Status         *Status
	Progress       *int
	Message        *string
	MatchURL       *string
	MatchID        *string
	ResultFilePath *string
}

// Phase builds the patch for a pipeline phase transition.
func Phase(status Status, progress int, message string) Patch {
	return Patch{Status: &status, Progress: &progress, Message: &message}
}

// Apply merges the non-nil fields of p into t.
func (p Patch) Apply(t *Task) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Progress != nil {
		t.Progress = clampProgress(*p.Progress)
	}
	if p.Message != nil {
		t.Message = *p.Message
	}
	if p.MatchURL != nil {
		t.MatchURL = *p.MatchURL
	}
	if p.MatchID != nil {
		t.MatchID = *p.MatchID
	}
	if p.ResultFilePath != nil {
		t.ResultFilePath = *p.ResultFilePath
	}
}

func clampProgress(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// DownloadName is the attachment name offered for the task's workbook.
func (t Task) DownloadName() string {
	if id := strings.TrimSpace(t.MatchID); id != "" {
		return "fbref_report_" + id + ".xlsx"
	}
	return "fbref_report_" + t.ID + ".xlsx"
}
