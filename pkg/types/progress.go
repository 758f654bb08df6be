// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ResearchStatus is the phase of a topic research job. The progress
// tracker and the orchestrator share this state machine.
type ResearchStatus string

const (
	StatusIdle                ResearchStatus = "idle"
	StatusResearchingMain     ResearchStatus = "researching_main"
	StatusMainCompleted       ResearchStatus = "main_completed"
	StatusProcessingSubtopics ResearchStatus = "processing_subtopics"
	StatusCompleted           ResearchStatus = "completed"
	StatusError               ResearchStatus = "error"
)

// SubtopicStatus is the per-subtopic processing state.
type SubtopicStatus string

const (
	SubtopicPending   SubtopicStatus = "pending"
	SubtopicRunning   SubtopicStatus = "running"
	SubtopicCompleted SubtopicStatus = "completed"
	SubtopicFailed    SubtopicStatus = "failed"
)

// CompletedStep records one finished phase of a research job.
type CompletedStep struct {
	Phase      ResearchStatus `json:"phase" yaml:"phase"`
	Message    string         `json:"message" yaml:"message"`
	FinishedAt time.Time      `json:"finished_at" yaml:"finished_at"`
}

// SubtopicProgress tracks one subtopic within a research job.
type SubtopicProgress struct {
	SubtopicID string         `json:"subtopic_id" yaml:"subtopic_id"`
	Title      string         `json:"title" yaml:"title"`
	Status     SubtopicStatus `json:"status" yaml:"status"`

	// Progress is in [0,100].
	Progress int `json:"progress" yaml:"progress"`
}

// ResearchProgressData is the polled view of one in-flight topic job.
// An instance exists per job and expires after a completion TTL.
type ResearchProgressData struct {
	Status             ResearchStatus     `json:"status" yaml:"status"`
	CurrentStepIndex   int                `json:"current_step_index" yaml:"current_step_index"`
	StepDetails        string             `json:"step_details" yaml:"step_details"`
	CompletedSteps     []CompletedStep    `json:"completed_steps" yaml:"completed_steps"`
	MainTopicCompleted bool               `json:"main_topic_completed" yaml:"main_topic_completed"`
	SubtopicsProgress  []SubtopicProgress `json:"subtopics_progress" yaml:"subtopics_progress"`

	// OverallProgress is in [0,100]: 70% main topic, 30% mean of
	// subtopic progress.
	OverallProgress int    `json:"overall_progress" yaml:"overall_progress"`
	Error           string `json:"error,omitempty" yaml:"error,omitempty"`

	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
