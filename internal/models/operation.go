package models

import "time"

type OperationType string

const (
	OperationTypeCaseGeneration OperationType = "case_generation"
	OperationTypeInterrogation  OperationType = "interrogation"
	OperationTypeImageSynthesis OperationType = "image_synthesis"
	OperationTypeAudioSynthesis OperationType = "audio_synthesis"
)

type OperationStatus string

const (
	OperationStatusProcessing OperationStatus = "processing"
	OperationStatusCompleted  OperationStatus = "completed"
	OperationStatusFailed     OperationStatus = "failed"
)

// Terminal reports whether the status allows no further transitions.
func (s OperationStatus) Terminal() bool {
	return s == OperationStatusCompleted || s == OperationStatusFailed
}

// Operation tracks one unit of long-running background work such as dialogue
// generation or audio synthesis. Once the status is terminal the record must
// not be mutated anymore.
type Operation struct {
	ID        string          `json:"id"`
	Type      OperationType   `json:"type"`
	Status    OperationStatus `json:"status"`
	Progress  int             `json:"progress"`
	Message   string          `json:"message"`
	Result    any             `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	StartTime time.Time       `json:"startTime"`
	EndTime   *time.Time      `json:"endTime,omitempty"`
}
