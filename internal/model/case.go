package model

import (
	"time"

	"github.com/google/uuid"
)

type CaseStatus string

const (
	CaseStatusOpen      CaseStatus = "open"
	CaseStatusClosed    CaseStatus = "closed"
	CaseStatusCancelled CaseStatus = "cancelled"
)

// Case is one run of a workflow. Data accumulates the values produced by
// processed steps (vehicle_id, lease_id, ...).
type Case struct {
	Base
	CaseNo      string         `json:"case_no"`
	CaseType    string         `json:"case_type"`
	Status      CaseStatus     `json:"status"`
	CurrentStep string         `json:"current_step"`
	Data        map[string]any `json:"data"`
	CreatedBy   *string        `json:"created_by"`
}

// CaseStep is the audit record of a processed step.
type CaseStep struct {
	ID          uuid.UUID      `json:"id"`
	CaseID      uuid.UUID      `json:"case_id"`
	StepID      string         `json:"step_id"`
	Payload     map[string]any `json:"payload"`
	ProcessedBy *string        `json:"processed_by"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// StringData reads a string value from the case data.
func (c *Case) StringData(key string) string {
	if c.Data == nil {
		return ""
	}
	v, _ := c.Data[key].(string)
	return v
}
