package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/apply-agent/internal/types"
)

// Application represents a job_applications record
type Application struct {
	ID          uuid.UUID               `json:"id"`
	UserID      *uuid.UUID              `json:"user_id,omitempty"`
	JobURL      string                  `json:"job_url"`
	Status      types.ApplicationStatus `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
}

// IsComplete reports whether the attempt has finished.
func (a *Application) IsComplete() bool {
	return a.CompletedAt != nil
}

// ApplicationFilters holds optional filters for listing applications
type ApplicationFilters struct {
	UserID uuid.UUID
	Status types.ApplicationStatus
	Limit  int
}

// DefaultListLimit is used when ApplicationFilters.Limit is zero.
const DefaultListLimit = 50
