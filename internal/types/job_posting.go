package types

import "github.com/google/uuid"

// JobPosting is a candidate job saved by the career-page search.
type JobPosting struct {
	Title    string  `json:"title" validate:"required"`
	Company  string  `json:"company" validate:"required"`
	Link     string  `json:"link" validate:"required,url"`
	FitScore float64 `json:"fit_score" validate:"gte=0,lte=1"`
	Location string  `json:"location,omitempty"`
	Salary   string  `json:"salary,omitempty"`
}

// Validate checks required fields and the fit score range.
func (j *JobPosting) Validate() error {
	return validate.Struct(j)
}

// CSVRecord returns the posting in jobs.csv column order: title, company, link, salary, location.
func (j *JobPosting) CSVRecord() []string {
	return []string{j.Title, j.Company, j.Link, j.Salary, j.Location}
}

// ApplicationStatus is the lifecycle state of one form-fill attempt.
type ApplicationStatus string

const (
	// StatusPending is an attempt that has not completed
	StatusPending ApplicationStatus = "pending"
	// StatusFilled is an attempt whose form was filled but not submitted
	StatusFilled ApplicationStatus = "filled"
	// StatusSubmitted is an attempt whose submit control was clicked
	StatusSubmitted ApplicationStatus = "submitted"
	// StatusFailed is an attempt aborted before filling
	StatusFailed ApplicationStatus = "failed"
)

// ApplicationResponse is one field value sent as part of an application.
type ApplicationResponse struct {
	ApplicationID uuid.UUID `json:"application_id"`
	FieldName     string    `json:"field_name"`
	FieldValue    string    `json:"field_value"`
}
