package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/apply-agent/internal/types"
)

// -----------------------------------------------------------------------------
// Application Log Methods
// -----------------------------------------------------------------------------

// CreateApplication inserts a pending application. userID may be uuid.Nil.
func (db *DB) CreateApplication(ctx context.Context, id, userID uuid.UUID, jobURL string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO job_applications (id, user_id, job_url, status)
		 VALUES ($1, $2, $3, $4)`,
		id, nullableUUID(userID), jobURL, types.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// CompleteApplication sets the final status and stores the sent field values in
// one transaction.
func (db *DB) CompleteApplication(ctx context.Context, id uuid.UUID, status types.ApplicationStatus, responses []types.ApplicationResponse) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx,
		`UPDATE job_applications SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete application: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", id)
	}

	if len(responses) > 0 {
		batch := &pgx.Batch{}
		for _, r := range responses {
			batch.Queue(
				`INSERT INTO job_application_responses (application_id, field_name, field_value)
				 VALUES ($1, $2, $3)`,
				id, r.FieldName, r.FieldValue,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to record responses: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit application: %w", err)
	}
	return nil
}

// GetApplication retrieves an application by ID. A missing row returns nil, nil.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	var a Application
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, job_url, status, created_at, completed_at
		 FROM job_applications WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.UserID, &a.JobURL, &a.Status, &a.CreatedAt, &a.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &a, nil
}

// ListApplications retrieves recent applications with optional filters
func (db *DB) ListApplications(ctx context.Context, filters ApplicationFilters) ([]Application, error) {
	query, args := listApplicationsQuery(filters)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var a Application
		if err := rows.Scan(&a.ID, &a.UserID, &a.JobURL, &a.Status, &a.CreatedAt, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func listApplicationsQuery(filters ApplicationFilters) (string, []any) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultListLimit
	}

	query := `SELECT id, user_id, job_url, status, created_at, completed_at
		FROM job_applications WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.UserID != uuid.Nil {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, filters.UserID)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)
	return query, args
}

// ListResponses retrieves the field values sent with one application
func (db *DB) ListResponses(ctx context.Context, applicationID uuid.UUID) ([]types.ApplicationResponse, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT application_id, field_name, field_value
		 FROM job_application_responses WHERE application_id = $1`,
		applicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var out []types.ApplicationResponse
	for rows.Next() {
		var r types.ApplicationResponse
		if err := rows.Scan(&r.ApplicationID, &r.FieldName, &r.FieldValue); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Recorder logs form-fill attempts of one user.
type Recorder struct {
	db     *DB
	userID uuid.UUID
}

// Recorder returns a recorder attributing attempts to userID (uuid.Nil for none).
func (db *DB) Recorder(userID uuid.UUID) *Recorder {
	return &Recorder{db: db, userID: userID}
}

// CreateApplication records the start of an attempt.
func (r *Recorder) CreateApplication(ctx context.Context, id uuid.UUID, url string) error {
	return r.db.CreateApplication(ctx, id, r.userID, url)
}

// CompleteApplication records the outcome of an attempt.
func (r *Recorder) CompleteApplication(ctx context.Context, id uuid.UUID, status types.ApplicationStatus, responses []types.ApplicationResponse) error {
	return r.db.CompleteApplication(ctx, id, status, responses)
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
