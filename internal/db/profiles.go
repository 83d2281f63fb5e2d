package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/apply-agent/internal/types"
)

// -----------------------------------------------------------------------------
// Profile Methods
// -----------------------------------------------------------------------------

// UpsertProfile creates or replaces the profile of profile.UserID
func (db *DB) UpsertProfile(ctx context.Context, profile *types.Profile) error {
	if profile.UserID == uuid.Nil {
		return fmt.Errorf("profile user ID is required")
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO profiles (user_id, full_name, email, phone, resume_url, linkedin_url, github_url, portfolio_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id) DO UPDATE SET
		     full_name = $2, email = $3, phone = $4, resume_url = $5,
		     linkedin_url = $6, github_url = $7, portfolio_url = $8, updated_at = NOW()
		 RETURNING created_at, updated_at`,
		profile.UserID, profile.FullName, profile.Email, profile.Phone,
		profile.ResumeURL, profile.LinkedInURL, profile.GitHubURL, profile.PortfolioURL,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by user ID. A missing profile returns nil, nil.
func (db *DB) GetProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	var p types.Profile
	err := db.pool.QueryRow(ctx,
		`SELECT user_id, full_name, email, phone, resume_url, linkedin_url, github_url, portfolio_url,
		        created_at, updated_at
		 FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.FullName, &p.Email, &p.Phone, &p.ResumeURL, &p.LinkedInURL,
		&p.GitHubURL, &p.PortfolioURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// DeleteProfile deletes a profile and its custom fields (via cascade)
func (db *DB) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile not found: %s", userID)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Custom Field Methods
// -----------------------------------------------------------------------------

// SetCustomField creates or updates one custom field. Names are stored lower-cased.
func (db *DB) SetCustomField(ctx context.Context, userID uuid.UUID, name, value string) (*types.CustomField, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("custom field name is required")
	}

	field := types.CustomField{UserID: userID, FieldName: name, FieldValue: value}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO user_custom_fields (user_id, field_name, field_value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, field_name) DO UPDATE SET field_value = $3
		 RETURNING id`,
		userID, name, value,
	).Scan(&field.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to set custom field %s: %w", name, err)
	}
	return &field, nil
}

// ListCustomFields retrieves the custom fields of a user ordered by name
func (db *DB) ListCustomFields(ctx context.Context, userID uuid.UUID) ([]types.CustomField, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, field_name, field_value
		 FROM user_custom_fields WHERE user_id = $1 ORDER BY field_name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom fields: %w", err)
	}
	defer rows.Close()

	var fields []types.CustomField
	for rows.Next() {
		var f types.CustomField
		if err := rows.Scan(&f.ID, &f.UserID, &f.FieldName, &f.FieldValue); err != nil {
			return nil, fmt.Errorf("failed to scan custom field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// DeleteCustomField removes one custom field by name
func (db *DB) DeleteCustomField(ctx context.Context, userID uuid.UUID, name string) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM user_custom_fields WHERE user_id = $1 AND field_name = $2`,
		userID, strings.ToLower(strings.TrimSpace(name)),
	)
	if err != nil {
		return fmt.Errorf("failed to delete custom field: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("custom field not found: %s", name)
	}
	return nil
}

// LoadUserInfo builds the user information map of a user from the profile and
// its custom fields. A user without a profile is an error.
func (db *DB) LoadUserInfo(ctx context.Context, userID uuid.UUID) (types.UserInfo, error) {
	profile, err := db.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("profile not found: %s", userID)
	}
	fields, err := db.ListCustomFields(ctx, userID)
	if err != nil {
		return nil, err
	}
	return types.MergeUserInfo(profile, fields), nil
}
