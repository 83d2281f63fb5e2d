package types

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Profile is the structured part of a user's application data.
type Profile struct {
	UserID       uuid.UUID `json:"user_id"`
	FullName     string    `json:"full_name,omitempty" validate:"omitempty,min=1"`
	Email        string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string    `json:"phone,omitempty"`
	ResumeURL    string    `json:"resume_url,omitempty" validate:"omitempty,url"`
	LinkedInURL  string    `json:"linkedin_url,omitempty" validate:"omitempty,url"`
	GitHubURL    string    `json:"github_url,omitempty" validate:"omitempty,url"`
	PortfolioURL string    `json:"portfolio_url,omitempty" validate:"omitempty,url"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// CustomField is a user-defined key/value added to the profile ("Availability Date" → "2025-04-01").
type CustomField struct {
	ID         uuid.UUID `json:"id,omitempty"`
	UserID     uuid.UUID `json:"user_id,omitempty"`
	FieldName  string    `json:"field_name" validate:"required"`
	FieldValue string    `json:"field_value"`
}

var validate = validator.New()

// Validate checks the profile's email and URL formats.
func (p *Profile) Validate() error {
	return validate.Struct(p)
}

// MergeUserInfo flattens a profile and its custom fields into a UserInfo map.
// Empty profile values are dropped; custom field names are lower-cased and
// override profile keys of the same name.
func MergeUserInfo(profile *Profile, custom []CustomField) UserInfo {
	info := UserInfo{}
	if profile != nil {
		set := func(key, value string) {
			if strings.TrimSpace(value) != "" {
				info[key] = value
			}
		}
		set("full_name", profile.FullName)
		set("email", profile.Email)
		set("phone", profile.Phone)
		set("resume_url", profile.ResumeURL)
		set("linkedin_url", profile.LinkedInURL)
		set("github_url", profile.GitHubURL)
		set("portfolio_url", profile.PortfolioURL)
	}

	for _, field := range custom {
		name := strings.ToLower(strings.TrimSpace(field.FieldName))
		if name == "" {
			continue
		}
		info[name] = field.FieldValue
	}

	return info
}
