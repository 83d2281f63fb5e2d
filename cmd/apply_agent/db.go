package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/types"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the profile and application database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables if they do not exist",
	Args:  cobra.NoArgs,
	RunE:  runDBMigrate,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage stored user profiles",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the user information a profile resolves to",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Store a user info JSON file as a profile",
	Long: `Reads a flat user info JSON object and stores it under --user-id. Well-known keys
(full_name, email, phone, resume_url, linkedin_url, github_url, portfolio_url) become
profile columns; every other key becomes a custom field.`,
	Args: cobra.NoArgs,
	RunE: runProfileImport,
}

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "List recorded application attempts",
	Args:  cobra.NoArgs,
	RunE:  runApplications,
}

var (
	dbURL         string
	profileUserID string
	profileInfo   string
	appsUserID    string
	appsStatus    string
	appsLimit     int
	appsResponses bool
)

func init() {
	for _, c := range []*cobra.Command{dbCmd, profileCmd, applicationsCmd} {
		c.PersistentFlags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection URL (defaults to database_url from config)")
	}

	profileCmd.PersistentFlags().StringVar(&profileUserID, "user-id", "", "Profile UUID (required)")
	_ = profileCmd.MarkPersistentFlagRequired("user-id")
	profileImportCmd.Flags().StringVarP(&profileInfo, "user-info", "u", "", "Path to a JSON object of your information (required)")
	_ = profileImportCmd.MarkFlagRequired("user-info")

	applicationsCmd.Flags().StringVar(&appsUserID, "user-id", "", "Only attempts by this profile")
	applicationsCmd.Flags().StringVar(&appsStatus, "status", "", "Only attempts with this status: pending, filled, submitted or failed")
	applicationsCmd.Flags().IntVar(&appsLimit, "limit", db.DefaultListLimit, "Maximum attempts to list")
	applicationsCmd.Flags().BoolVar(&appsResponses, "responses", false, "Include the values sent with each attempt")

	dbCmd.AddCommand(dbMigrateCmd)
	profileCmd.AddCommand(profileShowCmd, profileImportCmd)
	rootCmd.AddCommand(dbCmd, profileCmd, applicationsCmd)
}

func connectDB(ctx context.Context) (*db.DB, error) {
	url := cfg.DatabaseURL
	overrideString(&url, dbURL)
	if url == "" {
		return nil, fmt.Errorf("database URL required: pass --db-url or set database_url")
	}
	return db.Connect(ctx, url)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runDBMigrate(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	database, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Database schema is up to date")
	return nil
}

func runProfileShow(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	userID, err := uuid.Parse(profileUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}

	database, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	info, err := database.LoadUserInfo(ctx, userID)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), info)
}

func runProfileImport(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	userID, err := uuid.Parse(profileUserID)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}
	info, err := readUserInfo(profileInfo)
	if err != nil {
		return err
	}
	profile, custom := splitUserInfo(userID, info)
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	database, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.UpsertProfile(ctx, profile); err != nil {
		return err
	}
	for _, f := range custom {
		if _, err := database.SetCustomField(ctx, userID, f.FieldName, f.FieldValue); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored profile %s with %d custom fields\n", userID, len(custom))
	return nil
}

// splitUserInfo is the inverse of types.MergeUserInfo. Custom fields are sorted by name.
func splitUserInfo(userID uuid.UUID, info types.UserInfo) (*types.Profile, []types.CustomField) {
	profile := &types.Profile{UserID: userID}
	columns := map[string]*string{
		"full_name":     &profile.FullName,
		"email":         &profile.Email,
		"phone":         &profile.Phone,
		"resume_url":    &profile.ResumeURL,
		"linkedin_url":  &profile.LinkedInURL,
		"github_url":    &profile.GitHubURL,
		"portfolio_url": &profile.PortfolioURL,
	}

	custom := []types.CustomField{}
	for key, value := range info {
		if dst, ok := columns[key]; ok {
			*dst = value
			continue
		}
		custom = append(custom, types.CustomField{UserID: userID, FieldName: key, FieldValue: value})
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i].FieldName < custom[j].FieldName })
	return profile, custom
}

func runApplications(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	filters, err := applicationFilters(appsUserID, appsStatus, appsLimit)
	if err != nil {
		return err
	}

	database, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	apps, err := database.ListApplications(ctx, filters)
	if err != nil {
		return err
	}
	if !appsResponses {
		return writeJSON(cmd.OutOrStdout(), apps)
	}

	type withResponses struct {
		db.Application
		Responses []types.ApplicationResponse `json:"responses"`
	}
	out := make([]withResponses, 0, len(apps))
	for _, app := range apps {
		responses, err := database.ListResponses(ctx, app.ID)
		if err != nil {
			return err
		}
		out = append(out, withResponses{Application: app, Responses: responses})
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func applicationFilters(userID, status string, limit int) (db.ApplicationFilters, error) {
	var filters db.ApplicationFilters
	if userID != "" {
		id, err := uuid.Parse(userID)
		if err != nil {
			return filters, fmt.Errorf("invalid user ID: %w", err)
		}
		filters.UserID = id
	}
	switch s := types.ApplicationStatus(status); s {
	case "", types.StatusPending, types.StatusFilled, types.StatusSubmitted, types.StatusFailed:
		filters.Status = s
	default:
		return filters, fmt.Errorf("unknown status %q", status)
	}
	if limit < 0 {
		return filters, fmt.Errorf("--limit must be non-negative")
	}
	filters.Limit = limit
	return filters, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
