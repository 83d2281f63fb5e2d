package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/db"
	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/types"
)

// readUserInfo loads a flat JSON object of user information. Non-string values are
// kept in their JSON text form and empty values are dropped.
func readUserInfo(path string) (types.UserInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user info %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse user info %s: %w", path, err)
	}

	info := types.UserInfo{}
	for key, value := range raw {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			s = string(value)
			if s == "null" {
				continue
			}
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		info[key] = s
	}
	return info, nil
}

// userInfoSource resolves user information from a file or the profile store.
// The returned database is nil unless one is configured; the caller closes it.
func userInfoSource(ctx context.Context, c *config.Config) (types.UserInfo, *db.DB, error) {
	var database *db.DB
	if c.DatabaseURL != "" {
		var err error
		database, err = db.Connect(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
	}

	switch {
	case c.UserInfo != "":
		info, err := readUserInfo(c.UserInfo)
		if err != nil {
			closeDB(database)
			return nil, nil, err
		}
		return info, database, nil
	case c.UserID != "":
		if database == nil {
			return nil, nil, fmt.Errorf("--user-id requires --db-url")
		}
		id, err := uuid.Parse(c.UserID)
		if err != nil {
			closeDB(database)
			return nil, nil, fmt.Errorf("invalid user ID: %w", err)
		}
		info, err := database.LoadUserInfo(ctx, id)
		if err != nil {
			closeDB(database)
			return nil, nil, err
		}
		return info, database, nil
	default:
		closeDB(database)
		return nil, nil, fmt.Errorf("user information required: pass --user-info or --user-id")
	}
}

func closeDB(d *db.DB) {
	if d != nil {
		d.Close()
	}
}

func newLLMClient(ctx context.Context, c *config.Config) (llm.Client, error) {
	llmCfg, err := c.LLMConfig()
	if err != nil {
		return nil, err
	}
	apiKey, err := c.ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	return llm.NewClient(ctx, llmCfg, apiKey)
}

func newLauncher(c *config.Config, l zerolog.Logger) browser.Launcher {
	opts := browser.DefaultChromeOptions()
	opts.Headless = !c.Headed
	opts.ExecPath = c.ChromePath
	opts.Logger = l
	return browser.NewChromeLauncher(opts)
}

// overrideString replaces dst when the flag value is set.
func overrideString(dst *string, flagValue string) {
	if flagValue != "" {
		*dst = flagValue
	}
}
