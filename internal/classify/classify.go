// Package classify maps extracted form fields onto user information with an LLM.
package classify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/prompts"
	"github.com/jonathan/apply-agent/internal/schemas"
	"github.com/jonathan/apply-agent/internal/types"
	embedded "github.com/jonathan/apply-agent/schemas"
)

const promptFile = "classify.json"

// Classifier produces a field assignment for one page snapshot.
type Classifier interface {
	Classify(ctx context.Context, fields []types.FieldDescriptor, info types.UserInfo) (*types.FieldAssignment, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, fields []types.FieldDescriptor, info types.UserInfo) (*types.FieldAssignment, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, fields []types.FieldDescriptor, info types.UserInfo) (*types.FieldAssignment, error) {
	return f(ctx, fields, info)
}

// LLMClassifier asks a chat model for the assignment. It holds no state between calls.
type LLMClassifier struct {
	client llm.Client
	tier   llm.ModelTier
	log    zerolog.Logger
}

// Option configures an LLMClassifier.
type Option func(*LLMClassifier)

// WithTier selects the model tier used for classification.
func WithTier(tier llm.ModelTier) Option {
	return func(c *LLMClassifier) { c.tier = tier }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *LLMClassifier) { c.log = log }
}

// New returns a classifier backed by client. Field mapping needs reasoning, so
// the advanced tier is the default.
func New(client llm.Client, opts ...Option) *LLMClassifier {
	c := &LLMClassifier{
		client: client,
		tier:   llm.TierAdvanced,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify sends one chat request and parses the reply. A reply that fails
// validation is returned as *SchemaError; the caller must not fill anything.
func (c *LLMClassifier) Classify(ctx context.Context, fields []types.FieldDescriptor, info types.UserInfo) (*types.FieldAssignment, error) {
	system, user, err := BuildPrompt(fields, info)
	if err != nil {
		return nil, err
	}

	c.log.Debug().Int("fields", len(fields)).Str("model", c.client.GetModel(c.tier)).Msg("classifying form fields")

	raw, err := c.client.Chat(ctx, system, user, c.tier)
	if err != nil {
		return nil, &APICallError{Message: "chat completion failed", Cause: err}
	}

	assignment, err := Parse(raw)
	if err != nil {
		c.log.Error().Err(err).Str("raw", raw).Msg("classifier returned an invalid response")
		return nil, err
	}

	c.log.Info().
		Int("mapped", len(assignment.FieldMapping)).
		Int("files", len(assignment.FileRequirements)).
		Int("unknown", len(assignment.UnknownQuestions)).
		Msg("form fields classified")
	return assignment, nil
}

// BuildPrompt renders the system instruction and the user message.
func BuildPrompt(fields []types.FieldDescriptor, info types.UserInfo) (system, user string, err error) {
	system, template, err := prompts.Chat(promptFile)
	if err != nil {
		return "", "", fmt.Errorf("failed to load classifier prompt: %w", err)
	}

	if info == nil {
		info = types.UserInfo{}
	}
	if fields == nil {
		fields = []types.FieldDescriptor{}
	}
	infoJSON, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to encode user info: %w", err)
	}
	fieldsJSON, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("failed to encode form fields: %w", err)
	}

	user = prompts.Format(template, map[string]string{
		"UserInfo":   string(infoJSON),
		"FormFields": string(fieldsJSON),
	})
	return system, user, nil
}

// Parse validates a raw reply and decodes it. Code fences around the object
// are tolerated; anything else that is not the expected object is a *SchemaError.
func Parse(raw string) (*types.FieldAssignment, error) {
	body := llm.CleanJSONBlock(raw)

	if err := schemas.Validate(embedded.FieldAssignment, body); err != nil {
		return nil, &SchemaError{Raw: raw, Cause: err}
	}

	var assignment types.FieldAssignment
	if err := json.Unmarshal([]byte(body), &assignment); err != nil {
		return nil, &SchemaError{Raw: raw, Cause: err}
	}
	if assignment.FileRequirements == nil {
		assignment.FileRequirements = types.OrderedMapping{}
	}
	if assignment.UnknownQuestions == nil {
		assignment.UnknownQuestions = []string{}
	}
	return &assignment, nil
}
