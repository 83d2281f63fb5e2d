package classify

import "fmt"

// APICallError represents a failed request to the LLM provider
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// SchemaError reports a reply that is not a valid field assignment.
// Raw holds the reply exactly as it was received.
type SchemaError struct {
	Raw   string
	Cause error
}

func (e *SchemaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid classifier response: %v", e.Cause)
	}
	return "invalid classifier response"
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}
