// Package schemas holds the JSON Schema documents for LLM response artifacts.
package schemas

import "embed"

// Files contains every *.schema.json in this directory.
//
//go:embed *.schema.json
var Files embed.FS

// Schema file names.
const (
	FieldAssignment = "field_assignment.schema.json"
	JobMatches      = "job_matches.schema.json"
)

// Read returns the raw content of a schema file.
func Read(name string) (string, error) {
	data, err := Files.ReadFile(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
