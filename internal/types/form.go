// Package types provides type definitions for structured data shared across the apply-agent packages.
package types

// FieldKind identifies the kind of fillable form control.
type FieldKind string

const (
	// FieldText covers text-like inputs and textareas
	FieldText FieldKind = "text"
	// FieldSelect covers select dropdowns
	FieldSelect FieldKind = "select"
	// FieldFile covers file inputs
	FieldFile FieldKind = "file"
)

// SelectOption is one option of a select control.
type SelectOption struct {
	Value    string `json:"value"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// FieldDescriptor is a normalized, read-only snapshot of one fillable form control.
// Selector is unique within one page snapshot and is used to re-locate the element.
type FieldDescriptor struct {
	Kind        FieldKind      `json:"type"`
	InputType   string         `json:"inputType,omitempty"`
	Label       string         `json:"label"`
	ParentText  string         `json:"parentText"`
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Placeholder string         `json:"placeholder,omitempty"`
	Selector    string         `json:"selector"`
	Required    bool           `json:"required"`
	Options     []SelectOption `json:"options,omitempty"`
	Accept      string         `json:"accept,omitempty"`
}

// OptionValues returns the option values of a select field in document order.
func (f FieldDescriptor) OptionValues() []string {
	values := make([]string, 0, len(f.Options))
	for _, opt := range f.Options {
		values = append(values, opt.Value)
	}
	return values
}

// FindField returns the descriptor with the given selector, or nil.
func FindField(fields []FieldDescriptor, selector string) *FieldDescriptor {
	for i := range fields {
		if fields[i].Selector == selector {
			return &fields[i]
		}
	}
	return nil
}
