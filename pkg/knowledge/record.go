// Package knowledge implements the query pipeline behind the server's tools:
// prompt construction, a grounded model call, and tolerant parsing of the
// model's reply into a fixed-shape record.
package knowledge

import (
	"encoding/json"
	"fmt"
)

// Placeholder marks a field the model omitted or the parser could not extract.
const Placeholder = "Not available"

// Record is the structured explanation every tool returns. All seven fields
// are always populated; missing content degrades to Placeholder, never to an
// absent field.
type Record struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	UseCaseInDomain     string   `json:"use_case_in_domain"`
	ComponentsOrFormula string   `json:"components_or_formula"`
	ImplementationSteps []string `json:"implementation_steps"`
	CodeExample         string   `json:"code_example"`
	KeyConsiderations   []string `json:"key_considerations"`
}

// FieldNames lists the record's JSON keys in envelope order.
func FieldNames() []string {
	return []string{
		"name",
		"description",
		"use_case_in_domain",
		"components_or_formula",
		"implementation_steps",
		"code_example",
		"key_considerations",
	}
}

// PlaceholderRecord returns a record with every field set to its default.
func PlaceholderRecord() Record {
	return Record{
		Name:                Placeholder,
		Description:         Placeholder,
		UseCaseInDomain:     Placeholder,
		ComponentsOrFormula: Placeholder,
		ImplementationSteps: []string{Placeholder},
		CodeExample:         Placeholder,
		KeyConsiderations:   []string{Placeholder},
	}
}

// PrettyJSON renders the record as the indented envelope sent back to callers.
func (r Record) PrettyJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(data), nil
}
