package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"todo-tree/app/models"
)

const proposalSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "minItems": 1,
  "maxItems": 10,
  "items": {
    "type": "object",
    "required": ["title"],
    "properties": {
      "title": {"type": "string", "minLength": 3, "pattern": "\\S[\\s\\S]+\\S"},
      "description": {"type": "string"}
    }
  }
}`

var proposals = jsonschema.MustCompileString("proposals.json", proposalSchema)

// ParseProposals decodes model output into proposals. Markdown code fences
// around the JSON are tolerated.
func ParseProposals(text string) ([]models.ChildProposal, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var doc interface{}
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, fmt.Errorf("decode proposals: %w", err)
	}

	if err := proposals.Validate(doc); err != nil {
		return nil, fmt.Errorf("proposals do not match schema: %s", schemaMessage(err))
	}

	var out []models.ChildProposal
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("decode proposals: %w", err)
	}
	return out, nil
}

// schemaMessage returns the first leaf cause of a validation error.
func schemaMessage(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}
