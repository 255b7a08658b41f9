package config

import (
	"encoding/json"
	"fmt"
)

const fileSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "aipatch configuration",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "root": {
      "type": "string",
      "description": "Directory block paths resolve under."
    },
    "log_level": {
      "type": "string",
      "enum": ["debug", "info", "warn", "error"],
      "description": "Minimum log level emitted on stderr."
    }
  }
}`

// FileSchema returns the schema aipatch.json is validated against, as the
// generic map form the validator loads.
func FileSchema() (map[string]any, error) {
	var schema map[string]any
	if err := json.Unmarshal([]byte(fileSchemaJSON), &schema); err != nil {
		return nil, fmt.Errorf("parse config schema: %w", err)
	}
	return schema, nil
}
