package utils

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GetSchemaFromConfig returns the indented JSON schema of config with every
// definition inlined, so the schema reads top to bottom like the YAML file.
func GetSchemaFromConfig(config any) (string, error) {
	reflector := new(jsonschema.Reflector)
	reflector.DoNotReference = true

	schema := reflector.Reflect(config)

	jsonSchemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
