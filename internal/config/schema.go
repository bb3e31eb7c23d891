package config

import (
	_ "embed" // Required for //go:embed directive
	"fmt"
	"sync"

	// Import public error types used
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
	// Import schema validation library
	"github.com/xeipuuv/gojsonschema"
	// Import YAML parsing library needed for conversion
	"gopkg.in/yaml.v3"
)

// Embed the schema file content directly into the compiled binary.
// The path is relative to the location of this Go source file.
//
//go:embed weft_schema_v1.0.0.json
var schemaV1Bytes []byte

// Global variables for schema loading and caching.
var (
	// schemaV1Loader holds the schema content loaded from the embedded bytes.
	schemaV1Loader gojsonschema.JSONLoader
	// schemaV1 holds the compiled schema object for efficient validation.
	schemaV1 *gojsonschema.Schema
	// schemaOnce ensures the schema is loaded and compiled only once.
	schemaOnce sync.Once
	// schemaErr stores any error encountered during the one-time schema load.
	schemaErr error
)

// loadSchema ensures the embedded schema is loaded and compiled thread-safely,
// only once. It returns the compiled schema or an error if loading/compiling
// failed.
func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		if len(schemaV1Bytes) == 0 {
			schemaErr = werrors.NewConfigError("embedded schema 'weft_schema_v1.0.0.json' is empty or not found (ensure file exists in internal/config/)", nil)
			return
		}
		schemaV1Loader = gojsonschema.NewBytesLoader(schemaV1Bytes)
		schemaV1, schemaErr = gojsonschema.NewSchema(schemaV1Loader)
		if schemaErr != nil {
			schemaErr = werrors.NewConfigError("failed to compile embedded schema 'weft_schema_v1.0.0.json'", schemaErr)
		}
	})
	return schemaV1, schemaErr
}

// ValidateWithSchema validates the given YAML document bytes against the
// embedded weft v1.0.0 schema. It handles the YAML-to-JSON conversion required
// by the validator.
func ValidateWithSchema(documentYAML []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	// The gojsonschema library works with JSON-like data structures
	// (map[string]interface{}, []interface{}, etc.), so unmarshal the input
	// YAML into a generic interface{} first. Strict decoding is not needed
	// here; only the structure matters for validation.
	var jsonData interface{}
	if err := yaml.Unmarshal(documentYAML, &jsonData); err != nil {
		return werrors.NewConfigError("failed to parse configuration YAML for schema validation", err)
	}

	docLoader := gojsonschema.NewGoLoader(jsonData)
	result, err := schema.Validate(docLoader)
	if err != nil {
		return werrors.NewConfigError("schema validation could not be performed", err)
	}

	if !result.Valid() {
		// Collect every violation into one message so users can fix them all
		// in a single pass.
		msg := "configuration does not conform to schema:"
		for _, desc := range result.Errors() {
			msg += fmt.Sprintf("\n  - %s: %s", desc.Field(), desc.Description())
		}
		return werrors.NewValidationError(msg, nil)
	}
	return nil
}
