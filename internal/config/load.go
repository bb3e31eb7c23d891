package config

import (
	"bytes"
	"fmt"
	"strings"

	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedSchemaVersionConstraint defines the SemVer constraint that loaded
// configurations must satisfy. For a v1 coordinator, we only accept v1
// configuration files.
const SupportedSchemaVersionConstraint = "v1"

// LoadConfig reads the specified YAML file bytes, unmarshals into a Config
// struct, validates against the embedded JSON schema, checks schema version
// compatibility, and performs logical validation.
func LoadConfig(configYAML []byte, filePathHint string) (*Config, error) {
	if len(configYAML) == 0 {
		return nil, werrors.NewConfigError("configuration content cannot be empty", nil)
	}

	// Step 1: Validate against the JSON Schema for basic structure and types.
	if err := ValidateWithSchema(configYAML); err != nil {
		return nil, werrors.NewConfigError(fmt.Sprintf("configuration '%s' failed schema validation", filePathHint), err)
	}

	// Step 2: Unmarshal into Go struct using strict decoding to catch unknown fields.
	var cfg Config
	if err := yamlUnmarshalStrict(configYAML, &cfg); err != nil {
		return nil, werrors.NewConfigError(fmt.Sprintf("failed to parse configuration YAML '%s'", filePathHint), err)
	}
	cfg.FilePath = filePathHint

	// Step 3: Check Schema Version Compatibility.
	if cfg.SchemaVersion == "" {
		return nil, werrors.NewValidationError(fmt.Sprintf("configuration '%s' is missing required 'schemaVersion' field", filePathHint), nil)
	}
	cfgSemVer := cfg.SchemaVersion
	if !strings.HasPrefix(cfgSemVer, "v") {
		cfgSemVer = "v" + cfgSemVer
	}
	if !semver.IsValid(cfgSemVer) {
		return nil, werrors.NewValidationError(fmt.Sprintf("configuration '%s' has invalid 'schemaVersion' format: '%s'", filePathHint, cfg.SchemaVersion), nil)
	}
	if semver.Major(cfgSemVer) != SupportedSchemaVersionConstraint {
		return nil, werrors.NewValidationError(fmt.Sprintf("configuration '%s' schemaVersion '%s' is not supported (requires major version '%s')", filePathHint, cfg.SchemaVersion, SupportedSchemaVersionConstraint), nil)
	}

	// Step 4: Logical validation of cross-field consistency.
	if errs := ValidateConfigStructure(&cfg); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return nil, werrors.NewValidationError(fmt.Sprintf("configuration '%s' failed validation:\n  - %s", filePathHint, strings.Join(msgs, "\n  - ")), nil)
	}

	return &cfg, nil
}

// yamlUnmarshalStrict decodes YAML with KnownFields enabled so typos in field
// names surface as errors instead of silently dropped configuration.
func yamlUnmarshalStrict(in []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(in))
	dec.KnownFields(true)
	return dec.Decode(out)
}
