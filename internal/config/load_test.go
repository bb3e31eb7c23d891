package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxo-labs/weft/internal/config"
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
)

const validConfigYAML = `
schemaVersion: "1.0.0"
service:
  name: checkout
sampler:
  name: parent_based
  root:
    name: trace_id_ratio
    ratio: 0.25
processors:
  - type: attributes
    params:
      attributes:
        env: prod
  - type: otlp
    params:
      protocol: grpc
      endpoint: collector:4317
deny_list:
  - name: noisy/client
  - name: legacy/http
    constraint: "1.2.3"
logging:
  level: debug
  format: json
`

// TestLoadConfigValid verifies a complete configuration round-trips into the
// expected structure.
func TestLoadConfigValid(t *testing.T) {
	cfg, err := config.LoadConfig([]byte(validConfigYAML), "weft.yaml")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", cfg.SchemaVersion)
	assert.Equal(t, "checkout", cfg.Service.Name)
	assert.Equal(t, "weft.yaml", cfg.FilePath)
	assert.False(t, cfg.Disabled)

	require.NotNil(t, cfg.Sampler)
	assert.Equal(t, config.SamplerParentBased, cfg.Sampler.Name)
	require.NotNil(t, cfg.Sampler.Root)
	assert.Equal(t, config.SamplerTraceIDRatio, cfg.Sampler.Root.Name)
	assert.Equal(t, 0.25, cfg.Sampler.Root.Ratio)

	require.Len(t, cfg.Processors, 2)
	assert.Equal(t, "attributes", cfg.Processors[0].Type)
	assert.Equal(t, "otlp", cfg.Processors[1].Type)
	assert.Equal(t, "collector:4317", cfg.Processors[1].Params["endpoint"])

	require.Len(t, cfg.DenyList, 2)
	assert.Equal(t, "noisy/client", cfg.DenyList[0].Name)
	assert.Equal(t, "1.2.3", cfg.DenyList[1].Constraint)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

// TestLoadConfigMinimal verifies a bare schemaVersion is sufficient.
func TestLoadConfigMinimal(t *testing.T) {
	cfg, err := config.LoadConfig([]byte(`schemaVersion: "1.0.0"`), "min.yaml")
	require.NoError(t, err)
	assert.Nil(t, cfg.Sampler)
	assert.Empty(t, cfg.Processors)
	assert.Empty(t, cfg.DenyList)
}

// TestLoadConfigRejections exercises the rejection paths of the loader: empty
// input, schema violations, version gating and logical validation.
func TestLoadConfigRejections(t *testing.T) {
	testCases := []struct {
		name      string
		yaml      string
		wantInMsg string
		wantType  interface{}
	}{
		{
			name:      "empty content",
			yaml:      "",
			wantInMsg: "cannot be empty",
			wantType:  &werrors.ConfigError{},
		},
		{
			name:      "unknown top-level field fails schema validation",
			yaml:      "schemaVersion: \"1.0.0\"\nexporters: []\n",
			wantInMsg: "schema validation",
			wantType:  &werrors.ConfigError{},
		},
		{
			name:      "missing schemaVersion",
			yaml:      "service:\n  name: svc\n",
			wantInMsg: "schema validation",
			wantType:  &werrors.ConfigError{},
		},
		{
			name:      "malformed schemaVersion",
			yaml:      "schemaVersion: \"one-point-oh\"\n",
			wantInMsg: "invalid 'schemaVersion' format",
			wantType:  &werrors.ValidationError{},
		},
		{
			name:      "unsupported major version",
			yaml:      "schemaVersion: \"2.0.0\"\n",
			wantInMsg: "not supported",
			wantType:  &werrors.ValidationError{},
		},
		{
			name:      "unknown sampler name",
			yaml:      "schemaVersion: \"1.0.0\"\nsampler:\n  name: coin_flip\n",
			wantInMsg: "schema validation",
			wantType:  &werrors.ConfigError{},
		},
		{
			name:      "ratio out of range",
			yaml:      "schemaVersion: \"1.0.0\"\nsampler:\n  name: trace_id_ratio\n  ratio: 1.5\n",
			wantInMsg: "schema validation",
			wantType:  &werrors.ConfigError{},
		},
		{
			name:      "empty processor type",
			yaml:      "schemaVersion: \"1.0.0\"\nprocessors:\n  - type: \"\"\n",
			wantInMsg: "schema validation",
			wantType:  &werrors.ConfigError{},
		},
		{
			name:      "bad deny-list constraint",
			yaml:      "schemaVersion: \"1.0.0\"\ndeny_list:\n  - name: legacy/http\n    constraint: \"not-a-version\"\n",
			wantInMsg: "invalid version constraint",
			wantType:  &werrors.ValidationError{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadConfig([]byte(tc.yaml), tc.name+".yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantInMsg)
			switch tc.wantType.(type) {
			case *werrors.ConfigError:
				var target *werrors.ConfigError
				assert.ErrorAs(t, err, &target)
			case *werrors.ValidationError:
				var target *werrors.ValidationError
				assert.ErrorAs(t, err, &target)
			}
		})
	}
}

// TestValidateConfigStructure exercises the logical checks that the JSON
// schema cannot express, in particular sampler nesting rules.
func TestValidateConfigStructure(t *testing.T) {
	t.Run("nested parent_based rejected", func(t *testing.T) {
		cfg := &config.Config{
			SchemaVersion: "1.0.0",
			Sampler: &config.SamplerSpec{
				Name: config.SamplerParentBased,
				Root: &config.SamplerSpec{Name: config.SamplerParentBased},
			},
		}
		errs := config.ValidateConfigStructure(cfg)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "cannot be used as the root")
	})

	t.Run("root block on leaf sampler rejected", func(t *testing.T) {
		cfg := &config.Config{
			SchemaVersion: "1.0.0",
			Sampler: &config.SamplerSpec{
				Name: config.SamplerAlwaysOn,
				Root: &config.SamplerSpec{Name: config.SamplerAlwaysOff},
			},
		}
		errs := config.ValidateConfigStructure(cfg)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "does not accept a 'root' block")
	})

	t.Run("unknown id generator rejected", func(t *testing.T) {
		cfg := &config.Config{SchemaVersion: "1.0.0", IDGenerator: "sequential"}
		errs := config.ValidateConfigStructure(cfg)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "unknown id_generator")
	})

	t.Run("multiple faults all reported", func(t *testing.T) {
		cfg := &config.Config{
			SchemaVersion: "1.0.0",
			IDGenerator:   "sequential",
			Sampler:       &config.SamplerSpec{Name: "coin_flip"},
			DenyList:      []config.DenyRule{{Name: "  "}},
		}
		errs := config.ValidateConfigStructure(cfg)
		assert.Len(t, errs, 3)
	})

	t.Run("constraint with v prefix accepted", func(t *testing.T) {
		cfg := &config.Config{
			SchemaVersion: "1.0.0",
			DenyList:      []config.DenyRule{{Name: "legacy/http", Constraint: "v2.0.0"}},
		}
		assert.Empty(t, config.ValidateConfigStructure(cfg))
	})
}
