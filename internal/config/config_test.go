package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "consolidator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestMissingDefaultFileUsesDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.API.BaseURL)
	assert.Zero(t, cfg.API.Timeout)
	assert.Equal(t, "lenient", cfg.Validation.Policy)
	assert.Equal(t, "on_zero_failures", cfg.Submission.ResetPolicy)
	assert.True(t, cfg.Submission.CheckActive())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "{batch}_{timestamp}.xlsx", cfg.Output.ReportFormat)
	assert.Equal(t, 1, cfg.Batch.HeaderRow)
}

func TestMissingExplicitFileFails(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "absent.yaml"), true)
	assert.Error(t, err)
}

func TestYAMLAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://ledger.internal:8080
  timeout: 15s
validation:
  policy: Strict
submission:
  check_server_active: false
batch:
  sheet: Links
  header_row: 2
  normalize:
    - field: ledger_code
      actions:
        - type: trim
        - type: pad_zeros_to_length
          value: "6"
`)
	t.Setenv("CONSOLIDATOR_API_BASE_URL", "https://override.example")
	t.Setenv("CONSOLIDATOR_SUBMISSION_RESET_POLICY", "on_any_success")
	t.Setenv("CONSOLIDATOR_LOG_LEVEL", "debug")

	cfg, err := LoadMainConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, "https://override.example", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, "strict", cfg.Validation.Policy)
	assert.Equal(t, "on_any_success", cfg.Submission.ResetPolicy)
	assert.False(t, cfg.Submission.CheckActive())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "Links", cfg.Batch.Sheet)
	assert.Equal(t, 2, cfg.Batch.HeaderRow)
	require.Len(t, cfg.Batch.Normalize, 1)
	assert.Equal(t, "pad_zeros_to_length", cfg.Batch.Normalize[0].Actions[1].Type)
}

func TestValidationNamesYAMLPaths(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: not a url
validation:
  policy: loose
batch:
  normalize:
    - field: ledger_code
      actions:
        - type: reverse
`)
	_, err := LoadMainConfig(path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.base_url")
	assert.Contains(t, err.Error(), "validation.policy")
	assert.Contains(t, err.Error(), "batch.normalize[0].actions[0].type")
}

func TestMalformedYAML(t *testing.T) {
	path := writeConfig(t, "api: [")
	_, err := LoadMainConfig(path, true)
	assert.Error(t, err)
}

func TestSnake(t *testing.T) {
	assert.Equal(t, "base_url", snake("BaseURL"))
	assert.Equal(t, "api", snake("API"))
	assert.Equal(t, "check_server_active", snake("CheckServerActive"))
}
