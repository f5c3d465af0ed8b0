package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/allocation-engine/config"
)

const validJSON = `{
  "apiToken": "secret-token-abcd",
  "accountId": "5b10ac8d82e05b22cc7d4ef5",
  "issueIds": {"ISSUE-A": 10001, "ISSUE-B": 10002},
  "presets": {
    "usual": [
      {"issueKey": "ISSUE-A", "percentage": 50, "description": "capex work"},
      {"issueKey": "ISSUE-B", "percentage": 50, "description": "opex work"}
    ],
    "halfday": [
      {"issueKey": "ISSUE-A", "percentage": 50, "description": "morning only"}
    ]
  }
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	t.Setenv("TEMPO_TOKEN", "") // keep the host environment out of these tests
	path := filepath.Join(t.TempDir(), "allocator.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, validJSON))

	require.NoError(t, err)
	assert.Equal(t, "secret-token-abcd", cfg.APIToken)
	assert.Equal(t, config.DefaultBaseURL, cfg.BaseURL, "base url defaults when omitted")

	presets := cfg.EnginePresets()
	require.Contains(t, presets, "usual")
	assert.Equal(t, "usual", presets["usual"].Name)
	assert.Len(t, presets["usual"].Lines, 2)
	assert.Equal(t, "50", presets["usual"].Lines[0].Percentage.String())
}

func TestLoad_EnvTokenOverridesFile(t *testing.T) {
	path := writeConfig(t, validJSON)
	t.Setenv("TEMPO_TOKEN", "env-token-wxyz")

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "env-token-wxyz", cfg.APIToken)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name string
		json string
		want string
	}{
		{
			name: "missing token",
			json: `{"accountId": "x", "presets": {}}`,
			want: "apiToken",
		},
		{
			name: "missing account id",
			json: `{"apiToken": "t", "presets": {}}`,
			want: "accountId",
		},
		{
			name: "zero percentage",
			json: `{"apiToken": "t", "accountId": "x",
			        "issueIds": {"A": 1},
			        "presets": {"bad": [{"issueKey": "A", "percentage": 0}]}}`,
			want: "percentage must be > 0",
		},
		{
			name: "negative percentage",
			json: `{"apiToken": "t", "accountId": "x",
			        "issueIds": {"A": 1},
			        "presets": {"bad": [{"issueKey": "A", "percentage": -10}]}}`,
			want: "percentage must be > 0",
		},
		{
			name: "sum above 100",
			json: `{"apiToken": "t", "accountId": "x",
			        "issueIds": {"A": 1, "B": 2},
			        "presets": {"bad": [
			          {"issueKey": "A", "percentage": 60},
			          {"issueKey": "B", "percentage": 50}]}}`,
			want: "must not exceed 100",
		},
		{
			name: "unmapped issue key",
			json: `{"apiToken": "t", "accountId": "x",
			        "issueIds": {"A": 1},
			        "presets": {"bad": [{"issueKey": "Z", "percentage": 100}]}}`,
			want: "no issue id configured",
		},
		{
			name: "empty preset",
			json: `{"apiToken": "t", "accountId": "x",
			        "issueIds": {}, "presets": {"bad": []}}`,
			want: "has no lines",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.json))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_SumWithinEpsilon_Accepted(t *testing.T) {
	// Three hand-written 33.34 lines sum to 100.02, inside tolerance.
	json := `{"apiToken": "t", "accountId": "x",
	          "issueIds": {"A": 1, "B": 2, "C": 3},
	          "presets": {"thirds": [
	            {"issueKey": "A", "percentage": 33.34},
	            {"issueKey": "B", "percentage": 33.34},
	            {"issueKey": "C", "percentage": 33.34}]}}`

	_, err := config.Load(writeConfig(t, json))

	assert.NoError(t, err)
}

func TestRedact_KeepsLastFourTokenChars(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, validJSON))
	require.NoError(t, err)

	redacted := cfg.Redact()

	assert.Equal(t, "****abcd", redacted.APIToken)
	assert.Equal(t, cfg.AccountID, redacted.AccountID)
	assert.Equal(t, cfg.IssueIDs, redacted.IssueIDs)
}

func TestRedact_ShortToken_FullyMasked(t *testing.T) {
	cfg := &config.Config{APIToken: "abc"}
	assert.Equal(t, "****", cfg.Redact().APIToken)
}

func TestIssueKeyByID_Reverse(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, validJSON))
	require.NoError(t, err)

	reverse := cfg.IssueKeyByID()

	assert.Equal(t, "ISSUE-A", reverse[10001])
	assert.Equal(t, "ISSUE-B", reverse[10002])
}
