/*
Package config loads and validates the allocator configuration.

PURPOSE:
  Converts a JSON configuration file into validated Go structures the
  engine consumes: the API credentials, the caller's own identity, the
  issue key -> numeric id mapping, and the named presets.

WHY JSON?
  - Presets and issue mappings change without code changes
  - Easy to hand-edit and keep in dotfiles
  - Matches what the tracking service's own tooling emits

FILE LOCATION:
  Default: ~/.allocator.json. Overridable with the -config flag or the
  ALLOCATOR_CONFIG environment variable. The TEMPO_TOKEN environment
  variable overrides the token in the file, so the file can be committed
  to a dotfiles repo without the secret.

JSON SCHEMA:
  {
    "apiToken":  "...",
    "accountId": "5b10ac8d82e05b22cc7d4ef5",
    "baseUrl":   "https://api.tempo.io/4",
    "directoryUrl": "https://yoursite.atlassian.net/rest/api/3",
    "issueIds":  {"ISSUE-A": 10001, "ISSUE-B": 10002},
    "presets": {
      "usual": [
        {"issueKey": "ISSUE-A", "percentage": 50, "description": "capex work"},
        {"issueKey": "ISSUE-B", "percentage": 50, "description": "opex work"}
      ]
    }
  }

VALIDATION:
  Preset shape is validated ONCE here, at load. The engine assumes valid
  presets: every percentage > 0, per-preset sum <= 100 + epsilon, every
  issue key mapped. A bad preset is a configuration error, not a runtime
  one.
*/
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/allocation-engine/allocation"
)

// DefaultBaseURL is the Tempo REST v4 endpoint.
const DefaultBaseURL = "https://api.tempo.io/4"

// sumEpsilon tolerates rounding in hand-written percentage sums
// (e.g. three lines of 33.34).
var sumEpsilon = decimal.NewFromFloat(0.02)

// =============================================================================
// CONFIG
// =============================================================================

// Line is one preset line as written in the file.
type Line struct {
	IssueKey    string          `json:"issueKey"`
	Percentage  decimal.Decimal `json:"percentage"`
	Description string          `json:"description"`
}

// Config is the full allocator configuration.
type Config struct {
	APIToken     string            `json:"apiToken"`
	AccountID    string            `json:"accountId"`
	BaseURL      string            `json:"baseUrl,omitempty"`
	DirectoryURL string            `json:"directoryUrl,omitempty"`
	IssueIDs     map[string]int    `json:"issueIds"`
	Presets      map[string][]Line `json:"presets"`
}

// DefaultPath returns ~/.allocator.json, honoring ALLOCATOR_CONFIG.
func DefaultPath() string {
	if p := os.Getenv("ALLOCATOR_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".allocator.json"
	}
	return filepath.Join(home, ".allocator.json")
}

// Load reads, overrides and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	// Environment override keeps the secret out of the file.
	if token := os.Getenv("TEMPO_TOKEN"); token != "" {
		cfg.APIToken = token
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks credentials and preset shape. The engine relies on
// this running exactly once, at load.
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return fmt.Errorf("missing apiToken (or TEMPO_TOKEN environment variable)")
	}
	if c.AccountID == "" {
		return fmt.Errorf("missing accountId")
	}

	hundred := decimal.NewFromInt(100)
	for _, name := range sortedPresetNames(c.Presets) {
		lines := c.Presets[name]
		if len(lines) == 0 {
			return fmt.Errorf("preset %q has no lines", name)
		}
		total := decimal.Zero
		for i, l := range lines {
			if l.IssueKey == "" {
				return fmt.Errorf("preset %q line %d: missing issueKey", name, i+1)
			}
			if !l.Percentage.IsPositive() {
				return fmt.Errorf("preset %q line %d (%s): percentage must be > 0, got %s",
					name, i+1, l.IssueKey, l.Percentage)
			}
			if l.Percentage.GreaterThan(hundred) {
				return fmt.Errorf("preset %q line %d (%s): percentage must be <= 100, got %s",
					name, i+1, l.IssueKey, l.Percentage)
			}
			if _, ok := c.IssueIDs[l.IssueKey]; !ok {
				return fmt.Errorf("preset %q line %d: no issue id configured for %q",
					name, i+1, l.IssueKey)
			}
			total = total.Add(l.Percentage)
		}
		if total.GreaterThan(hundred.Add(sumEpsilon)) {
			return fmt.Errorf("preset %q: percentages sum to %s, must not exceed 100", name, total)
		}
	}
	return nil
}

// EnginePresets converts the file representation into engine presets.
func (c *Config) EnginePresets() map[string]allocation.Preset {
	presets := make(map[string]allocation.Preset, len(c.Presets))
	for name, lines := range c.Presets {
		p := allocation.Preset{Name: name, Lines: make([]allocation.PresetLine, len(lines))}
		for i, l := range lines {
			p.Lines[i] = allocation.PresetLine{
				IssueKey:    l.IssueKey,
				Percentage:  l.Percentage,
				Description: l.Description,
			}
		}
		presets[name] = p
	}
	return presets
}

// Self returns the caller's own identity.
func (c *Config) Self() allocation.Identity {
	return allocation.Identity(c.AccountID)
}

// IssueKeyByID returns the reverse issue mapping, for annotating entries
// that arrive from the store with only numeric ids.
func (c *Config) IssueKeyByID() map[int]string {
	reverse := make(map[int]string, len(c.IssueIDs))
	for key, id := range c.IssueIDs {
		reverse[id] = key
	}
	return reverse
}

// =============================================================================
// REDACTION - Secrets never leave the process unmasked
// =============================================================================

// Redacted is the configuration as exposed by the get-config operation:
// the token reduced to its last four characters.
type Redacted struct {
	APIToken     string            `json:"apiToken"`
	AccountID    string            `json:"accountId"`
	BaseURL      string            `json:"baseUrl"`
	DirectoryURL string            `json:"directoryUrl,omitempty"`
	IssueIDs     map[string]int    `json:"issueIds"`
	Presets      map[string][]Line `json:"presets"`
}

// Redact returns a copy safe to show to the caller.
func (c *Config) Redact() Redacted {
	return Redacted{
		APIToken:     redactToken(c.APIToken),
		AccountID:    c.AccountID,
		BaseURL:      c.BaseURL,
		DirectoryURL: c.DirectoryURL,
		IssueIDs:     c.IssueIDs,
		Presets:      c.Presets,
	}
}

func redactToken(token string) string {
	if len(token) > 4 {
		return "****" + token[len(token)-4:]
	}
	return "****"
}

func sortedPresetNames(presets map[string][]Line) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
