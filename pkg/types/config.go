// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperwork/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BackendConfig locates and authenticates the AI/search backend.
type BackendConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the backend root; endpoint names are appended to it.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries bounds retries of rate-limited and transient failures.
	// Zero selects the default (3); -1 disables retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds settings for search and result enrichment.
type SearchConfig struct {
	// MaxResults is the max_results value sent to the backend (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnrichConcurrency bounds in-flight metadata calls (default 8).
	EnrichConcurrency int `json:"enrich_concurrency" yaml:"enrich_concurrency"`

	// SimulateMissingMetadata fills missing citation counts and dates with
	// random values flagged as simulated. When false they stay "N/A".
	SimulateMissingMetadata bool `json:"simulate_missing_metadata" yaml:"simulate_missing_metadata"`

	// ArxivFallback looks up missing publication dates of arXiv papers on
	// arXiv itself before simulating them.
	ArxivFallback bool `json:"arxiv_fallback" yaml:"arxiv_fallback"`
}

// ChatConfig holds the conversation toggles.
type ChatConfig struct {
	// ExpandKeywords runs keyword expansion before searching.
	ExpandKeywords bool `json:"expand_keywords" yaml:"expand_keywords"`

	// PaperReference attaches selected papers to follow-up messages.
	PaperReference bool `json:"paper_reference" yaml:"paper_reference"`
}

// ProfileConfig locates the durable profile store.
type ProfileConfig struct {
	// Path is the SQLite database file. Empty selects an in-memory store.
	Path string `json:"path" yaml:"path"`
}

// Config groups every setting read by the CLI.
type Config struct {
	Backend BackendConfig `json:"backend" yaml:"backend"`
	Search  SearchConfig  `json:"search" yaml:"search"`
	Chat    ChatConfig    `json:"chat" yaml:"chat"`
	Profile ProfileConfig `json:"profile" yaml:"profile"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "paperwork/0.1",
			},
			BaseURL:    "http://localhost:5000/",
			MaxRetries: 3,
		},
		Search: SearchConfig{
			MaxResults:              20,
			EnrichConcurrency:       8,
			SimulateMissingMetadata: true,
		},
		Chat: ChatConfig{
			PaperReference: true,
		},
	}
}
