// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the arXiv and PubMed fetchers.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Limit is the per-source result count sent to each provider (default 3).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// ArxivSort is "relevance" or "submittedDate".
	ArxivSort string `json:"arxiv_sort" yaml:"arxiv_sort" mapstructure:"arxiv_sort"`

	// Parallel runs the fetchers concurrently. Result order is unchanged.
	Parallel bool `json:"parallel" yaml:"parallel" mapstructure:"parallel"`

	// Refine rewrites the user's request into keywords with the fast model
	// before searching.
	Refine bool `json:"refine" yaml:"refine" mapstructure:"refine"`
}

// LLMProvider selects the chat completion backend.
type LLMProvider string

const (
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderGemini    LLMProvider = "gemini"
)

// LLMConfig holds settings for the chat completion service.
type LLMConfig struct {
	// Provider selects the backend (default openai, which also covers any
	// OpenAI-compatible gateway).
	Provider LLMProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey is the bearer credential for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// FastModel is used for query refinement.
	FastModel string `json:"fast_model" yaml:"fast_model" mapstructure:"fast_model"`

	// ReasoningModel is used for insight and comparison generation.
	ReasoningModel string `json:"reasoning_model" yaml:"reasoning_model" mapstructure:"reasoning_model"`

	// ChatModel is used for question answering. Falls back to ReasoningModel.
	ChatModel string `json:"chat_model,omitempty" yaml:"chat_model,omitempty" mapstructure:"chat_model"`

	// Temperature is the default sampling temperature (default 0.2).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens caps each completion (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout bounds a single completion call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// S3Config configures the optional object-storage mirror for PMC downloads.
// The mirror is disabled when Bucket is empty.
type S3Config struct {
	Bucket    string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Prefix    string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
	Region    string `json:"region" yaml:"region" mapstructure:"region"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty" mapstructure:"secret_key"`
}

// PMCConfig holds settings for the PubMed Central open-access loader.
type PMCConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// DataDir receives json/ and pdfs/ subdirectories (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// Limit is the number of articles requested per query (default 1).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// Email and Tool identify the caller to NCBI E-utilities.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`
	Tool  string `json:"tool,omitempty" yaml:"tool,omitempty" mapstructure:"tool"`

	// APIKey raises the NCBI rate limit.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// S3 mirrors downloaded files to a bucket.
	S3 S3Config `json:"s3" yaml:"s3" mapstructure:"s3"`
}

// ChatConfig holds settings for question answering.
type ChatConfig struct {
	// MaxContextChars truncates the context at prompt time (default 30000,
	// capped at 40000).
	MaxContextChars int `json:"max_context_chars" yaml:"max_context_chars" mapstructure:"max_context_chars"`
}

// GrobidConfig locates a GROBID service used to extract text from PDFs.
type GrobidConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// URL is the GROBID base URL (e.g. "http://localhost:8070").
	URL string `json:"url" yaml:"url" mapstructure:"url"`
}

// ArchiveConfig holds settings for the SQLite insight archive.
type ArchiveConfig struct {
	// Path is the database file (default "research-assistant.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// ExportDir receives export.yaml and export.json.
	ExportDir string `json:"export_dir" yaml:"export_dir" mapstructure:"export_dir"`
}

// ServerConfig holds settings for the HTTP session API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// SessionTTL evicts idle sessions (default 1h).
	SessionTTL time.Duration `json:"session_ttl" yaml:"session_ttl" mapstructure:"session_ttl"`

	// SweepSchedule is the cron spec for evicting idle sessions
	// (default "@every 1m").
	SweepSchedule string `json:"sweep_schedule" yaml:"sweep_schedule" mapstructure:"sweep_schedule"`

	// APIKey, when set, is required in the X-API-KEY header of every
	// request except /healthz.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// Config groups all component configurations.
type Config struct {
	Search  SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	LLM     LLMConfig     `json:"llm" yaml:"llm" mapstructure:"llm"`
	PMC     PMCConfig     `json:"pmc" yaml:"pmc" mapstructure:"pmc"`
	Chat    ChatConfig    `json:"chat" yaml:"chat" mapstructure:"chat"`
	Grobid  GrobidConfig  `json:"grobid" yaml:"grobid" mapstructure:"grobid"`
	Archive ArchiveConfig `json:"archive" yaml:"archive" mapstructure:"archive"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
}
