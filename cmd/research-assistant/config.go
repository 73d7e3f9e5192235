// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/viper"
)

const defaultUserAgent = "research-assistant/0.1"

// setDefaults registers every configurable key so that environment
// variables are honored by viper.Unmarshal even without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.timeout", 30*time.Second)
	v.SetDefault("search.user_agent", defaultUserAgent)
	v.SetDefault("search.limit", 3)
	v.SetDefault("search.arxiv_sort", "relevance")
	v.SetDefault("search.parallel", false)
	v.SetDefault("search.refine", true)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.fast_model", "azure_ai/genailab-maas-Llama-3.3-70B-Instruct")
	v.SetDefault("llm.reasoning_model", "azure/genailab-maas-gpt-4o")
	v.SetDefault("llm.chat_model", "")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.timeout", 2*time.Minute)

	v.SetDefault("pmc.timeout", 60*time.Second)
	v.SetDefault("pmc.user_agent", defaultUserAgent)
	v.SetDefault("pmc.data_dir", "data")
	v.SetDefault("pmc.limit", 1)
	v.SetDefault("pmc.email", "")
	v.SetDefault("pmc.tool", "research-assistant")
	v.SetDefault("pmc.api_key", "")
	v.SetDefault("pmc.s3.bucket", "")
	v.SetDefault("pmc.s3.prefix", "")
	v.SetDefault("pmc.s3.region", "us-east-1")
	v.SetDefault("pmc.s3.endpoint", "")
	v.SetDefault("pmc.s3.access_key", "")
	v.SetDefault("pmc.s3.secret_key", "")

	v.SetDefault("chat.max_context_chars", 30000)

	v.SetDefault("grobid.timeout", 2*time.Minute)
	v.SetDefault("grobid.user_agent", defaultUserAgent)
	v.SetDefault("grobid.url", "http://localhost:8070")

	v.SetDefault("archive.path", "research-assistant.db")
	v.SetDefault("archive.export_dir", "exports")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.session_ttl", time.Hour)
	v.SetDefault("server.sweep_schedule", "@every 1m")
	v.SetDefault("server.api_key", "")
}
