// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-assistant CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/research-assistant/internal/secrets"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is built in PersistentPreRunE and synced in PersistentPostRun.
var logger = zap.NewNop()

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the research-assistant CLI.
var rootCmd = &cobra.Command{
	Use:   "research-assistant",
	Short: "Search, analyze, and chat with scientific papers",
	Long: `research-assistant searches arXiv and PubMed, turns selected papers into
structured insights with a language model, compares them, and answers
questions grounded in the results.

Each step is a subcommand: search, analyze, and chat run the paper workflow;
pmc and docchat work with full-text open-access articles; archive manages
saved insights; serve exposes sessions over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		logger = l

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-assistant.yaml or ~/.config/research-assistant/research-assistant.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

// newLogger writes console-encoded logs to stderr so stdout stays clean
// for command output.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-assistant")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-assistant"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("RESEARCH_ASSISTANT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("llm.base_url", "RESEARCH_ASSISTANT_LLM_BASE_URL", "GENAI_LAB_BASE_URL")
	_ = viper.BindEnv("llm.api_key", "RESEARCH_ASSISTANT_LLM_API_KEY", "GENAI_LAB_API_KEY")
	_ = viper.BindEnv("llm.fast_model", "RESEARCH_ASSISTANT_LLM_FAST_MODEL", "MODEL_FAST")
	_ = viper.BindEnv("llm.reasoning_model", "RESEARCH_ASSISTANT_LLM_REASONING_MODEL", "MODEL_REASONING")
	_ = viper.BindEnv("pmc.api_key", "RESEARCH_ASSISTANT_PMC_API_KEY", "NCBI_API_KEY")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig decodes viper settings into the typed config and fills
// credentials from .secrets/ where the config leaves them empty.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	applySecrets(&cfg)
	return cfg, nil
}

func applySecrets(cfg *types.Config) {
	providerKey := map[types.LLMProvider]string{
		types.ProviderOpenAI:    "openai-api-key",
		types.ProviderAnthropic: "anthropic-api-key",
		types.ProviderGemini:    "gemini-api-key",
	}
	cfg.LLM.APIKey = secretDefault("llm-api-key", cfg.LLM.APIKey)
	if name, ok := providerKey[cfg.LLM.Provider]; ok {
		cfg.LLM.APIKey = secretDefault(name, cfg.LLM.APIKey)
	}
	cfg.PMC.APIKey = secretDefault("ncbi-api-key", cfg.PMC.APIKey)
	cfg.PMC.S3.AccessKey = secretDefault("s3-access-key", cfg.PMC.S3.AccessKey)
	cfg.PMC.S3.SecretKey = secretDefault("s3-secret-key", cfg.PMC.S3.SecretKey)
}
