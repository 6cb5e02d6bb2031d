package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-fit/internal/ai"
	"github.com/spigell/resume-fit/internal/ai/gemini"
	"github.com/spigell/resume-fit/internal/document"
	"github.com/spigell/resume-fit/internal/logger"
	"github.com/spigell/resume-fit/internal/secrets"
	"github.com/spigell/resume-fit/internal/taxonomy"
)

const (
	app = "resume-fit"

	geminiAPIKeyEnv = "GEMINI_API_KEY"
)

type Config struct {
	Taxonomy *TaxonomyConfig `mapstructure:"taxonomy"`
	AI       *AIConfig       `mapstructure:"ai"`
	Server   *ServerConfig   `mapstructure:"server" validate:"required"`
	Fetch    *FetchConfig    `mapstructure:"fetch" validate:"required"`
}

// TaxonomyConfig holds custom tables in the raw form accepted by
// taxonomy.Decode. An empty side keeps the built-in table.
type TaxonomyConfig struct {
	Resume any `mapstructure:"resume"`
	Job    any `mapstructure:"job"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Gemini   *GeminiConfig `mapstructure:"gemini" validate:"required_if=Enabled true"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0,lte=10"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

type ServerConfig struct {
	Listen     string        `mapstructure:"listen" validate:"required"`
	SessionTTL time.Duration `mapstructure:"session-ttl" validate:"gte=0"`
}

type FetchConfig struct {
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

var (
	// Used for flags.
	cfgFile string

	validate = validator.New()

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-fit compares a resume with a job description and explains the fit",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("server.listen", "RESUME_FIT_LISTEN"); err != nil {
		log.Fatalf("binding RESUME_FIT_LISTEN environment variable: %v", err)
	}

	viper.SetDefault("ai.provider", gemini.Provider)
	viper.SetDefault("ai.gemini.max-retries", 2)
	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.session-ttl", "24h")
	viper.SetDefault("fetch.user-agent", document.DefaultUserAgent)
	viper.SetDefault("fetch.timeout", document.DefaultFetchTimeout.String())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-fit.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	if err == nil {
		return
	}

	// Without an explicit --config the file is optional and defaults apply.
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return
	}

	// We can't proceed if the config file parsed with error.
	log.Fatal(err)
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// newLogger builds the application logger from the persistent flags.
func newLogger(outputs ...string) (*zap.Logger, error) {
	return logger.New(logger.Options{
		JSON:        viper.GetBool("json"),
		Debug:       viper.GetBool("debug"),
		OutputPaths: outputs,
	})
}

// loadTaxonomies decodes the custom tables of the config. A nil result keeps
// the built-in table for that side.
func loadTaxonomies(config *Config) (resume, job *taxonomy.Taxonomy, err error) {
	if config == nil || config.Taxonomy == nil {
		return nil, nil, nil
	}

	if resume, err = customTaxonomy(taxonomy.ResumeName, config.Taxonomy.Resume); err != nil {
		return nil, nil, err
	}
	if job, err = customTaxonomy(taxonomy.JobName, config.Taxonomy.Job); err != nil {
		return nil, nil, err
	}

	return resume, job, nil
}

func customTaxonomy(name string, raw any) (*taxonomy.Taxonomy, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		if len(v) == 0 {
			return nil, nil
		}
	case map[string]any:
		if len(v) == 0 {
			return nil, nil
		}
	}

	return taxonomy.Decode(name, raw)
}

func buildRegistry(config *Config, logger *zap.Logger) (*taxonomy.Registry, error) {
	resume, job, err := loadTaxonomies(config)
	if err != nil {
		return nil, err
	}

	registry := taxonomy.NewRegistry(resume, job)

	r, j := registry.Snapshot()
	logger.Debug("taxonomies loaded",
		zap.Bool("custom_resume", resume != nil),
		zap.Int("resume_domains", r.Len()),
		zap.Bool("custom_job", job != nil),
		zap.Int("job_domains", j.Len()),
	)

	return registry, nil
}

// newAI builds the AI collaborators. Both are nil when AI is disabled.
func newAI(ctx context.Context, config *AIConfig, log *zap.Logger) (ai.Scorer, ai.Advisor, error) {
	if config == nil || !config.Enabled {
		return nil, nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(config.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", config.Provider)
	}
	if config.Gemini == nil {
		return nil, nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.Gemini.APIKey,
		Env:   geminiAPIKeyEnv,
		File:  config.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	genLogger := log.With(zap.Int("ai_retry_attempts", config.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, config.Gemini.Model, config.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, nil, err
	}

	aiLogger := logger.WithAI(log, gemini.Provider, generator.Model())

	return gemini.NewScorer(generator, config.Gemini.MaxLogLength, aiLogger),
		gemini.NewAdvisor(generator, config.Gemini.MaxLogLength, aiLogger),
		nil
}
