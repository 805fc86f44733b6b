package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/construction-dashboard/internal"
	"github.com/frahmantamala/construction-dashboard/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configDir string
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:           "construction-dashboard",
	Short:         "Construction Dashboard",
	Long:          `Role-based dashboard for companies, construction projects and defect reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Root exposes the command tree for tests.
func Root() *cobra.Command {
	return rootCmd
}

func loadConfig(path string) (*internal.Config, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	// Check if we're running in a container
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		cfg := internal.LoadConfigFromEnv()
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		configureLogger(cfg)
		return cfg, nil
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	configureLogger(&cfg)
	return &cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal
// even without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", internal.DefaultBackendTimeout)
	v.SetDefault("backend.page_limit", internal.DefaultPageLimit)
	v.SetDefault("dashboard.host", internal.DefaultDashboardHost)
	v.SetDefault("dashboard.port", internal.DefaultDashboardPort)
	v.SetDefault("dashboard.read_header_timeout", "5s")
	v.SetDefault("dashboard.read_timeout", "15s")
	v.SetDefault("dashboard.idle_timeout", "60s")
	v.SetDefault("dashboard.write_timeout", "30s")
	v.SetDefault("token_store.driver", "file")
	v.SetDefault("token_store.path", internal.DefaultTokenPath)
	v.SetDefault("token_store.dsn", "")
	v.SetDefault("token_store.key_name", internal.DefaultTokenKeyName)
	v.SetDefault("token_store.seal_key", "")
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "text")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.service_name", internal.DefaultServiceName)
	v.SetDefault("observability.tracing.endpoint", "")
	v.SetDefault("observability.tracing.output", "")
}

// Logs go to stderr so command output on stdout stays machine readable.
func configureLogger(cfg *internal.Config) {
	logger.Configure(os.Stderr, cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "directory holding config.yml and .env")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the session token in memory only")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
