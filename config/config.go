package config

import (
	"fmt"
	"log"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Mapstructure tags are used to map environment variables and config file keys.
type Config struct {
	// Server Configuration
	ServerAddress string `mapstructure:"SERVER_ADDRESS"` // e.g., ":8080"
	AppEnv        string `mapstructure:"APP_ENV"`        // "production" switches gin to release mode

	// AI Configuration
	GeminiAPIKey  string `mapstructure:"GEMINI_API_KEY"`  // Empty key means every run falls back to the default spec
	GeminiModel   string `mapstructure:"GEMINI_MODEL"`    // e.g., "gemini-2.0-flash"
	GeminiBaseURL string `mapstructure:"GEMINI_BASE_URL"` // OpenAI-compatible endpoint

	// Generation Pipeline Configuration
	ProgressDelayMS          int    `mapstructure:"PROGRESS_DELAY_MS"`           // Pause after each progress event, 0 disables
	ImageFetchTimeoutSeconds int    `mapstructure:"IMAGE_FETCH_TIMEOUT_SECONDS"` // Screenshot download timeout
	ExportDir                string `mapstructure:"EXPORT_DIR"`                  // Bundles are written here when set

	// Observability
	TraceStdout bool `mapstructure:"TRACE_STDOUT"` // Print run spans to stdout
}

const (
	DefaultGeminiModel   = "gemini-2.0-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

func setDefaults() {
	viper.SetDefault("SERVER_ADDRESS", ":8080")
	viper.SetDefault("APP_ENV", "")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GEMINI_MODEL", DefaultGeminiModel)
	viper.SetDefault("GEMINI_BASE_URL", DefaultGeminiBaseURL)
	viper.SetDefault("PROGRESS_DELAY_MS", 350)
	viper.SetDefault("IMAGE_FETCH_TIMEOUT_SECONDS", 15)
	viper.SetDefault("EXPORT_DIR", "")
	viper.SetDefault("TRACE_STDOUT", false)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	setDefaults()
	viper.AddConfigPath(path)     // Path to look for the config file in
	viper.SetConfigName("config") // Name of config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.AutomaticEnv() // Read environment variables that match keys

	// Attempt to read the config file
	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file ('config.yaml') not found in specified path, relying solely on environment variables.")
		} else {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Printf("Using configuration file: %s", viper.ConfigFileUsed())
		viper.OnConfigChange(func(e fsnotify.Event) {
			log.Printf("Info: Config file changed (%s): %s", e.Op, e.Name)
		})
		viper.WatchConfig()
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.GeminiAPIKey == "" {
		log.Println("WARN: GEMINI_API_KEY is not set. Generation will fall back to the default spec until it is.")
	}
	if config.ProgressDelayMS < 0 {
		log.Printf("WARN: PROGRESS_DELAY_MS=%d is negative, disabling progress pacing.", config.ProgressDelayMS)
		config.ProgressDelayMS = 0
	}

	return
}

// APIKey returns the current model credential. It is read on every call so a
// changed environment or config file applies to the next generation.
func APIKey() string {
	return viper.GetString("GEMINI_API_KEY")
}

// ProgressDelay is the configured pause between progress events.
func (c Config) ProgressDelay() time.Duration {
	return time.Duration(c.ProgressDelayMS) * time.Millisecond
}

// ImageFetchTimeout is the configured screenshot download timeout.
func (c Config) ImageFetchTimeout() time.Duration {
	return time.Duration(c.ImageFetchTimeoutSeconds) * time.Second
}
