// config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram struct {
		Token string
		Debug bool
	}
	DB struct {
		Host         string
		Port         string
		User         string
		Password     string
		DBName       string
		SSLMode      string
		MaxOpenConns int
		MaxIdleConns int
		ConnLifetime time.Duration
	}
	GPT struct {
		APIKey        string
		Model         string
		BaseURL       string
		Timeout       time.Duration
		Temperature   float64
		TopP          float64
		ChatMaxTokens int
		PlanMaxTokens int
	}
	Coach struct {
		InstructionsPath string
		HistoryWindow    int
		Namespace        string
	}
	Storage struct {
		Driver string
		Path   string
	}
	Log struct {
		Level       string
		Development bool
		File        string
		MaxSizeMB   int
		MaxBackups  int
		MaxAgeDays  int
	}
	Server struct {
		Port string
	}
	ShutdownTimeout time.Duration
}

// Load loads the configuration
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Format follows the file extension (config.yaml, config.json, ...).
	v.SetConfigName("config")

	v.AddConfigPath(".")                    // Look in current directory
	v.AddConfigPath("./config")             // Look in config subdirectory
	v.AddConfigPath("../config")            // Look in sibling config directory
	v.AddConfigPath("$HOME/.fitness-coach") // Look in home directory

	setDefaults(v)

	// Enable environment variables to override config values
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvAliases(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Process any ${ENV_VAR} syntax in the config values
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(value, "}"), "${")
			v.Set(key, os.Getenv(envVar))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate reports settings the bot cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Telegram.Token == "" {
		missing = append(missing, "telegram token")
	}
	if c.GPT.APIKey == "" {
		missing = append(missing, "completion API key")
	}
	if c.DB.Host == "" {
		missing = append(missing, "database host")
	}
	switch c.Storage.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ShutdownTimeout", 10*time.Second)

	v.SetDefault("Telegram.Token", "")
	v.SetDefault("Telegram.Debug", false)

	v.SetDefault("DB.Host", "localhost")
	v.SetDefault("DB.Port", "5432")
	v.SetDefault("DB.User", "postgres")
	v.SetDefault("DB.Password", "postgres")
	v.SetDefault("DB.DBName", "fitness_coach")
	v.SetDefault("DB.SSLMode", "disable")
	v.SetDefault("DB.MaxOpenConns", 20)
	v.SetDefault("DB.MaxIdleConns", 10)
	v.SetDefault("DB.ConnLifetime", 5*time.Minute)

	v.SetDefault("GPT.APIKey", "")
	v.SetDefault("GPT.Model", "gpt-4o-mini")
	v.SetDefault("GPT.BaseURL", "")
	v.SetDefault("GPT.Timeout", 90*time.Second)
	v.SetDefault("GPT.Temperature", 0.7)
	v.SetDefault("GPT.TopP", 0.95)
	v.SetDefault("GPT.ChatMaxTokens", 4096)
	v.SetDefault("GPT.PlanMaxTokens", 16384)

	v.SetDefault("Coach.InstructionsPath", "")
	v.SetDefault("Coach.HistoryWindow", 10)
	v.SetDefault("Coach.Namespace", "coach")

	v.SetDefault("Storage.Driver", "sqlite")
	v.SetDefault("Storage.Path", "data/coach.db")

	v.SetDefault("Log.Level", "info")
	v.SetDefault("Log.Development", false)
	v.SetDefault("Log.File", "")
	v.SetDefault("Log.MaxSizeMB", 50)
	v.SetDefault("Log.MaxBackups", 3)
	v.SetDefault("Log.MaxAgeDays", 28)

	v.SetDefault("Server.Port", "8080")
}

// bindEnvAliases keeps the variable names used by existing deployments.
func bindEnvAliases(v *viper.Viper) {
	_ = v.BindEnv("GPT.APIKey", "GPT_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("GPT.BaseURL", "GPT_BASE_URL")
	_ = v.BindEnv("DB.DBName", "DB_NAME")
	_ = v.BindEnv("DB.SSLMode", "DB_SSL_MODE")
	_ = v.BindEnv("Storage.Path", "STORAGE_PATH")
	_ = v.BindEnv("Log.Level", "LOG_LEVEL")
}
