package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Database    DatabaseConfig    `mapstructure:"database"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Auth        AuthConfig        `mapstructure:"auth"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
	Speech      SpeechConfig      `mapstructure:"speech"`
	Interpreter InterpreterConfig `mapstructure:"interpreter"`
	Vocabulary  VocabularyConfig  `mapstructure:"vocabulary"`
	Redis       RedisConfig       `mapstructure:"redis"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Addr           string        `mapstructure:"addr"`
	MaxConns       int           `mapstructure:"max_conns"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver     string `mapstructure:"driver"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	// FallbackUserID serves unauthenticated voice commands. 0 rejects them.
	FallbackUserID int `mapstructure:"fallback_user_id"`
}

type OpenAIConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	TranscriptionModel string `mapstructure:"transcription_model"`
	SpeechModel        string `mapstructure:"speech_model"`
	DefaultVoice       string `mapstructure:"default_voice"`
}

type SpeechConfig struct {
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type InterpreterConfig struct {
	Timezone   string           `mapstructure:"timezone"`
	RulesFile  string           `mapstructure:"rules_file"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
}

type ThresholdsConfig struct {
	Date     float64 `mapstructure:"date"`
	Complete float64 `mapstructure:"complete"`
	Start    float64 `mapstructure:"start"`
	Status   float64 `mapstructure:"status"`
	Delete   float64 `mapstructure:"delete"`
}

type VocabularyConfig struct {
	// Backend is "sql" or "file".
	Backend  string        `mapstructure:"backend"`
	Dir      string        `mapstructure:"dir"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "production")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.max_conns", 256)
	v.SetDefault("http.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.max_upload_bytes", 10<<20)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sqlite_path", "ocastro.db")
	v.SetDefault("jwt.ttl", 5*time.Hour)
	v.SetDefault("auth.fallback_user_id", 0)
	v.SetDefault("openai.base_url", "https://api.openai.com")
	v.SetDefault("openai.transcription_model", "whisper-1")
	v.SetDefault("openai.speech_model", "tts-1")
	v.SetDefault("openai.default_voice", "onyx")
	v.SetDefault("speech.language", "pt")
	v.SetDefault("speech.timeout", 30*time.Second)
	v.SetDefault("interpreter.timezone", "America/Sao_Paulo")
	v.SetDefault("interpreter.rules_file", "")
	v.SetDefault("interpreter.thresholds.date", 0.60)
	v.SetDefault("interpreter.thresholds.complete", 0.65)
	v.SetDefault("interpreter.thresholds.start", 0.70)
	v.SetDefault("interpreter.thresholds.status", 0.70)
	v.SetDefault("interpreter.thresholds.delete", 0.70)
	v.SetDefault("vocabulary.backend", "sql")
	v.SetDefault("vocabulary.dir", "vocabulary")
	v.SetDefault("vocabulary.cache_ttl", 10*time.Minute)
	v.SetDefault("nats.subject", "ocastro.voice.commands")
	v.SetDefault("logging.level", "info")
}

// legacyEnv maps keys to the unprefixed variables older deployments set.
var legacyEnv = map[string]string{
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"database.driver":   "DATABASE_DRIVER",
	"jwt.secret":        "JWT_SECRET",
	"openai.api_key":    "OPENAI_API_KEY",
	"redis.url":         "REDIS_URL",
	"nats.url":          "NATS_URL",
	"logging.level":     "LOG_LEVEL",
	"app.environment":   "APP_ENVIRONMENT",
}

// Load reads path (optional; "" searches ./config.yaml and ./configs) and
// overlays OCASTRO_* and legacy environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("OCASTRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "OCASTRO_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}
	switch c.Vocabulary.Backend {
	case "sql", "file":
	default:
		return fmt.Errorf("config: unknown vocabulary.backend %q", c.Vocabulary.Backend)
	}
	if c.Auth.FallbackUserID < 0 {
		return fmt.Errorf("config: auth.fallback_user_id must not be negative")
	}
	return nil
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name,
	)
}
