package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки сервера
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Email     EmailConfig
	CORS      CORSConfig
	WebSocket WebSocketConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// StorageConfig содержит настройки файлового хранилища коллекций
type StorageConfig struct {
	// DataDir - каталог с users.json, submissions.json и questions.json
	DataDir string `mapstructure:"data_dir"`

	// QuestionSeed - необязательный файл, из которого заполняется questions.json при его отсутствии
	QuestionSeed string `mapstructure:"question_seed"`

	// WriteRetries - количество попыток записи файла коллекции
	WriteRetries int `mapstructure:"write_retries"`

	// RetryInitialIntervalMs - пауза перед повторной записью (в миллисекундах)
	RetryInitialIntervalMs int `mapstructure:"retry_initial_interval_ms"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Enabled: Redis необязателен, без него кеш вопросов и rate limit работают в памяти процесса.
	Enabled bool `mapstructure:"enabled"`

	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт).
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`

	// KeyPrefix добавляется ко всем ключам кеша
	KeyPrefix string `mapstructure:"key_prefix"`

	// QuestionsTTLSec - время жизни кеша банка вопросов. 0 отключает кеш, и правки
	// questions.json видны сразу; при TTL > 0 они видны после истечения кеша.
	QuestionsTTLSec int `mapstructure:"questions_ttl_sec"`
}

// RateLimitConfig содержит настройки ограничения частоты входов
type RateLimitConfig struct {
	LoginMaxRequests int `mapstructure:"login_max_requests"`
	LoginWindowSec   int `mapstructure:"login_window_sec"`
}

// EmailConfig содержит настройки отправки квитанций об отправке теста
type EmailConfig struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
}

// CORSConfig содержит список разрешенных источников
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// WebSocketConfig содержит настройки live-ленты администратора
type WebSocketConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	ClientSendBuffer int  `mapstructure:"client_send_buffer"`
}

// QuestionsTTL возвращает TTL кеша вопросов
func (r RedisConfig) QuestionsTTL() time.Duration {
	return time.Duration(r.QuestionsTTLSec) * time.Second
}

// LoginWindow возвращает окно rate limit для входа
func (r RateLimitConfig) LoginWindow() time.Duration {
	return time.Duration(r.LoginWindowSec) * time.Second
}

// RetryInitialInterval возвращает паузу перед повторной записью
func (s StorageConfig) RetryInitialInterval() time.Duration {
	return time.Duration(s.RetryInitialIntervalMs) * time.Millisecond
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "5000")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 15)

	vip.SetDefault("storage.data_dir", "data")
	vip.SetDefault("storage.write_retries", 3)
	vip.SetDefault("storage.retry_initial_interval_ms", 50)

	vip.SetDefault("redis.enabled", false)
	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.key_prefix", "assessment")
	vip.SetDefault("redis.questions_ttl_sec", 0)

	vip.SetDefault("rate_limit.login_max_requests", 10)
	vip.SetDefault("rate_limit.login_window_sec", 60)

	vip.SetDefault("cors.allow_origins", []string{"*"})

	vip.SetDefault("websocket.enabled", true)
	vip.SetDefault("websocket.client_send_buffer", 64)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	setDefaults(vip)

	// 2. Привязываем переменные окружения ЯВНО
	// PORT оставлен для совместимости со старым деплоем
	vip.BindEnv("server.port", "SERVER_PORT", "PORT")

	vip.BindEnv("storage.data_dir", "STORAGE_DATA_DIR")
	vip.BindEnv("storage.question_seed", "STORAGE_QUESTION_SEED")
	vip.BindEnv("storage.write_retries", "STORAGE_WRITE_RETRIES")

	vip.BindEnv("redis.enabled", "REDIS_ENABLED")
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")
	vip.BindEnv("redis.questions_ttl_sec", "REDIS_QUESTIONS_TTL_SEC")

	vip.BindEnv("rate_limit.login_max_requests", "RATE_LIMIT_LOGIN_MAX_REQUESTS")
	vip.BindEnv("rate_limit.login_window_sec", "RATE_LIMIT_LOGIN_WINDOW_SEC")

	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	vip.BindEnv("cors.allow_origins", "CORS_ALLOW_ORIGINS")

	vip.BindEnv("websocket.enabled", "WEBSOCKET_ENABLED")

	// 3. Читаем файл конфигурации (не страшно, если его нет, т.к. есть BindEnv и умолчания)
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим конфигурацию
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Storage Data Dir: %s", cfg.Storage.DataDir)
		log.Printf("Storage Question Seed: %s", cfg.Storage.QuestionSeed)
		log.Printf("Redis Enabled: %t", cfg.Redis.Enabled)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Email Enabled: %t", cfg.Email.ResendAPIKey != "")
		log.Printf("Websocket Enabled: %t", cfg.WebSocket.Enabled)
		log.Printf("-----------------------------------------")
	}

	// 5. Проверка обязательных параметров
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required (check SERVER_PORT env var)")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage data_dir is required (check STORAGE_DATA_DIR env var)")
	}
	if c.Storage.WriteRetries < 1 {
		return fmt.Errorf("storage write_retries must be at least 1")
	}
	if c.Redis.Enabled && len(c.Redis.Addrs) == 0 && c.Redis.Addr == "" {
		return fmt.Errorf("redis is enabled but no address is configured (check REDIS_ADDR or REDIS_ADDRS env vars)")
	}
	if c.RateLimit.LoginMaxRequests < 1 || c.RateLimit.LoginWindowSec < 1 {
		return fmt.Errorf("rate_limit login_max_requests and login_window_sec must be positive")
	}
	if c.Email.ResendAPIKey != "" && c.Email.From == "" {
		return fmt.Errorf("email from is required when RESEND_API_KEY is set (check EMAIL_FROM env var)")
	}
	return nil
}
