package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ClientConfig хранит настройки терминального клиента
type ClientConfig struct {
	// APIURL - базовый адрес сервера
	APIURL string `mapstructure:"api_url"`

	// StateFile - файл локального хранилища клиента (аналог localStorage)
	StateFile string `mapstructure:"state_file"`

	// TimeoutSec - таймаут HTTP-запросов
	TimeoutSec int `mapstructure:"timeout_sec"`

	Admin      AdminConfig
	Assessment AssessmentConfig
}

// AdminConfig содержит статические учетные данные администратора.
// Password может быть открытым текстом или bcrypt-хешем.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// AssessmentConfig содержит настройки прохождения теста
type AssessmentConfig struct {
	DurationSec            int  `mapstructure:"duration_sec"`
	SubmitRetries          uint `mapstructure:"submit_retries"`
	RetryInitialIntervalMs int  `mapstructure:"retry_initial_interval_ms"`
}

// Duration возвращает длительность теста
func (a AssessmentConfig) Duration() time.Duration {
	return time.Duration(a.DurationSec) * time.Second
}

// RetryInitialInterval возвращает паузу перед повторной отправкой
func (a AssessmentConfig) RetryInitialInterval() time.Duration {
	return time.Duration(a.RetryInitialIntervalMs) * time.Millisecond
}

// Timeout возвращает таймаут HTTP-запросов
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".assessment-state.json"
	}
	return filepath.Join(home, ".assessment", "state.json")
}

// LoadClient загружает конфигурацию клиента
func LoadClient(configPath string) (*ClientConfig, error) {
	vip := viper.New()

	vip.SetDefault("api_url", "http://localhost:5000")
	vip.SetDefault("state_file", defaultStateFile())
	vip.SetDefault("timeout_sec", 15)
	vip.SetDefault("assessment.duration_sec", 30*60)
	vip.SetDefault("assessment.submit_retries", 3)
	vip.SetDefault("assessment.retry_initial_interval_ms", 500)

	vip.BindEnv("api_url", "ASSESSMENT_API_URL")
	vip.BindEnv("state_file", "ASSESSMENT_STATE_FILE")
	vip.BindEnv("timeout_sec", "ASSESSMENT_TIMEOUT_SEC")
	vip.BindEnv("admin.email", "ASSESSMENT_ADMIN_EMAIL")
	vip.BindEnv("admin.password", "ASSESSMENT_ADMIN_PASSWORD")
	vip.BindEnv("assessment.duration_sec", "ASSESSMENT_DURATION_SEC")
	vip.BindEnv("assessment.submit_retries", "ASSESSMENT_SUBMIT_RETRIES")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			log.Printf("Предупреждение: не удалось прочитать файл конфигурации клиента '%s': %v", configPath, err)
		}
	}

	var cfg ClientConfig
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal client config: %w", err)
	}

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("api_url is required (check ASSESSMENT_API_URL env var)")
	}
	if cfg.Assessment.DurationSec < 1 {
		return nil, fmt.Errorf("assessment duration_sec must be positive")
	}
	if cfg.Assessment.SubmitRetries == 0 {
		cfg.Assessment.SubmitRetries = 1
	}

	return &cfg, nil
}
