package config

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/napryag/tg_wellness_bot/pkg/utils/errs"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Адрес бэкенда портала; схему допишем сами, если её нет.
	APIBaseURL  string `yaml:"api_base_url" validate:"required"`
	PostgreAddr string `yaml:"postgre_addr" validate:"required"`
	// Период опроса уведомлений, секунды.
	NotifPollSec int `yaml:"notif_poll_sec" validate:"required,min=5"`
	// Сколько дат вперёд предлагать при записи.
	BookingDays int `yaml:"booking_days" validate:"required,min=1,max=14"`
	BotToken    string
}

func LoadConfig() (*Config, error) {
	path := filepath.Join("cmd/bot/etc", "app.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New("failed to read config file").Wrap(err)
	}

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.New("failed to unmarshal YAML").Wrap(err)
	}

	// Адрес бэкенда можно перекрыть окружением (staging/prod).
	if env := os.Getenv("API_BASE_URL"); env != "" {
		cfg.APIBaseURL = env
	}

	// Validate
	if err = validator.New().Struct(cfg); err != nil {
		return nil, errs.New("config validation failed").Wrap(err)
	}

	if err = godotenv.Load(); err != nil {
		return nil, errs.New("failed to load .env").Wrap(err)
	}
	cfg.BotToken = os.Getenv("TG_TOKEN")
	if cfg.BotToken == "" {
		return nil, errs.New("empty token")
	}

	return &cfg, nil
}
