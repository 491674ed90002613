package config

import "github.com/caarlos0/env/v11"

type WatchConfig struct {
	BaseWSURL string `env:"WS_URL" envDefault:"ws://localhost:8080"`
	Code      string `env:"SESSION_CODE"`
	UserID    string `env:"USER_ID" envDefault:"watcher"`
	UserName  string `env:"USER_NAME" envDefault:"Watcher"`
}

func LoadWatch() (WatchConfig, error) {
	var cfg WatchConfig
	err := env.Parse(&cfg)
	return cfg, err
}
