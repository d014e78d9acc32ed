package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio y del job de ingesta.
type Config struct {
	HTTPPort      string `env:"HTTP_PORT" envDefault:"5000"`
	DatabaseURL   string `env:"DATABASE_URL,required"`
	PayloadDir    string `env:"PAYLOAD_DIR" envDefault:"sample_payloads"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	EventChannel  string `env:"EVENT_CHANNEL" envDefault:"chat:events"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
