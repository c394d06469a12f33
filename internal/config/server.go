package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	// Key material for the identity gate. The key id travels as the
	// token prefix so keys can rotate without invalidating old tokens.
	TokenKeyID  string `env:"TOKEN_KEY_ID" envDefault:"k1"`
	TokenSecret string `env:"TOKEN_SECRET"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
