package envconfig

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type jwtEnv struct {
	Secret   string        `env:"JWT_SECRET,required"`
	TokenTTL time.Duration `env:"JWT_TOKEN_TTL" envDefault:"24h"`
}

type jwt struct {
	raw jwtEnv
}

func NewJWTConfig() (*jwt, error) {
	var raw jwtEnv
	if err := env.Parse(&raw); err != nil {
		return nil, err
	}
	return &jwt{raw: raw}, nil
}

func (cfg *jwt) Secret() []byte          { return []byte(cfg.raw.Secret) }
func (cfg *jwt) TokenTTL() time.Duration { return cfg.raw.TokenTTL }
