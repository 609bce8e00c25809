package config

import (
	"os"

	"github.com/Skotchmaster/civic_mirror/pkg/config"
)

type ElasticConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type ServiceConfig struct {
	config.Config

	Elastic ElasticConfig
	Minio   MinioConfig
}

// Load reads the environment. It does not validate; call Validate.
func Load() ServiceConfig {
	return ServiceConfig{
		Config: config.Load(),
		Elastic: ElasticConfig{
			URL:      os.Getenv("ES_URL"),
			User:     os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    config.EnvDefault("ES_INDEX", "reports"),
		},
		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    config.EnvDefault("MINIO_BUCKET", "reports"),
			UseSSL:    config.EnvBoolDefault("MINIO_USE_SSL", false),
			PublicURL: os.Getenv("IMAGE_PUBLIC_URL"),
		},
	}
}

func (c ServiceConfig) Validate() error {
	return config.Required{
		"DATABASE_URL":       c.DatabaseURL,
		"JWT_SECRET":         string(c.JWTAccessSecret),
		"JWT_REFRESH_SECRET": string(c.JWTRefreshSecret),
	}.Check()
}
