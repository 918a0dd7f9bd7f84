package config

import (
	"os"

	"github.com/go-yaml/yaml"

	"github.com/promptdeck/syncengine/internal/domain"
)

type Config struct {
	App    domain.Config `yaml:"app"`
	Server Server        `yaml:"server"`
}

type Server struct {
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.App.ListenAddr == "" {
		config.App.ListenAddr = ":8000"
	}
	if config.App.StateFile == "" {
		config.App.StateFile = "localstate.json"
	}

	return config, nil
}
