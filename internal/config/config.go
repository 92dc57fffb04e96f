package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort  string    `yaml:"http-port" env:"PORT" env-default:"3000"`
	StaticDir string    `yaml:"static-dir" env:"STATIC_DIR" env-default:"./public"`
	Match     Match     `yaml:"match"`
	Admission Admission `yaml:"admission"`
	Score     Score     `yaml:"score"`
	Websocket Websocket `yaml:"websocket"`
	Redis     Redis     `yaml:"redis"`
	Metrics   Metrics   `yaml:"metrics"`
}

type Match struct {
	ResetDelay       time.Duration `yaml:"reset-delay" env:"MATCH_RESET_DELAY" env-default:"1s"`
	FirstMover       string        `yaml:"first-mover" env:"MATCH_FIRST_MOVER" env-default:"x"`
	Seed             uint64        `yaml:"seed" env:"MATCH_SEED"`
	NotifyRejections bool          `yaml:"notify-rejections" env:"MATCH_NOTIFY_REJECTIONS" env-default:"false"`
}

type Admission struct {
	CheckOnConnect bool `yaml:"check-on-connect" env:"ADMISSION_CHECK_ON_CONNECT" env-default:"false"`
}

type Score struct {
	Enabled bool `yaml:"enabled" env:"SCORE_ENABLED" env-default:"true"`
}

type Websocket struct {
	AllowedOrigins []string `yaml:"allowed-origins" env:"WS_ALLOWED_ORIGINS" env-separator:","`
	SendBuffer     int      `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"64"`
}

type Redis struct {
	Enabled bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	TTL     time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"1h"`
}

type Metrics struct {
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE" env-default:"tictactoe"`
}

// Load reads path when it exists, then applies environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to load config from env: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to stat config file: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
