package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	StaticPath     string        `mapstructure:"static_path"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	Secret         string        `mapstructure:"secret"`
	LogLevel       string        `mapstructure:"log_level"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	InboxSize      int           `mapstructure:"inbox_size"`
	TypingDebounce time.Duration `mapstructure:"typing_debounce"`
	HistoryLimit   int           `mapstructure:"history_limit"`
	ICEServers     []string      `mapstructure:"ice_servers"`

	RateLimit RateLimit `mapstructure:"rate_limit"`
	Upload    Upload    `mapstructure:"upload"`
	Redis     Redis     `mapstructure:"redis"`
	Postgres  Postgres  `mapstructure:"postgres"`
	Roles     Roles     `mapstructure:"roles"`
}

type RateLimit struct {
	Events   int           `mapstructure:"events"`
	Interval time.Duration `mapstructure:"interval"`
}

type Upload struct {
	Dir       string `mapstructure:"dir"`
	MaxSize   int64  `mapstructure:"max_size"`
	PublicURL string `mapstructure:"public_url"`
}

type Redis struct {
	Addr    string `mapstructure:"addr"`
	History int    `mapstructure:"history"`
}

type Postgres struct {
	DSN string `mapstructure:"dsn"`
}

type Roles struct {
	Default string   `mapstructure:"default"`
	Admins  []string `mapstructure:"admins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("inbox_size", 1024)
	v.SetDefault("typing_debounce", "1s")
	v.SetDefault("history_limit", 500)
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("rate_limit.events", 20)
	v.SetDefault("rate_limit.interval", "1s")
	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.max_size", 25<<20)
	v.SetDefault("upload.public_url", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.history", 200)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("roles.default", "member")
	v.SetDefault("roles.admins", []string{})
}

// Load reads config/config.<CONFIG_ENV>.yaml. CHAT_* environment variables
// override file values, e.g. CHAT_REDIS_ADDR.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Static: %s\n", cfg.Mode, cfg.Port, cfg.StaticPath)
	return &cfg, nil
}
