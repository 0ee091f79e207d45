package config

import (
	"log"
	"os"
	"time"

	"github.com/JonOng2002/microservices-ecommerce/pkg/utils"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string    `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTP      `yaml:"http"`
	Postgres  PG        `yaml:"postgres"`
	Mongo     Mongo     `yaml:"mongo"`
	Redis     Redis     `yaml:"redis"`
	Kafka     Kafka     `yaml:"kafka"`
	Stripe    Stripe    `yaml:"stripe"`
	Identity  Identity  `yaml:"identity"`
	SMTP      SMTP      `yaml:"smtp"`
	Inventory Inventory `yaml:"inventory"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3000"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type PG struct {
	URL string `yaml:"url" env:"DB_URL"`
}

type Mongo struct {
	URL      string `yaml:"url" env:"MONGO_URL" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGO_DB" env-default:"orders"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
}

type Stripe struct {
	SecretKey string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	ReturnURL string `yaml:"return_url" env:"STRIPE_RETURN_URL" env-default:"http://localhost:3002/return?session_id={CHECKOUT_SESSION_ID}"`
}

type Identity struct {
	// PublicMode disables the capability check entirely: every request is
	// treated as anonymous and unauthenticated carts are permitted.
	PublicMode bool   `yaml:"public_mode" env:"IDENTITY_PUBLIC_MODE" env-default:"true"`
	Header     string `yaml:"header" env:"IDENTITY_HEADER" env-default:"Authorization"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User     string `yaml:"user" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
}

type Inventory struct {
	DefaultThreshold int64 `yaml:"default_threshold" env:"INVENTORY_DEFAULT_THRESHOLD" env-default:"5"`
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exists: %v\n", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
