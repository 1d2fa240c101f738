package config

import (
	"fmt"
	"log"
	"lovealbum/entity"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
	StorageMySQL  = "mysql"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env:"LISTEN_BIND_IP" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env:"LISTEN_PORT" env-default:"8080"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
	User     string `yaml:"user" env:"MONGO_USER" env-default:""`
	Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"lovealbum"`
}

type MySQLConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	HostName string `yaml:"hostname" env:"MYSQL_HOST" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"MYSQL_PORT" env-default:"3306"`
	UserName string `yaml:"username" env:"MYSQL_USER" env-default:""`
	Password string `yaml:"password" env:"MYSQL_PASSWORD" env-default:""`
	Database string `yaml:"database" env:"MYSQL_DATABASE" env-default:"lovealbum"`
	Prefix   string `yaml:"prefix" env-default:""`
}

type TelegramConfig struct {
	Enabled  bool    `yaml:"enabled" env-default:"false"`
	ApiKey   string  `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
	AdminIds []int64 `yaml:"admin_ids"`

	// ForwardLogs sends warnings and errors to the admins
	ForwardLogs bool `yaml:"forward_logs" env-default:"true"`
}

type AdminConfig struct {
	Users []entity.User `yaml:"users"`
}

type AlbumConfig struct {
	PublicURL  string        `yaml:"public_url" env:"PUBLIC_URL" env-default:"http://localhost:8080"`
	EntryDelay time.Duration `yaml:"entry_delay" env-default:"800ms"`
	DraftTTL   time.Duration `yaml:"draft_ttl" env-default:"2h"`
	SessionTTL time.Duration `yaml:"session_ttl" env-default:"1h"`
	SeedDemo   bool          `yaml:"seed_demo" env-default:"true"`

	// WatchInterval is how often codes are scanned for edit window milestones; 0 disables the scan
	WatchInterval time.Duration `yaml:"watch_interval" env-default:"5m"`
	ClosingNotice time.Duration `yaml:"closing_notice" env-default:"1h"`
}

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Listen   Listen         `yaml:"listen"`
	Storage  StorageConfig  `yaml:"storage"`
	Mongo    MongoConfig    `yaml:"mongo"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Telegram TelegramConfig `yaml:"telegram"`
	Admin    AdminConfig    `yaml:"admin"`
	Album    AlbumConfig    `yaml:"album"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
		if err = instance.check(); err != nil {
			log.Fatal(fmt.Errorf("config: %w", err))
		}
	})
	return instance
}

// Default returns a config populated from env-default tags and the environment only.
func Default() (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadEnv(conf); err != nil {
		return nil, err
	}
	return conf, conf.check()
}

func (c *Config) check() error {
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageMongo:
		if !c.Mongo.Enabled {
			return fmt.Errorf("storage driver %q requires mongo.enabled", c.Storage.Driver)
		}
	case StorageMySQL:
		if !c.MySQL.Enabled {
			return fmt.Errorf("storage driver %q requires mysql.enabled", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Telegram.Enabled && c.Telegram.ApiKey == "" {
		return fmt.Errorf("telegram enabled without api_key")
	}
	return nil
}
