package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
	Poller   PollerConfig   `yaml:"poller"`
	Provider ProviderConfig `yaml:"provider"`
	Credits  CreditsConfig  `yaml:"credits"`
	Admin    AdminConfig    `yaml:"admin"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

// RabbitMQConfig holds RabbitMQ connection and outcome exchange configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// PollerConfig holds the scheduler settings
type PollerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	Concurrency  int           `yaml:"concurrency"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`
	JobDeadline  time.Duration `yaml:"job_deadline"`
	BackoffBase  time.Duration `yaml:"backoff_base"`
	BackoffMax   time.Duration `yaml:"backoff_max"`
}

// ProviderConfig holds the face-swap provider client settings
type ProviderConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// CreditsConfig holds the per-kind swap cost in credits
type CreditsConfig struct {
	ImageCost int64 `yaml:"image_cost"`
	VideoCost int64 `yaml:"video_cost"`
	OtherCost int64 `yaml:"other_cost"`
}

// AdminConfig holds the admin surface settings
type AdminConfig struct {
	Token string `yaml:"token"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// ValidateAPIConfig checks the fields the API service depends on
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.validateShared(); err != nil {
		return err
	}

	if c.Credits.ImageCost <= 0 || c.Credits.VideoCost <= 0 || c.Credits.OtherCost <= 0 {
		return fmt.Errorf("credit costs must be greater than 0")
	}

	if c.Admin.Token == "" {
		return fmt.Errorf("admin token is required")
	}

	return nil
}

// ValidatePollerConfig checks the fields the poller service depends on. The
// poller is the only service that publishes, so the RabbitMQ settings are
// checked here and not in validateShared.
func (c *Config) ValidatePollerConfig() error {
	if err := c.validateShared(); err != nil {
		return err
	}

	if c.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}

	if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	if c.Poller.TickInterval <= 0 {
		return fmt.Errorf("poller tick_interval must be greater than 0")
	}

	if c.Poller.Concurrency <= 0 {
		return fmt.Errorf("poller concurrency must be greater than 0")
	}

	if c.Poller.PollTimeout <= 0 {
		return fmt.Errorf("poller poll_timeout must be greater than 0")
	}

	if c.Poller.JobDeadline <= c.Poller.TickInterval {
		return fmt.Errorf("poller job_deadline must exceed tick_interval")
	}

	if c.Poller.BackoffBase <= 0 || c.Poller.BackoffMax < c.Poller.BackoffBase {
		return fmt.Errorf("poller backoff_base must be positive and backoff_max must not be below it")
	}

	return nil
}

// validateShared checks fields both services depend on
func (c *Config) validateShared() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base_url is required")
	}

	return nil
}

// SwapCost returns the configured cost for a job kind; 0 means unknown kind
func (c *CreditsConfig) SwapCost(kind string) int64 {
	switch kind {
	case "image":
		return c.ImageCost
	case "video":
		return c.VideoCost
	case "other":
		return c.OtherCost
	}
	return 0
}
