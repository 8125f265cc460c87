package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-transcoder/internal/transcode"
)

// Config holds the main configuration for the application.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
	Storage   Storage   `mapstructure:"storage"`
	Kafka     Kafka     `mapstructure:"kafka"`
	Retry     Retry     `mapstructure:"retry"`
	Transcode Transcode `mapstructure:"transcode"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort       string   `mapstructure:"http_port"`        // HTTP port to listen on
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"` // Multipart body limit
	AllowedOrigins []string `mapstructure:"allowed_origins"`  // CORS origins of the upload forms
}

// Database holds database master and slave configuration.
type Database struct {
	Master DatabaseNode   `mapstructure:"master"`
	Slaves []DatabaseNode `mapstructure:"slaves"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DatabaseNode holds connection parameters for a single database node.
type DatabaseNode struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"ssl_mode"`
}

// Storage holds configuration for the object storage backend.
type Storage struct {
	Endpoint   string `mapstructure:"endpoint"`
	AccessKey  string `mapstructure:"access_key"`
	SecretKey  string `mapstructure:"secret_key"`
	BucketName string `mapstructure:"bucket_name"`
	UseSSL     bool   `mapstructure:"use_ssl"`
}

// Kafka holds configuration for the Kafka message queue.
type Kafka struct {
	GroupID string   `mapstructure:"group_id"` // Consumer group ID
	Topic   string   `mapstructure:"topic"`    // Kafka topic name
	Brokers []string `mapstructure:"brokers"`  // List of Kafka broker addresses
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// Transcode configures the pipeline and the per-form constraint profiles.
type Transcode struct {
	Workers         int                `mapstructure:"workers"`           // Concurrent transcodes, 0 = GOMAXPROCS
	Rasterizer      string             `mapstructure:"rasterizer"`        // imaging, draw or canvas
	Filter          string             `mapstructure:"filter"`            // Resampling filter for the rasterizer
	Transport       string             `mapstructure:"transport"`         // binary, base64 or data-url
	MaxSourcePixels int                `mapstructure:"max_source_pixels"` // Decode guard
	Profiles        map[string]Profile `mapstructure:"profiles"`
}

// Profile is the externalized constraint set of one upload form.
type Profile struct {
	MaxDimension     int       `mapstructure:"max_dimension"`
	MaxOutputBytes   int64     `mapstructure:"max_output_bytes"`
	QualityLadder    []float64 `mapstructure:"quality_ladder"`
	PNGQualityLadder []float64 `mapstructure:"png_quality_ladder"`
	ShrinkFactor     float64   `mapstructure:"shrink_factor"`
	MaxShrinkRounds  *int      `mapstructure:"max_shrink_rounds"` // required
}

// DSN returns the PostgreSQL DSN string for connecting to this database node.
func (n DatabaseNode) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		n.User, n.Pass, n.Host, n.Port, n.Name, n.SSLMode,
	)
}

// Constraints converts every profile and validates it.
func (t Transcode) Constraints() (map[string]transcode.Constraints, error) {
	transport, err := transcode.ParseTransport(t.Transport)
	if err != nil {
		return nil, err
	}

	if len(t.Profiles) == 0 {
		return nil, fmt.Errorf("transcode: no profiles configured")
	}

	out := make(map[string]transcode.Constraints, len(t.Profiles))
	for name, p := range t.Profiles {
		if p.MaxShrinkRounds == nil {
			return nil, fmt.Errorf("profile %q: max_shrink_rounds is required", name)
		}

		c := transcode.Constraints{
			MaxDimension:          p.MaxDimension,
			MaxOutputBytes:        p.MaxOutputBytes,
			QualityLadder:         p.QualityLadder,
			PNGQualityLadder:      p.PNGQualityLadder,
			DimensionShrinkFactor: p.ShrinkFactor,
			MaxShrinkRounds:       *p.MaxShrinkRounds,
			Transport:             transport,
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}

		out[strings.ToLower(name)] = c
	}

	return out, nil
}

// ProfileNames returns the configured profile names in order.
func (t Transcode) ProfileNames() []string {
	names := make([]string, 0, len(t.Profiles))
	for name := range t.Profiles {
		names = append(names, strings.ToLower(name))
	}
	sort.Strings(names)

	return names
}

// bindEnv binds critical environment variables to Viper keys.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"database.master.host": "DB_HOST",
		"database.master.port": "DB_PORT",
		"database.master.user": "DB_USER",
		"database.master.pass": "DB_PASSWORD",
		"database.master.name": "DB_NAME",
		"storage.access_key":   "MINIO_ACCESS_KEY",
		"storage.secret_key":   "MINIO_SECRET_KEY",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	return nil
}

// Load reads the YAML configuration at path, overlaid with the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("transcode.rasterizer", "imaging")
	v.SetDefault("transcode.filter", "linear")
	v.SetDefault("transcode.transport", "base64")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads the configuration from the specified file path.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to load config")
	}

	return cfg
}
