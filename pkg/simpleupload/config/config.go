package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/postpolicy"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:        "8080",
		Environment: "development",
		DefaultDisk: "memory",
		Disks: []DiskConfig{
			{
				Name:   "memory",
				Type:   "memory",
				Bucket: "uploads",
			},
		},
		EventsSource:       "simple-upload",
		EnableEventLogging: true,
		EnableMetrics:      true,
	}
}

// ServerConfig represents server configuration for the upload service
type ServerConfig struct {
	Port        string `yaml:"port" json:"port" env:"PORT" validate:"required"`
	Environment string `yaml:"environment" json:"environment" env:"ENVIRONMENT" validate:"oneof=development production testing"`

	// Audit log; empty keeps records in memory
	DatabaseURL string `yaml:"database_url" json:"database_url" env:"DATABASE_URL"`
	DBSchema    string `yaml:"db_schema" json:"db_schema" env:"DB_SCHEMA"`

	// Storage configuration
	DefaultDisk string       `yaml:"default_disk" json:"default_disk" env:"DEFAULT_DISK" validate:"required"`
	Disks       []DiskConfig `yaml:"disks" json:"disks" validate:"required,min=1,dive"`

	Endpoints []EndpointConfig `yaml:"endpoints" json:"endpoints" validate:"dive"`

	// Caller identity; empty disables JWT verification
	JWTSecret string `yaml:"jwt_secret" json:"jwt_secret" env:"JWT_SECRET"`

	// CloudEvents target URL; empty disables publishing
	EventsTarget string `yaml:"events_target" json:"events_target" env:"EVENTS_TARGET" validate:"omitempty,url"`
	EventsSource string `yaml:"events_source" json:"events_source" env:"EVENTS_SOURCE"`

	EnableEventLogging bool `yaml:"enable_event_logging" json:"enable_event_logging" env:"ENABLE_EVENT_LOGGING"`
	EnableMetrics      bool `yaml:"enable_metrics" json:"enable_metrics" env:"ENABLE_METRICS"`
}

// DiskConfig represents configuration for a storage disk
type DiskConfig struct {
	Name   string `yaml:"name" json:"name" validate:"required"`
	Type   string `yaml:"type" json:"type" validate:"required,oneof=memory s3"`
	Bucket string `yaml:"bucket" json:"bucket"`

	// s3 only
	Region                 string `yaml:"region" json:"region"`
	AccessKeyID            string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey        string `yaml:"secret_access_key" json:"secret_access_key"`
	SessionToken           string `yaml:"session_token" json:"session_token"`
	Endpoint               string `yaml:"endpoint" json:"endpoint" validate:"omitempty,url"`
	UsePathStyle           bool   `yaml:"use_path_style" json:"use_path_style"`
	CreateBucketIfNotExist bool   `yaml:"create_bucket_if_not_exist" json:"create_bucket_if_not_exist"`
}

// EndpointConfig declares one upload endpoint and its rules
type EndpointConfig struct {
	Name     string `yaml:"name" json:"name" validate:"required"`
	Disk     string `yaml:"disk" json:"disk"`
	Bucket   string `yaml:"bucket" json:"bucket"`
	ACL      string `yaml:"acl" json:"acl" validate:"omitempty,oneof=private public-read"`
	Lifetime string `yaml:"lifetime" json:"lifetime"`
	Multiple bool   `yaml:"multiple" json:"multiple"`

	// Naming is one of keep, anonymous, sanitized or hashed
	Naming string `yaml:"naming" json:"naming" validate:"omitempty,oneof=keep anonymous sanitized hashed"`
	// Path is a static directory, or a template when it contains "{"
	Path string `yaml:"path" json:"path"`

	// Preset names a rule preset applied before Rules
	Preset string       `yaml:"preset" json:"preset"`
	Rules  []RuleConfig `yaml:"rules" json:"rules" validate:"dive"`
}

// RuleConfig is a rule with human readable sizes and lifetime
type RuleConfig struct {
	Name       string   `yaml:"name" json:"name"`
	MinSize    string   `yaml:"min_size" json:"min_size"`
	MaxSize    string   `yaml:"max_size" json:"max_size"`
	Mimes      []string `yaml:"mimes" json:"mimes"`
	Extensions []string `yaml:"extensions" json:"extensions"`
	Lifetime   string   `yaml:"lifetime" json:"lifetime"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report yaml names so errors match the config file
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.DatabaseURL != "" && !isPostgresURL(c.DatabaseURL) {
		return fmt.Errorf("unsupported database_url format: %s (use 'postgresql://...')", c.DatabaseURL)
	}

	disks := make(map[string]bool, len(c.Disks))
	for _, d := range c.Disks {
		if disks[d.Name] {
			return fmt.Errorf("duplicate disk '%s'", d.Name)
		}
		disks[d.Name] = true
	}
	if !disks[c.DefaultDisk] {
		return fmt.Errorf("default disk '%s' not found in configured disks", c.DefaultDisk)
	}

	endpoints := make(map[string]bool, len(c.Endpoints))
	for _, ep := range c.Endpoints {
		if endpoints[ep.Name] {
			return fmt.Errorf("duplicate endpoint '%s'", ep.Name)
		}
		endpoints[ep.Name] = true

		if ep.Disk != "" && !disks[ep.Disk] {
			return fmt.Errorf("endpoint '%s': disk '%s' not found in configured disks", ep.Name, ep.Disk)
		}
		if ep.Lifetime != "" {
			if _, err := postpolicy.ParseLifetime(ep.Lifetime); err != nil {
				return fmt.Errorf("endpoint '%s': %w", ep.Name, err)
			}
		}
		if ep.Preset != "" {
			if _, err := presetRules(ep.Preset); err != nil {
				return fmt.Errorf("endpoint '%s': %w", ep.Name, err)
			}
		}
		for i, rc := range ep.Rules {
			if _, err := rc.Rule(); err != nil {
				return fmt.Errorf("endpoint '%s' rule %d: %w", ep.Name, i, err)
			}
		}
	}

	return nil
}

// Rule converts the config into a simpleupload.Rule
func (rc RuleConfig) Rule() (*simpleupload.Rule, error) {
	opts := []simpleupload.RuleOption{
		simpleupload.RuleName(rc.Name),
		simpleupload.Mimes(rc.Mimes...),
		simpleupload.Extensions(rc.Extensions...),
	}
	if rc.MinSize != "" {
		n, err := simpleupload.ParseSize(rc.MinSize)
		if err != nil {
			return nil, fmt.Errorf("min_size: %w", err)
		}
		opts = append(opts, simpleupload.MinSize(n))
	}
	if rc.MaxSize != "" {
		n, err := simpleupload.ParseSize(rc.MaxSize)
		if err != nil {
			return nil, fmt.Errorf("max_size: %w", err)
		}
		opts = append(opts, simpleupload.MaxSize(n))
	}
	if rc.Lifetime != "" {
		d, err := postpolicy.ParseLifetime(rc.Lifetime)
		if err != nil {
			return nil, fmt.Errorf("lifetime: %w", err)
		}
		opts = append(opts, simpleupload.Lifetime(d))
	}
	return simpleupload.NewRule(opts...)
}

// Endpoint returns the endpoint with the given name
func (c *ServerConfig) Endpoint(name string) (EndpointConfig, bool) {
	for _, ep := range c.Endpoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return EndpointConfig{}, false
}

func isPostgresURL(u string) bool {
	return strings.HasPrefix(u, "postgresql://") || strings.HasPrefix(u, "postgres://")
}
