package config

import (
	"fmt"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase enables the Postgres audit log
func WithDatabase(url, schema string) Option {
	return func(c *ServerConfig) error {
		if url != "" && !isPostgresURL(url) {
			return fmt.Errorf("database URL must be postgresql://..., got: %s", url)
		}
		c.DatabaseURL = url
		c.DBSchema = schema
		return nil
	}
}

// WithDefaultDisk sets the disk endpoints use when they do not name one
func WithDefaultDisk(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			return fmt.Errorf("default disk name cannot be empty")
		}
		c.DefaultDisk = name
		return nil
	}
}

// WithMemoryDisk adds an in-memory disk
// If name is empty, defaults to "memory"
func WithMemoryDisk(name, bucket string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "memory"
		}
		c.Disks = upsertDisk(c.Disks, DiskConfig{Name: name, Type: "memory", Bucket: bucket})
		return nil
	}
}

// WithS3Disk adds an S3 disk
// If name is empty, defaults to "s3"
func WithS3Disk(name string, disk DiskConfig) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		disk.Name = name
		disk.Type = "s3"
		if disk.Region == "" {
			disk.Region = "us-east-1"
		}
		c.Disks = upsertDisk(c.Disks, disk)
		return nil
	}
}

// WithEndpoint adds or replaces an upload endpoint
func WithEndpoint(endpoint EndpointConfig) Option {
	return func(c *ServerConfig) error {
		if endpoint.Name == "" {
			return fmt.Errorf("endpoint name cannot be empty")
		}
		for i := range c.Endpoints {
			if c.Endpoints[i].Name == endpoint.Name {
				c.Endpoints[i] = endpoint
				return nil
			}
		}
		c.Endpoints = append(c.Endpoints, endpoint)
		return nil
	}
}

// WithJWTSecret enables HS256 caller tokens
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithEventsTarget publishes CloudEvents to target
func WithEventsTarget(target, source string) Option {
	return func(c *ServerConfig) error {
		c.EventsTarget = target
		if source != "" {
			c.EventsSource = source
		}
		return nil
	}
}

// WithEventLogging enables or disables the logging event sink
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithMetrics enables or disables Prometheus metrics
func WithMetrics(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableMetrics = enabled
		return nil
	}
}
