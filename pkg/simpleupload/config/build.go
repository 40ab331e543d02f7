package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/tendant/simple-upload/pkg/simpleupload"
	cesink "github.com/tendant/simple-upload/pkg/simpleupload/events/cloudevents"
	"github.com/tendant/simple-upload/pkg/simpleupload/metrics"
	"github.com/tendant/simple-upload/pkg/simpleupload/objectkey"
	"github.com/tendant/simple-upload/pkg/simpleupload/postpolicy"
	"github.com/tendant/simple-upload/pkg/simpleupload/presets"
	"github.com/tendant/simple-upload/pkg/simpleupload/repo"
	repomemory "github.com/tendant/simple-upload/pkg/simpleupload/repo/memory"
	repopg "github.com/tendant/simple-upload/pkg/simpleupload/repo/postgres"
	"github.com/tendant/simple-upload/pkg/simpleupload/storage"
	memorydisk "github.com/tendant/simple-upload/pkg/simpleupload/storage/memory"
	s3disk "github.com/tendant/simple-upload/pkg/simpleupload/storage/s3"
)

// BuildRegistry creates every configured disk
func (c *ServerConfig) BuildRegistry(ctx context.Context) (*storage.Registry, error) {
	registry := storage.NewRegistry()
	for _, dc := range c.Disks {
		disk, err := buildDisk(ctx, dc)
		if err != nil {
			return nil, fmt.Errorf("failed to build disk %s: %w", dc.Name, err)
		}
		registry.Register(disk)
	}
	return registry, nil
}

func buildDisk(ctx context.Context, dc DiskConfig) (simpleupload.Disk, error) {
	switch dc.Type {
	case "memory":
		return memorydisk.New(dc.Name, dc.Bucket), nil
	case "s3":
		return s3disk.New(ctx, s3disk.Config{
			Name:                   dc.Name,
			Region:                 dc.Region,
			Bucket:                 dc.Bucket,
			AccessKeyID:            dc.AccessKeyID,
			SecretAccessKey:        dc.SecretAccessKey,
			SessionToken:           dc.SessionToken,
			Endpoint:               dc.Endpoint,
			UsePathStyle:           dc.UsePathStyle,
			CreateBucketIfNotExist: dc.CreateBucketIfNotExist,
		})
	default:
		return nil, fmt.Errorf("unsupported disk type: %s", dc.Type)
	}
}

// BuildUploaders creates one uploader per configured endpoint. extra options
// (event sink, logger) are applied to every uploader.
func (c *ServerConfig) BuildUploaders(disks simpleupload.DiskResolver, extra ...simpleupload.Option) (map[string]*simpleupload.Uploader, error) {
	uploaders := make(map[string]*simpleupload.Uploader, len(c.Endpoints))
	for _, ep := range c.Endpoints {
		opts, err := c.endpointOptions(ep)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", ep.Name, err)
		}
		opts = append(opts, simpleupload.WithDisks(disks))
		opts = append(opts, extra...)

		u, err := simpleupload.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("endpoint %s: %w", ep.Name, err)
		}
		uploaders[ep.Name] = u
	}
	return uploaders, nil
}

func (c *ServerConfig) endpointOptions(ep EndpointConfig) ([]simpleupload.Option, error) {
	disk := ep.Disk
	if disk == "" {
		disk = c.DefaultDisk
	}
	opts := []simpleupload.Option{
		simpleupload.WithName(ep.Name),
		simpleupload.WithDisk(disk),
		simpleupload.WithMultiple(ep.Multiple),
	}
	if ep.Bucket != "" {
		opts = append(opts, simpleupload.WithBucket(ep.Bucket))
	}
	if ep.ACL != "" {
		opts = append(opts, simpleupload.WithACL(ep.ACL))
	}
	if ep.Lifetime != "" {
		d, err := postpolicy.ParseLifetime(ep.Lifetime)
		if err != nil {
			return nil, err
		}
		opts = append(opts, simpleupload.WithLifetime(d))
	}

	switch ep.Naming {
	case "", "keep":
	case "anonymous":
		opts = append(opts, simpleupload.WithNaming(simpleupload.AnonymousName()))
	case "sanitized":
		opts = append(opts, simpleupload.WithNaming(objectkey.Sanitized()))
	case "hashed":
		opts = append(opts, simpleupload.WithNaming(objectkey.Hashed()))
	default:
		return nil, fmt.Errorf("unknown naming strategy: %s", ep.Naming)
	}

	if strings.Contains(ep.Path, "{") {
		opts = append(opts, simpleupload.WithPath(objectkey.Template(ep.Path)))
	} else if ep.Path != "" {
		opts = append(opts, simpleupload.WithPath(simpleupload.StaticPath(ep.Path)))
	}

	var rules []*simpleupload.Rule
	if ep.Preset != "" {
		preset, err := presetRules(ep.Preset)
		if err != nil {
			return nil, err
		}
		rules = append(rules, preset...)
	}
	for i, rc := range ep.Rules {
		rule, err := rc.Rule()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	opts = append(opts, simpleupload.WithRules(rules...))
	return opts, nil
}

func presetRules(name string) ([]*simpleupload.Rule, error) {
	return presets.Rules(name)
}

// BuildRepository creates the audit repository: Postgres when DatabaseURL is
// set, otherwise in memory. The returned close function releases the pool.
func (c *ServerConfig) BuildRepository(ctx context.Context) (repo.Repository, func(), error) {
	if c.DatabaseURL == "" {
		return repomemory.New(), func() {}, nil
	}

	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	// Optionally set search_path for the connection
	if schema := c.DBSchema; schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	repository := repopg.NewWithPool(pool)
	if err := repository.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository, pool.Close, nil
}

// BuildEventSink combines the sinks the config enables. repository may be nil.
func (c *ServerConfig) BuildEventSink(logger *slog.Logger, reg promclient.Registerer, repository repo.Repository) (simpleupload.EventSink, error) {
	var sinks []simpleupload.EventSink

	if c.EnableEventLogging {
		sinks = append(sinks, simpleupload.NewLoggingEventSink(logger))
	}
	if repository != nil {
		sinks = append(sinks, repo.NewSink(repository))
	}
	if c.EnableMetrics {
		m, err := metrics.NewSink("", reg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, m)
	}
	if c.EventsTarget != "" {
		ce, err := cesink.NewHTTP(c.EventsTarget, cesink.WithSource(c.EventsSource))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ce)
	}

	if len(sinks) == 0 {
		return simpleupload.NewNoopEventSink(), nil
	}
	return simpleupload.NewMultiEventSink(sinks...), nil
}
