package presets

import (
	"fmt"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/objectkey"
	"github.com/tendant/simple-upload/pkg/simpleupload/storage"
	memorydisk "github.com/tendant/simple-upload/pkg/simpleupload/storage/memory"
)

// Rule presets
//
// Ready-made rule sets for the file families most endpoints accept. Each call
// returns fresh rules so callers can combine them freely.

// Images accepts common raster and vector image formats up to 10 MB
func Images() []*simpleupload.Rule {
	return []*simpleupload.Rule{
		simpleupload.MustRule(
			simpleupload.RuleName("images"),
			simpleupload.Mimes("image/"),
			simpleupload.Extensions("jpg", "jpeg", "png", "gif", "webp", "avif", "heic", "svg"),
			simpleupload.MaxSize(10<<20),
		),
	}
}

// Documents accepts office documents, PDFs and plain text up to 25 MB
func Documents() []*simpleupload.Rule {
	return []*simpleupload.Rule{
		simpleupload.MustRule(
			simpleupload.RuleName("pdf"),
			simpleupload.Mimes("application/pdf"),
			simpleupload.Extensions("pdf"),
			simpleupload.MaxSize(25<<20),
		),
		simpleupload.MustRule(
			simpleupload.RuleName("office"),
			simpleupload.Mimes(
				"application/msword",
				"application/vnd.openxmlformats-officedocument.",
				"application/vnd.ms-excel",
				"application/vnd.ms-powerpoint",
				"application/vnd.oasis.opendocument.",
			),
			simpleupload.Extensions("doc", "docx", "xls", "xlsx", "ppt", "pptx", "odt", "ods", "odp"),
			simpleupload.MaxSize(25<<20),
		),
		simpleupload.MustRule(
			simpleupload.RuleName("text"),
			simpleupload.Mimes("text/plain", "text/csv", "text/markdown"),
			simpleupload.Extensions("txt", "csv", "md"),
			simpleupload.MaxSize(5<<20),
		),
	}
}

// Videos accepts video files up to 2 GB. Large uploads get a longer
// policy lifetime.
func Videos() []*simpleupload.Rule {
	return []*simpleupload.Rule{
		simpleupload.MustRule(
			simpleupload.RuleName("videos"),
			simpleupload.Mimes("video/"),
			simpleupload.Extensions("mp4", "mov", "webm", "mkv", "avi"),
			simpleupload.MaxSize(2<<30),
			simpleupload.Lifetime(15*time.Minute),
		),
	}
}

// Audio accepts audio files up to 200 MB
func Audio() []*simpleupload.Rule {
	return []*simpleupload.Rule{
		simpleupload.MustRule(
			simpleupload.RuleName("audio"),
			simpleupload.Mimes("audio/"),
			simpleupload.Extensions("mp3", "wav", "ogg", "m4a", "flac", "aac"),
			simpleupload.MaxSize(200<<20),
		),
	}
}

// AvatarRules accepts small square-friendly image formats up to 2 MB
func AvatarRules() []*simpleupload.Rule {
	return []*simpleupload.Rule{
		simpleupload.MustRule(
			simpleupload.RuleName("avatar"),
			simpleupload.Mimes("image/jpeg", "image/png", "image/webp"),
			simpleupload.Extensions("jpg", "jpeg", "png", "webp"),
			simpleupload.Size(1, 2<<20),
		),
	}
}

// Avatar returns uploader options for profile pictures: a single anonymized
// file stored under avatars/{caller}.
func Avatar() []simpleupload.Option {
	return []simpleupload.Option{
		simpleupload.WithName("avatars"),
		simpleupload.WithRules(AvatarRules()...),
		simpleupload.WithNaming(simpleupload.AnonymousName()),
		simpleupload.WithPath(objectkey.Template("avatars/{caller}")),
		simpleupload.WithMultiple(false),
	}
}

var byName = map[string]func() []*simpleupload.Rule{
	"images":    Images,
	"documents": Documents,
	"videos":    Videos,
	"audio":     Audio,
	"avatar":    AvatarRules,
}

// Rules looks up a rule preset by name
func Rules(name string) ([]*simpleupload.Rule, error) {
	fn, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown rule preset: %s", name)
	}
	return fn(), nil
}

// Names lists the rule presets Rules accepts
func Names() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewDevelopment creates an uploader configured for local development.
//
// Features:
//   - In-memory disk with static development credentials (no AWS account needed)
//   - Image, document, audio and video rules
//   - Logging event sink (helpful for debugging)
//
// The memory disk is returned too so callers can Submit forms against it.
//
// Example:
//
//	uploader, disk, err := presets.NewDevelopment()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := uploader.Create(ctx, simpleupload.NewRequest("photo.png", "image/png", 1024))
func NewDevelopment(opts ...DevelopmentOption) (*simpleupload.Uploader, *memorydisk.Disk, error) {
	cfg := &devConfig{
		bucket: "dev-uploads",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	disk := memorydisk.New(simpleupload.DefaultDisk, cfg.bucket)

	var rules []*simpleupload.Rule
	rules = append(rules, Images()...)
	rules = append(rules, Documents()...)
	rules = append(rules, Audio()...)
	rules = append(rules, Videos()...)

	options := []simpleupload.Option{
		simpleupload.WithName("development"),
		simpleupload.WithDisks(storage.NewRegistry(disk)),
		simpleupload.WithRules(rules...),
		simpleupload.WithPath(simpleupload.StaticPath(cfg.path)),
		simpleupload.WithLogger(cfg.logger),
		simpleupload.WithEventSink(simpleupload.NewLoggingEventSink(cfg.logger)),
	}
	options = append(options, cfg.options...)

	uploader, err := simpleupload.New(options...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create uploader: %w", err)
	}
	return uploader, disk, nil
}

// NewTesting creates an uploader on a memory disk for tests. Extra options
// are applied last.
func NewTesting(t testing.TB, opts ...simpleupload.Option) (*simpleupload.Uploader, *memorydisk.Disk) {
	t.Helper()

	disk := memorydisk.New(simpleupload.DefaultDisk, "test-uploads")
	options := []simpleupload.Option{
		simpleupload.WithName("testing"),
		simpleupload.WithDisks(storage.NewRegistry(disk)),
		simpleupload.WithEventSink(simpleupload.NewNoopEventSink()),
	}
	options = append(options, opts...)

	uploader, err := simpleupload.New(options...)
	if err != nil {
		t.Fatalf("failed to create test uploader: %v", err)
	}
	t.Cleanup(uploader.Wait)
	return uploader, disk
}

type devConfig struct {
	bucket  string
	path    string
	logger  *slog.Logger
	options []simpleupload.Option
}

// DevelopmentOption configures NewDevelopment
type DevelopmentOption func(*devConfig)

// WithDevBucket sets the memory disk bucket (default: dev-uploads)
func WithDevBucket(bucket string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.bucket = bucket
	}
}

// WithDevPath stores every upload under dir
func WithDevPath(dir string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.path = dir
	}
}

func WithDevLogger(logger *slog.Logger) DevelopmentOption {
	return func(cfg *devConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithDevOptions appends uploader options
func WithDevOptions(opts ...simpleupload.Option) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.options = append(cfg.options, opts...)
	}
}
