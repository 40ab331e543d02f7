// Package objectkey provides reusable naming and path strategies for
// simpleupload. Every strategy is a pure function of the upload context, so
// the same upload always lands on the same key (except for anonymous names).
package objectkey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// Sanitized keeps the client's file name but replaces characters that cause
// trouble in object keys and on filesystems
func Sanitized() simpleupload.NameStrategy {
	return simpleupload.ComputedName(func(uc simpleupload.UploadContext) string {
		return sanitizeFilename(uc.Name)
	})
}

// Hashed names the object after a digest of the caller, the client's file
// name and the size. Repeated uploads of the same file by the same caller
// overwrite each other.
func Hashed() simpleupload.NameStrategy {
	return simpleupload.ComputedName(func(uc simpleupload.UploadContext) string {
		sum := sha256.Sum256([]byte(uc.Caller + "\x00" + uc.Name + "." + uc.Extension + "\x00" + strconv.FormatInt(uc.Size, 10)))
		return hex.EncodeToString(sum[:])[:16]
	})
}

// ShardedGenerator spreads objects over directories named after a hash of
// the file name: {prefix}/ab/...
type ShardedGenerator struct {
	Prefix string
	// ShardLength controls how many hex characters name the shard directory (default: 2)
	ShardLength int
}

// NewShardedGenerator creates a sharded generator with two-character shards
func NewShardedGenerator(prefix string) *ShardedGenerator {
	return &ShardedGenerator{Prefix: prefix, ShardLength: 2}
}

// Dir returns the shard directory for an upload
func (g *ShardedGenerator) Dir(uc simpleupload.UploadContext) string {
	n := g.ShardLength
	if n <= 0 {
		n = 2
	}
	digest := sha256.Sum256([]byte(uc.Name + "." + uc.Extension))
	sum := hex.EncodeToString(digest[:])
	if n > len(sum) {
		n = len(sum)
	}
	return joinPath(g.Prefix, sum[:n])
}

// Path returns the generator as a path strategy
func (g *ShardedGenerator) Path() simpleupload.PathStrategy {
	return simpleupload.ComputedPath(g.Dir)
}

// Sharded is shorthand for a sharded path strategy
func Sharded(prefix string, shardLength int) simpleupload.PathStrategy {
	return (&ShardedGenerator{Prefix: prefix, ShardLength: shardLength}).Path()
}

// Dated stores objects under {prefix}/YYYY/MM/DD using the UTC date
func Dated(prefix string, opts ...Option) simpleupload.PathStrategy {
	o := newOptions(opts)
	return simpleupload.ComputedPath(func(simpleupload.UploadContext) string {
		return joinPath(prefix, o.now().UTC().Format("2006/01/02"))
	})
}

// MetaPrefix stores objects under the value of a field of the request's
// meta object, e.g. {"album": "holiday"} with field "album" gives
// "holiday/". Missing or non-scalar values store at the root.
func MetaPrefix(field string) simpleupload.PathStrategy {
	return simpleupload.ComputedPath(func(uc simpleupload.UploadContext) string {
		v, ok := metaValue(uc.Meta, field)
		if !ok {
			return ""
		}
		return sanitizePathComponent(v)
	})
}

// Template expands placeholders in a path template. Supported placeholders
// are the upload context names ({caller}, {disk}, {bucket}, {endpoint},
// {type}, {extension}, {name}, {size}), {meta.<field>}, and {date}, {year},
// {month}, {day}. Values are sanitized so they cannot introduce extra path
// segments; unknown or empty placeholders expand to "".
//
// Example:
//
//	objectkey.Template("users/{caller}/{year}/{month}")
func Template(tmpl string, opts ...Option) simpleupload.PathStrategy {
	o := newOptions(opts)
	return simpleupload.ComputedPath(func(uc simpleupload.UploadContext) string {
		return expand(tmpl, uc, o.now().UTC())
	})
}

func expand(tmpl string, uc simpleupload.UploadContext, now time.Time) string {
	var b strings.Builder
	for {
		start := strings.IndexByte(tmpl, '{')
		if start < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.IndexByte(tmpl[start:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			break
		}
		end += start

		b.WriteString(tmpl[:start])
		b.WriteString(placeholder(tmpl[start+1:end], uc, now))
		tmpl = tmpl[end+1:]
	}
	return b.String()
}

func placeholder(name string, uc simpleupload.UploadContext, now time.Time) string {
	switch name {
	case "date":
		return now.Format("2006-01-02")
	case "year":
		return now.Format("2006")
	case "month":
		return now.Format("01")
	case "day":
		return now.Format("02")
	}

	if field, ok := strings.CutPrefix(name, "meta."); ok {
		v, _ := metaValue(uc.Meta, field)
		return sanitizePathComponent(v)
	}

	v, ok := uc.Value(name)
	if !ok {
		return ""
	}
	return sanitizePathComponent(fmt.Sprint(v))
}

func metaValue(meta any, field string) (string, bool) {
	m, ok := meta.(map[string]any)
	if !ok {
		return "", false
	}
	switch v := m[field].(type) {
	case string:
		return v, v != ""
	case float64, int, int64, bool:
		return fmt.Sprint(v), true
	default:
		return "", false
	}
}

func joinPath(prefix, dir string) string {
	if prefix == "" {
		return dir
	}
	return path.Join(prefix, dir)
}

// Option configures time-dependent strategies
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Helper functions for key sanitization
var unsafeChars = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "_",
	"#", "_",
	"%", "_",
)

func sanitizeFilename(filename string) string {
	return unsafeChars.Replace(strings.TrimSpace(filename))
}

func sanitizePathComponent(component string) string {
	component = strings.ToLower(unsafeChars.Replace(strings.TrimSpace(component)))
	if component == "." || component == ".." {
		return "_"
	}
	return component
}
