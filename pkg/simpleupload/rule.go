package simpleupload

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DefaultMaxSize is the size cap applied when a rule does not set one (1 GiB)
const DefaultMaxSize int64 = 1 << 30

// SizeConstrained bounds the declared size of an upload, inclusive on both ends
type SizeConstrained interface {
	MinSize() int64
	MaxSize() int64
}

// TypeConstrained restricts uploads by MIME prefix and extension.
// Empty lists accept anything.
type TypeConstrained interface {
	Mimes() []string
	Extensions() []string
}

// Constraints is what the validator checks a request against
type Constraints interface {
	SizeConstrained
	TypeConstrained
}

// Named resolves the base name of the stored object
type Named interface {
	NameStrategy() NameStrategy
}

// Pathed resolves the directory an object is stored under
type Pathed interface {
	PathStrategy() PathStrategy
}

// Rule is one set of upload constraints. Build it with NewRule; it cannot be
// changed afterwards and is safe to share between goroutines.
type Rule struct {
	name       string
	minSize    int64
	maxSize    int64
	mimes      []string
	extensions []string
	lifetime   time.Duration
}

// RuleOption configures a Rule under construction
type RuleOption func(*Rule)

// RuleName labels the rule in logs, events and descriptions
func RuleName(name string) RuleOption {
	return func(r *Rule) {
		r.name = name
	}
}

// MinSize sets the smallest accepted size in bytes
func MinSize(bytes int64) RuleOption {
	return func(r *Rule) {
		r.minSize = bytes
	}
}

// MaxSize sets the largest accepted size in bytes
func MaxSize(bytes int64) RuleOption {
	return func(r *Rule) {
		r.maxSize = bytes
	}
}

// Size sets both bounds
func Size(minBytes, maxBytes int64) RuleOption {
	return func(r *Rule) {
		r.minSize = minBytes
		r.maxSize = maxBytes
	}
}

// Mimes adds accepted MIME prefixes. "image/*" and "image/" both accept any
// image type. Every entry is a prefix, so "image/png" also accepts
// "image/png+foo"; the signed policy still pins the exact declared type.
func Mimes(types ...string) RuleOption {
	return func(r *Rule) {
		for _, t := range types {
			if t = normalizeMime(t); t != "" && !slices.Contains(r.mimes, t) {
				r.mimes = append(r.mimes, t)
			}
		}
	}
}

// Extensions adds accepted file extensions, with or without the leading dot
func Extensions(exts ...string) RuleOption {
	return func(r *Rule) {
		for _, e := range exts {
			if e = normalizeExtension(e); e != "" && !slices.Contains(r.extensions, e) {
				r.extensions = append(r.extensions, e)
			}
		}
	}
}

// Lifetime overrides how long a policy issued under this rule stays valid
func Lifetime(d time.Duration) RuleOption {
	return func(r *Rule) {
		r.lifetime = d
	}
}

// NewRule builds a frozen Rule. The maximum size defaults to DefaultMaxSize.
func NewRule(opts ...RuleOption) (*Rule, error) {
	r := &Rule{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(r)
	}

	if r.minSize < 0 {
		return nil, fmt.Errorf("%w: minimum size %d is negative", ErrInvalidRule, r.minSize)
	}
	if r.minSize > r.maxSize {
		return nil, fmt.Errorf("%w: minimum size %d exceeds maximum size %d", ErrInvalidRule, r.minSize, r.maxSize)
	}
	if r.lifetime < 0 {
		return nil, fmt.Errorf("%w: lifetime must not be negative", ErrInvalidRule)
	}

	return r, nil
}

// MustRule is NewRule for rules declared at package level. It panics on an
// invalid rule.
func MustRule(opts ...RuleOption) *Rule {
	r, err := NewRule(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// UnionRule combines rules into one accepting anything any of them accepts:
// the smallest minimum, the largest maximum and every MIME type and
// extension. A rule with no MIME types (or no extensions) leaves that
// dimension unconstrained. With no rules it accepts anything up to
// DefaultMaxSize.
func UnionRule(name string, rules ...*Rule) *Rule {
	u := &Rule{name: name, maxSize: DefaultMaxSize}
	if len(rules) == 0 {
		return u
	}

	u.minSize, u.maxSize = rules[0].minSize, rules[0].maxSize
	anyMime, anyExtension := false, false
	for _, r := range rules {
		u.minSize = min(u.minSize, r.minSize)
		u.maxSize = max(u.maxSize, r.maxSize)

		anyMime = anyMime || len(r.mimes) == 0
		for _, m := range r.mimes {
			if !slices.Contains(u.mimes, m) {
				u.mimes = append(u.mimes, m)
			}
		}
		anyExtension = anyExtension || len(r.extensions) == 0
		for _, e := range r.extensions {
			if !slices.Contains(u.extensions, e) {
				u.extensions = append(u.extensions, e)
			}
		}
	}
	if anyMime {
		u.mimes = nil
	}
	if anyExtension {
		u.extensions = nil
	}
	return u
}

// Name returns the rule's label
func (r *Rule) Name() string { return r.name }

// MinSize returns the smallest accepted size in bytes
func (r *Rule) MinSize() int64 { return r.minSize }

// MaxSize returns the largest accepted size in bytes
func (r *Rule) MaxSize() int64 { return r.maxSize }

// Mimes returns a copy of the accepted MIME prefixes
func (r *Rule) Mimes() []string { return slices.Clone(r.mimes) }

// Extensions returns a copy of the accepted extensions
func (r *Rule) Extensions() []string { return slices.Clone(r.extensions) }

// Lifetime returns the rule's policy lifetime, zero when it inherits the uploader's
func (r *Rule) Lifetime() time.Duration { return r.lifetime }

// Matches reports whether the rule accepts the extension or the MIME type.
// Comparison is case-insensitive and ignores surrounding whitespace. A rule
// without extensions or MIME types never matches.
func (r *Rule) Matches(mimeType, extension string) bool {
	if r == nil {
		return false
	}

	if ext := normalizeExtension(extension); ext != "" && slices.Contains(r.extensions, ext) {
		return true
	}

	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType != "" && hasMimePrefix(r.mimes, mimeType)
}

func (r *Rule) String() string {
	name := r.name
	if name == "" {
		name = "rule"
	}
	return fmt.Sprintf("%s[%d..%d mimes=%v extensions=%v]", name, r.minSize, r.maxSize, r.mimes, r.extensions)
}

func hasMimePrefix(prefixes []string, mimeType string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(mimeType, p) {
			return true
		}
	}
	return false
}

// normalizeMime lower-cases and strips spaces and wildcards, keeping a
// trailing slash so "image/*" becomes the prefix "image/".
func normalizeMime(t string) string {
	return strings.ToLower(strings.Trim(t, " *"))
}

func normalizeExtension(e string) string {
	return strings.ToLower(strings.Trim(e, " ."))
}
