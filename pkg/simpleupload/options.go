package simpleupload

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring an Uploader
type Option func(*Uploader)

// WithName sets the endpoint name reported in events and logs
func WithName(name string) Option {
	return func(u *Uploader) {
		u.name = name
	}
}

// WithDisks sets where disks are looked up. Required.
func WithDisks(disks DiskResolver) Option {
	return func(u *Uploader) {
		u.disks = disks
	}
}

// WithDisk selects the disk uploads go to. Default is "s3".
func WithDisk(name string) Option {
	return func(u *Uploader) {
		u.disk = name
	}
}

// WithBucket overrides the disk's bucket
func WithBucket(bucket string) Option {
	return func(u *Uploader) {
		u.bucket = bucket
	}
}

// WithACL sets the canned ACL applied to uploaded objects. Default is private.
func WithACL(acl string) Option {
	return func(u *Uploader) {
		u.acl = acl
	}
}

// WithPublicRead makes uploaded objects publicly readable
func WithPublicRead() Option {
	return WithACL(ACLPublicRead)
}

// WithRules appends rules. They are tried in the order given.
func WithRules(rules ...*Rule) Option {
	return func(u *Uploader) {
		for _, r := range rules {
			if r != nil {
				u.rules = append(u.rules, r)
			}
		}
	}
}

// WithDefaultRule sets the rule used when no other rule matches
func WithDefaultRule(rule *Rule) Option {
	return func(u *Uploader) {
		if rule != nil {
			u.defaults = rule
		}
	}
}

// WithLifetime sets how long issued policies stay valid. Rules with their
// own lifetime take precedence.
func WithLifetime(d time.Duration) Option {
	return func(u *Uploader) {
		u.lifetime = d
	}
}

// WithNaming sets how the stored object's base name is chosen
func WithNaming(naming NameStrategy) Option {
	return func(u *Uploader) {
		u.naming = naming
	}
}

// WithPath sets the directory objects are stored under
func WithPath(dir PathStrategy) Option {
	return func(u *Uploader) {
		u.path = dir
	}
}

// WithData sets the extra data returned with every result
func WithData(data DataProvider) Option {
	return func(u *Uploader) {
		u.data = data
	}
}

// WithMultiple marks the endpoint as accepting several files per form. It
// only affects Describe.
func WithMultiple(multiple bool) Option {
	return func(u *Uploader) {
		u.multiple = multiple
	}
}

// WithEventSink sets the receiver of presign notifications
func WithEventSink(sink EventSink) Option {
	return func(u *Uploader) {
		u.events = sink
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithClock overrides the time source used for event timestamps
func WithClock(now func() time.Time) Option {
	return func(u *Uploader) {
		if now != nil {
			u.now = now
		}
	}
}
