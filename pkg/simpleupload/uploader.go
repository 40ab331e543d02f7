package simpleupload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDisk is the disk used when none is configured
const DefaultDisk = "s3"

// Uploader authorizes uploads for one endpoint. It is immutable after New
// and safe for concurrent use.
type Uploader struct {
	name     string
	disks    DiskResolver
	disk     string
	bucket   string
	acl      string
	rules    []*Rule
	defaults *Rule
	lifetime time.Duration
	naming   NameStrategy
	path     PathStrategy
	data     DataProvider
	multiple bool
	events   EventSink
	logger   *slog.Logger
	now      func() time.Time

	inflight sync.WaitGroup
}

// New creates an Uploader with the given options
func New(options ...Option) (*Uploader, error) {
	u := &Uploader{
		name:     "default",
		disk:     DefaultDisk,
		acl:      ACLPrivate,
		lifetime: DefaultLifetime,
		logger:   slog.Default(),
		now:      time.Now,
	}

	for _, option := range options {
		option(u)
	}

	if u.disks == nil {
		return nil, fmt.Errorf("disk resolver is required")
	}
	if u.disk == "" {
		return nil, fmt.Errorf("disk name is required")
	}
	if u.acl == "" {
		return nil, fmt.Errorf("acl is required")
	}
	if u.lifetime <= 0 {
		return nil, fmt.Errorf("lifetime must be positive")
	}

	u.rules = slices.Clip(u.rules)
	// unmatched requests are held to the endpoint's own constraints
	if u.defaults == nil {
		u.defaults = UnionRule("default", u.rules...)
	}
	return u, nil
}

// Name returns the endpoint name
func (u *Uploader) Name() string { return u.name }

// DiskName returns the name of the disk uploads go to
func (u *Uploader) DiskName() string { return u.disk }

// ACL returns the canned ACL applied to uploads
func (u *Uploader) ACL() string { return u.acl }

// Rules returns the registered rules in match order
func (u *Uploader) Rules() []*Rule { return slices.Clone(u.rules) }

// DefaultRule returns the fallback rule
func (u *Uploader) DefaultRule() *Rule { return u.defaults }

// Lifetime returns the default policy lifetime
func (u *Uploader) Lifetime() time.Duration { return u.lifetime }

// NameStrategy returns how object names are chosen
func (u *Uploader) NameStrategy() NameStrategy { return u.naming }

// PathStrategy returns how object directories are chosen
func (u *Uploader) PathStrategy() PathStrategy { return u.path }

// Create validates a request and returns a signed POST policy for it.
//
// A request that fails validation returns a *ValidationError and fires
// PresignFailed. Configuration problems (unknown disk, no bucket, signing
// failure) return ordinary errors.
func (u *Uploader) Create(ctx context.Context, req Request) (*Result, error) {
	p := &presign{}
	caller := CallerFromContext(ctx)

	_, extension, _ := DestructureFilename(req.Name)
	mimeType, _ := req.Type.(string)
	rule := SelectRule(u.rules, mimeType, extension)
	if rule == nil {
		rule = u.defaults
	}
	p.selected(rule)

	attrs, err := Validate(req, p.rule)
	if err != nil {
		p.reject()
		u.failed(ctx, caller, req, err)
		return nil, err
	}

	disk, bucket, err := u.resolve()
	if err != nil {
		u.logger.ErrorContext(ctx, "cannot resolve upload destination", "endpoint", u.name, "disk", u.disk, "error", err)
		return nil, err
	}
	p.validated(UploadContext{
		Attributes: attrs,
		Endpoint:   u.name,
		Disk:       disk.Name(),
		Bucket:     bucket,
		Caller:     caller,
	})

	uc := p.file()
	filename := u.naming.Resolve(uc)
	key := buildKey(uc, filename, u.path)
	p.keyBuilt(withKey(uc, key, filename))

	lifetime := u.lifetime
	if rule.Lifetime() > 0 {
		lifetime = rule.Lifetime()
	}
	p.assembled(AssemblePolicy(key, rule, attrs, u.acl, bucket, lifetime))

	policy := p.policy
	post, err := disk.PresignPost(ctx, policy.Bucket, policy.Inputs, policy.Conditions, policy.Lifetime)
	if err != nil {
		u.logger.ErrorContext(ctx, "failed to sign upload policy", "endpoint", u.name, "disk", disk.Name(), "key", key, "error", err)
		return nil, &DiskError{Disk: disk.Name(), Key: key, Op: "presign", Err: err}
	}
	p.signed(post)

	uc = p.file()
	signed := p.presigned()
	result := &Result{
		Attributes: signed.Attributes,
		Inputs:     signed.Inputs,
		Data:       u.data.Resolve(uc),
		Upload:     uc,
		Rule:       rule.Name(),
		ExpiresAt:  signed.ExpiresAt,
	}
	p.complete()

	event := &PresignCreatedEvent{
		ID:         uuid.New(),
		Endpoint:   u.name,
		Caller:     caller,
		Rule:       rule.Name(),
		Disk:       uc.Disk,
		Bucket:     uc.Bucket,
		Key:        uc.Key,
		Attributes: attrs,
		Form:       signed.Attributes,
		ExpiresAt:  signed.ExpiresAt,
		CreatedAt:  u.now().UTC(),
	}
	u.dispatch(ctx, "presign.created", func(ctx context.Context) error {
		return u.events.PresignCreated(ctx, event)
	})

	return result, nil
}

// Stat confirms that an object was uploaded under key
func (u *Uploader) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	disk, bucket, err := u.resolve()
	if err != nil {
		return nil, err
	}
	return disk.Stat(ctx, bucket, normalizeKey(key))
}

// Wait blocks until all pending event deliveries have finished
func (u *Uploader) Wait() {
	u.inflight.Wait()
}

// resolve finds the disk and the bucket for this uploader
func (u *Uploader) resolve() (Disk, string, error) {
	disk, err := u.disks.Disk(u.disk)
	if err != nil {
		return nil, "", err
	}

	bucket := u.bucket
	if bucket == "" {
		bucket = disk.Bucket()
	}
	if bucket == "" {
		return nil, "", fmt.Errorf("%w (disk %q)", ErrUnresolvedBucket, u.disk)
	}
	return disk, bucket, nil
}

func (u *Uploader) failed(ctx context.Context, caller string, req Request, err error) {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return
	}

	event := &PresignFailedEvent{
		ID:       uuid.New(),
		Endpoint: u.name,
		Caller:   caller,
		Request:  req,
		Errors:   slices.Clone(verr.Errors),
		FailedAt: u.now().UTC(),
	}
	u.dispatch(ctx, "presign.failed", func(ctx context.Context) error {
		return u.events.PresignFailed(ctx, event)
	})
}
