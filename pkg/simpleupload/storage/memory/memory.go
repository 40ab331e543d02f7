// Package memory provides an in-process disk for development and tests. It
// signs real POST policies with fixed credentials and can accept the
// resulting form submissions itself, so the whole upload handshake can be
// exercised without a storage service.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/postpolicy"
)

// Development credentials used when no signer is supplied
const (
	metaPrefix = "x-amz-meta-"

	DevAccessKeyID     = "memory"
	DevSecretAccessKey = "memory-secret"
	DevEndpoint        = "http://localhost:9000"
)

type object struct {
	data        []byte
	contentType string
	metadata    map[string]string
	modified    time.Time
}

// Disk is an in-memory implementation of the simpleupload.Disk interface
type Disk struct {
	name   string
	bucket string
	signer *postpolicy.Signer
	now    func() time.Time

	mu      sync.RWMutex
	objects map[string]object
}

// Option configures a memory disk
type Option func(*Disk)

// WithSigner replaces the development signer
func WithSigner(signer *postpolicy.Signer) Option {
	return func(d *Disk) {
		d.signer = signer
	}
}

// WithClock overrides the time source for signing and modification times
func WithClock(now func() time.Time) Option {
	return func(d *Disk) {
		d.now = now
	}
}

// New creates a new in-memory disk
func New(name, bucket string, opts ...Option) *Disk {
	d := &Disk{
		name:    name,
		bucket:  bucket,
		now:     time.Now,
		objects: make(map[string]object),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.signer == nil {
		d.signer = postpolicy.New(
			postpolicy.WithStaticCredentials(DevAccessKeyID, DevSecretAccessKey, ""),
			postpolicy.WithEndpoint(DevEndpoint, true),
			postpolicy.WithClock(func() time.Time { return d.now() }),
		)
	}
	return d
}

// Name returns the disk name
func (d *Disk) Name() string { return d.name }

// Bucket returns the configured bucket
func (d *Disk) Bucket() string { return d.bucket }

// PresignPost signs a policy with the disk's signer
func (d *Disk) PresignPost(ctx context.Context, bucket string, inputs map[string]string, conditions []postpolicy.Condition, expires time.Duration) (*postpolicy.Post, error) {
	return d.signer.Presign(ctx, bucket, inputs, conditions, expires)
}

// Stat returns metadata for an object
func (d *Disk) Stat(ctx context.Context, bucket, key string) (*simpleupload.ObjectInfo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	obj, exists := d.objects[objectID(bucket, key)]
	if !exists {
		return nil, fmt.Errorf("%w: %s/%s", simpleupload.ErrObjectNotFound, bucket, key)
	}

	return &simpleupload.ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		ETag:         strconv.Quote(strconv.Itoa(len(obj.data))),
		LastModified: obj.modified,
		Metadata:     obj.metadata,
	}, nil
}

// Put stores an object directly, bypassing any policy
func (d *Disk) Put(ctx context.Context, bucket, key, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return d.put(bucket, key, contentType, nil, data)
}

func (d *Disk) put(bucket, key, contentType string, metadata map[string]string, data []byte) error {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.objects[objectID(bucket, key)] = object{
		data:        data,
		contentType: contentType,
		metadata:    metadata,
		modified:    d.now().UTC(),
	}
	return nil
}

// Submit accepts a browser POST the way S3 would: the form fields must carry
// a valid, unexpired policy whose conditions hold, and the body length must
// fall inside the policy's content-length-range.
func (d *Disk) Submit(ctx context.Context, bucket string, form map[string]string, r io.Reader) error {
	fields := make(map[string]string, len(form)+1)
	for k, v := range form {
		fields[k] = v
	}
	fields["bucket"] = bucket

	if err := d.signer.Verify(ctx, fields); err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}

	conditions, err := postpolicy.Conditions(fields[postpolicy.InputPolicy])
	if err != nil {
		return err
	}
	size := int64(buf.Len())
	for _, c := range conditions {
		if c.Op == postpolicy.OpContentLengthRange && (size < c.Min || size > c.Max) {
			return fmt.Errorf("%w: %d bytes outside %s", postpolicy.ErrConditionFailed, size, c)
		}
	}

	key := fields["key"]
	if key == "" {
		return fmt.Errorf("%w: missing key", postpolicy.ErrMalformedPolicy)
	}

	contentType := ""
	metadata := make(map[string]string)
	for k, v := range fields {
		lower := strings.ToLower(k)
		switch {
		case lower == "content-type":
			contentType = v
		case strings.HasPrefix(lower, metaPrefix) && len(lower) > len(metaPrefix):
			metadata[lower[len(metaPrefix):]] = v
		}
	}

	return d.put(bucket, key, contentType, metadata, buf.Bytes())
}

// Delete removes an object
func (d *Disk) Delete(ctx context.Context, bucket, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := objectID(bucket, key)
	if _, exists := d.objects[id]; !exists {
		return fmt.Errorf("%w: %s/%s", simpleupload.ErrObjectNotFound, bucket, key)
	}
	delete(d.objects, id)
	return nil
}

// Len returns the number of stored objects
func (d *Disk) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.objects)
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}
