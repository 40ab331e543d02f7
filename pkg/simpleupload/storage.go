package simpleupload

import (
	"context"
	"time"

	"github.com/tendant/simple-upload/pkg/simpleupload/postpolicy"
)

// Disk is a named bucket location that can sign POST policies
type Disk interface {
	// Name identifies the disk in configuration
	Name() string

	// Bucket is the disk's configured bucket, "" if it has none
	Bucket() string

	// PresignPost signs a policy for bucket
	PresignPost(ctx context.Context, bucket string, inputs map[string]string, conditions []postpolicy.Condition, expires time.Duration) (*postpolicy.Post, error)

	// Stat confirms an uploaded object, returning ErrObjectNotFound when it is absent
	Stat(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}

// DiskResolver looks disks up by name
type DiskResolver interface {
	Disk(name string) (Disk, error)
}
