package simpleupload

import (
	"time"

	"github.com/tendant/simple-upload/pkg/simpleupload/postpolicy"
)

// Canned ACLs commonly used for uploads
const (
	ACLPrivate    = "private"
	ACLPublicRead = "public-read"
)

// DefaultLifetime is how long a policy stays valid unless configured otherwise
const DefaultLifetime = 2 * time.Minute

// Policy is the signing request handed to a disk
type Policy struct {
	Bucket     string
	Inputs     map[string]string
	Conditions []postpolicy.Condition
	Lifetime   time.Duration
}

// Expires renders the lifetime the way POST policy tooling expects, e.g. "+2 minutes"
func (p Policy) Expires() string {
	return postpolicy.FormatLifetime(p.Lifetime)
}

// AssemblePolicy builds the condition list for a validated upload. The
// content length range is the rule's, not the declared size, and the content
// type is pinned to the exact validated type.
func AssemblePolicy(key string, rule SizeConstrained, attrs Attributes, acl, bucket string, lifetime time.Duration) Policy {
	return Policy{
		Bucket: bucket,
		Inputs: map[string]string{
			"acl": acl,
			"key": key,
		},
		Conditions: []postpolicy.Condition{
			postpolicy.Eq("acl", acl),
			postpolicy.Eq("key", key),
			postpolicy.Eq("bucket", bucket),
			postpolicy.ContentLengthRange(rule.MinSize(), rule.MaxSize()),
			postpolicy.Eq("Content-Type", attrs.MimeType),
		},
		Lifetime: lifetime,
	}
}
