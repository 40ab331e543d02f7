package simpleupload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-upload/pkg/simpleupload/postpolicy"
)

func TestAssemblePolicy(t *testing.T) {
	rule := MustRule(Mimes("image/"), Size(16, 2048))
	attrs := Attributes{Name: "test", Extension: "png", MimeType: "image/png", Size: 1024}

	p := AssemblePolicy("avatars/test.png", rule, attrs, ACLPrivate, "photos", 5*time.Minute)

	assert.Equal(t, "photos", p.Bucket)
	assert.Equal(t, map[string]string{"acl": "private", "key": "avatars/test.png"}, p.Inputs)
	assert.Equal(t, []postpolicy.Condition{
		postpolicy.Eq("acl", "private"),
		postpolicy.Eq("key", "avatars/test.png"),
		postpolicy.Eq("bucket", "photos"),
		postpolicy.ContentLengthRange(16, 2048),
		postpolicy.Eq("Content-Type", "image/png"),
	}, p.Conditions)
	assert.Equal(t, 5*time.Minute, p.Lifetime)
	assert.Equal(t, "+5 minutes", p.Expires())
}

func TestAssemblePolicyUsesRuleRangeNotDeclaredSize(t *testing.T) {
	rule := MustRule(Size(0, 10<<20))
	p := AssemblePolicy("a.bin", rule, Attributes{MimeType: "application/octet-stream", Size: 7}, ACLPublicRead, "b", time.Minute)

	assert.Equal(t, postpolicy.ContentLengthRange(0, 10<<20), p.Conditions[3])
	assert.Equal(t, "public-read", p.Inputs["acl"])
}
