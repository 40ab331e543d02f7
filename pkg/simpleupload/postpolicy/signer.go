package postpolicy

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Algorithm is the only signing algorithm S3 accepts for V4 POST policies
const Algorithm = "AWS4-HMAC-SHA256"

const (
	amzDateFormat    = "20060102T150405Z"
	scopeDateFormat  = "20060102"
	expirationFormat = "2006-01-02T15:04:05.000Z"
	service          = "s3"
	terminator       = "aws4_request"
)

// Form input names added by the signer
const (
	InputCredential    = "X-Amz-Credential"
	InputAlgorithm     = "X-Amz-Algorithm"
	InputDate          = "X-Amz-Date"
	InputSecurityToken = "X-Amz-Security-Token"
	InputPolicy        = "Policy"
	InputSignature     = "X-Amz-Signature"
)

// Signer produces signed POST policies for a single account and region
type Signer struct {
	credentials       aws.CredentialsProvider
	region            string
	endpoint          string
	usePathStyle      bool
	defaultExpiration time.Duration
	now               func() time.Time
}

// Post is the result of signing: the form description and its hidden inputs
type Post struct {
	Attributes map[string]string `json:"attributes"`
	Inputs     map[string]string `json:"inputs"`
	ExpiresAt  time.Time         `json:"-"`
}

type policyDocument struct {
	Expiration string      `json:"expiration"`
	Conditions []Condition `json:"conditions"`
}

// New creates a new Signer with the given options
func New(opts ...Option) *Signer {
	s := &Signer{
		region:            "us-east-1",
		defaultExpiration: 2 * time.Minute,
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Region returns the region used in the credential scope
func (s *Signer) Region() string {
	return s.region
}

// Presign signs a policy for bucket. inputs are the default form fields
// (typically acl and key) and are returned with the signature fields added.
// The x-amz-* equality conditions are appended after the caller's conditions.
//
// Example:
//
//	post, err := signer.Presign(ctx, "photos",
//	    map[string]string{"acl": "private", "key": "a.png"},
//	    []postpolicy.Condition{postpolicy.Eq("key", "a.png")},
//	    5*time.Minute)
func (s *Signer) Presign(ctx context.Context, bucket string, inputs map[string]string, conditions []Condition, expires time.Duration) (*Post, error) {
	if s.credentials == nil {
		return nil, ErrNoCredentials
	}
	if bucket == "" {
		return nil, ErrNoBucket
	}
	if expires <= 0 {
		expires = s.defaultExpiration
	}

	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, ErrNoCredentials
	}

	now := s.now().UTC()
	scopeDate := now.Format(scopeDateFormat)
	amzDate := now.Format(amzDateFormat)
	credential := strings.Join([]string{creds.AccessKeyID, scopeDate, s.region, service, terminator}, "/")

	form := make(map[string]string, len(inputs)+6)
	for k, v := range inputs {
		form[k] = v
	}
	form[InputCredential] = credential
	form[InputAlgorithm] = Algorithm
	form[InputDate] = amzDate

	all := make([]Condition, 0, len(conditions)+4)
	all = append(all, conditions...)
	all = append(all,
		Eq(InputDate, amzDate),
		Eq(InputCredential, credential),
		Eq(InputAlgorithm, Algorithm),
	)
	if creds.SessionToken != "" {
		form[InputSecurityToken] = creds.SessionToken
		all = append(all, Eq(InputSecurityToken, creds.SessionToken))
	}

	expiresAt := now.Add(expires)
	raw, err := json.Marshal(policyDocument{
		Expiration: expiresAt.Format(expirationFormat),
		Conditions: all,
	})
	if err != nil {
		return nil, fmt.Errorf("postpolicy: encode policy: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(raw)
	form[InputPolicy] = encoded
	form[InputSignature] = sign(creds.SecretAccessKey, scopeDate, s.region, encoded)

	action, err := s.action(bucket)
	if err != nil {
		return nil, err
	}

	return &Post{
		Attributes: map[string]string{
			"action":  action,
			"method":  "POST",
			"enctype": "multipart/form-data",
		},
		Inputs:    form,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks a submitted set of form inputs the way the storage service
// would: the signature must match the policy, the policy must not have
// expired, and every equality or prefix condition must hold. A field named
// by a condition but absent from inputs fails it. The bucket is part of the
// request URL rather than the form, so callers add it to inputs themselves.
// content-length-range is left to the caller, which has the body.
func (s *Signer) Verify(ctx context.Context, inputs map[string]string) error {
	encoded := inputs[InputPolicy]
	signature := inputs[InputSignature]
	credential := inputs[InputCredential]
	if encoded == "" || signature == "" || credential == "" {
		return ErrMalformedPolicy
	}

	scope := strings.Split(credential, "/")
	if len(scope) != 5 || scope[3] != service || scope[4] != terminator {
		return fmt.Errorf("%w: bad credential scope", ErrMalformedPolicy)
	}

	if s.credentials == nil {
		return ErrNoCredentials
	}
	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	if creds.AccessKeyID != scope[0] {
		return ErrInvalidSignature
	}

	expected := sign(creds.SecretAccessKey, scope[1], scope[2], encoded)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}

	doc, err := decodePolicy(encoded)
	if err != nil {
		return err
	}

	expiresAt, err := time.Parse(expirationFormat, doc.Expiration)
	if err != nil {
		return fmt.Errorf("%w: bad expiration: %v", ErrMalformedPolicy, err)
	}
	if s.now().UTC().After(expiresAt) {
		return ErrExpired
	}

	for _, cond := range doc.Conditions {
		if cond.Op == OpContentLengthRange {
			continue
		}
		value, ok := lookupFold(inputs, cond.Field)
		if !ok {
			return fmt.Errorf("%w: missing field %s", ErrConditionFailed, cond.Field)
		}
		if !cond.Satisfied(value) {
			return fmt.Errorf("%w: %s", ErrConditionFailed, cond)
		}
	}

	return nil
}

// Conditions decodes the condition list from a base64 policy document
func Conditions(encoded string) ([]Condition, error) {
	doc, err := decodePolicy(encoded)
	if err != nil {
		return nil, err
	}
	return doc.Conditions, nil
}

func decodePolicy(encoded string) (*policyDocument, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPolicy, err)
	}
	var doc policyDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPolicy, err)
	}
	return &doc, nil
}

// action builds the form action URL for bucket
func (s *Signer) action(bucket string) (string, error) {
	if s.endpoint == "" {
		if s.region == "us-east-1" {
			return fmt.Sprintf("https://%s.s3.amazonaws.com", bucket), nil
		}
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, s.region), nil
	}

	u, err := url.Parse(s.endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("postpolicy: invalid endpoint %q", s.endpoint)
	}
	if s.usePathStyle {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + bucket
		return u.String(), nil
	}
	u.Host = bucket + "." + u.Host
	return strings.TrimSuffix(u.String(), "/"), nil
}

// sign computes the hex signature of a base64 policy
func sign(secret, date, region, policy string) string {
	key := deriveKey(secret, date, region, service)
	return hex.EncodeToString(hmacSHA256(key, []byte(policy)))
}

// deriveKey performs the SigV4 signing key derivation chain
func deriveKey(secret, date, region, svc string) []byte {
	k := hmacSHA256([]byte("AWS4"+secret), []byte(date))
	k = hmacSHA256(k, []byte(region))
	k = hmacSHA256(k, []byte(svc))
	return hmacSHA256(k, []byte(terminator))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	// Write on a hash never returns an error.
	_, _ = h.Write(data)
	return h.Sum(nil)
}

func lookupFold(m map[string]string, key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
