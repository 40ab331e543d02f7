package postpolicy

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithCredentials sets the provider used to fetch signing credentials.
// An aws.Config's Credentials field can be passed directly.
func WithCredentials(provider aws.CredentialsProvider) Option {
	return func(s *Signer) {
		s.credentials = provider
	}
}

// WithStaticCredentials signs with a fixed access key pair
func WithStaticCredentials(accessKeyID, secretAccessKey, sessionToken string) Option {
	return func(s *Signer) {
		s.credentials = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken)
	}
}

// WithRegion sets the region used in the credential scope.
// Default is us-east-1.
func WithRegion(region string) Option {
	return func(s *Signer) {
		if region != "" {
			s.region = region
		}
	}
}

// WithEndpoint points the form action at an S3-compatible service.
// pathStyle selects "{endpoint}/{bucket}" over "{bucket}.{host}".
func WithEndpoint(endpoint string, pathStyle bool) Option {
	return func(s *Signer) {
		s.endpoint = endpoint
		s.usePathStyle = pathStyle
	}
}

// WithDefaultExpiration sets the lifetime used when Presign is called with zero
func WithDefaultExpiration(d time.Duration) Option {
	return func(s *Signer) {
		s.defaultExpiration = d
	}
}

// WithClock overrides the time source, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}
