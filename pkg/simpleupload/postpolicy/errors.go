package postpolicy

import "errors"

// Signing and verification errors
var (
	// ErrNoCredentials is returned when the signer has no credentials provider or it yields nothing usable
	ErrNoCredentials = errors.New("postpolicy: no credentials configured")

	// ErrNoBucket is returned when attempting to sign a policy without a bucket
	ErrNoBucket = errors.New("postpolicy: bucket is required")

	// ErrMalformedPolicy is returned when form inputs do not carry a decodable policy
	ErrMalformedPolicy = errors.New("postpolicy: malformed policy")

	// ErrExpired is returned when the policy expiration has passed
	ErrExpired = errors.New("postpolicy: policy has expired")

	// ErrInvalidSignature is returned when the signature does not match the policy
	ErrInvalidSignature = errors.New("postpolicy: invalid signature")

	// ErrConditionFailed is returned when a form input violates an equality or prefix condition
	ErrConditionFailed = errors.New("postpolicy: condition not satisfied")
)

// IsAuthError returns true if the error means the submitted form must be rejected
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMalformedPolicy) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrConditionFailed)
}
